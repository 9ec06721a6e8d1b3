package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/patths/gametime-bonus/internal/config"
)

type envConfig struct {
	Env                  string `env:"ENV" envDefault:"production"`
	DatabaseURL          string `env:"DATABASE_URL,required"`
	RconAddress          string `env:"RCON_ADDRESS,required"`
	RconPassword         string `env:"RCON_PASSWORD,required"`
	LogListenAddr        string `env:"LOG_LISTEN_ADDR" envDefault:":27115"`
	BonusIntervalSeconds int    `env:"BONUS_INTERVAL_SECONDS" envDefault:"600"`
	BonusAmount          int    `env:"BONUS_AMOUNT" envDefault:"1"`
	ReturnWindowSeconds  int    `env:"RETURN_WINDOW_SECONDS" envDefault:"120"`
	BonusMessage         string `env:"BONUS_MESSAGE" envDefault:"[Бонус] Вам начислено {amount} руб."`
	GrantWebhookURL      string `env:"GRANT_WEBHOOK_URL"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                  raw.Env,
		DatabaseURL:          raw.DatabaseURL,
		RconAddress:          raw.RconAddress,
		RconPassword:         raw.RconPassword,
		LogListenAddr:        raw.LogListenAddr,
		BonusIntervalSeconds: raw.BonusIntervalSeconds,
		BonusAmount:          raw.BonusAmount,
		ReturnWindowSeconds:  raw.ReturnWindowSeconds,
		BonusMessage:         raw.BonusMessage,
		GrantWebhookURL:      raw.GrantWebhookURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
