package config

import (
	"fmt"
	"strings"
)

// AmountPlaceholder is the literal substituted with the credited amount in
// the bonus chat message.
const AmountPlaceholder = "{amount}"

type Config struct {
	Env                  string
	DatabaseURL          string
	RconAddress          string
	RconPassword         string
	LogListenAddr        string
	BonusIntervalSeconds int
	BonusAmount          int
	ReturnWindowSeconds  int
	BonusMessage         string
	GrantWebhookURL      string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.BonusIntervalSeconds <= 0 {
		return fmt.Errorf("BONUS_INTERVAL_SECONDS must be positive, got %d", c.BonusIntervalSeconds)
	}
	if c.BonusAmount <= 0 {
		return fmt.Errorf("BONUS_AMOUNT must be positive, got %d", c.BonusAmount)
	}
	if c.ReturnWindowSeconds <= 0 {
		return fmt.Errorf("RETURN_WINDOW_SECONDS must be positive, got %d", c.ReturnWindowSeconds)
	}
	if !strings.Contains(c.BonusMessage, AmountPlaceholder) {
		return fmt.Errorf("BONUS_MESSAGE must contain the %s placeholder", AmountPlaceholder)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "RCON_ADDRESS", value: c.RconAddress},
		{name: "RCON_PASSWORD", value: c.RconPassword},
		{name: "LOG_LISTEN_ADDR", value: c.LogListenAddr},
		{name: "BONUS_MESSAGE", value: c.BonusMessage},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
