package gameserver

import (
	"github.com/patths/gametime-bonus/internal/config"
	gameserverpkg "github.com/patths/gametime-bonus/internal/gameserver"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (gameserverpkg.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewClient(c.RconAddress, c.RconPassword, c.LogListenAddr), nil
	})
}
