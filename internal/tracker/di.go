package tracker

import (
	"github.com/patths/gametime-bonus/internal/config"
	"github.com/patths/gametime-bonus/internal/gameserver"
	"github.com/patths/gametime-bonus/internal/repository"
	"github.com/patths/gametime-bonus/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Tracker, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		server := do.MustInvoke[gameserver.Client](i)
		wh := do.MustInvoke[webhook.Sender](i)
		return NewTracker(cfg, repo, server, wh), nil
	})
}
