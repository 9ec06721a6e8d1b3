package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/patths/gametime-bonus/internal/config"
	"github.com/patths/gametime-bonus/internal/gameserver"
	"github.com/patths/gametime-bonus/internal/identity"
	"github.com/patths/gametime-bonus/internal/repository"
	"github.com/patths/gametime-bonus/internal/webhook"
)

const (
	tickPeriod   = time.Second
	storeTimeout = 5 * time.Second
)

type disburseOutcome int

const (
	outcomeCredited disburseOutcome = iota
	outcomeNotEligible
	outcomeStoreError
)

// playerSession is one registry entry. accumulatedSeconds only moves in
// Tick while active; it resets on a successful or failed disbursement and
// on a return after the grace window, never anywhere else.
type playerSession struct {
	auth               string
	accumulatedSeconds int
	active             bool
	disconnectedAt     *time.Time
	lastBonusAt        time.Time
	joinedAt           time.Time
}

// Tracker owns the session registry and drives accrual and disbursement.
// All registry access happens under mu; lifecycle events and ticker passes
// for the same player can therefore never interleave.
type Tracker struct {
	cfg     *config.Config
	repo    repository.Repository
	server  gameserver.Client
	webhook webhook.Sender
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*playerSession
}

func NewTracker(cfg *config.Config, repo repository.Repository, server gameserver.Client, wh webhook.Sender) *Tracker {
	return &Tracker{
		cfg:      cfg,
		repo:     repo,
		server:   server,
		webhook:  wh,
		now:      time.Now,
		sessions: make(map[string]*playerSession),
	}
}

// HandlePlayerEvent is the sink for connect/disconnect/team-change events.
// Events without a resolvable identity are dropped without touching the
// registry.
func (t *Tracker) HandlePlayerEvent(event gameserver.PlayerEvent) {
	p := event.Player
	if p.IsBot || p.IsHLTV {
		return
	}
	auth := identity.Canonical(p.AuthID, p.UserID)
	if auth == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	switch event.Type {
	case gameserver.EventConnect:
		t.handleConnect(auth, p)
	case gameserver.EventDisconnect:
		t.handleDisconnect(auth, p)
	case gameserver.EventTeamChange:
		t.handleTeamChange(auth, p)
	}
}

func (t *Tracker) handleConnect(auth string, p gameserver.Player) {
	now := t.now()
	s, ok := t.sessions[auth]
	if !ok {
		t.sessions[auth] = &playerSession{
			auth:        auth,
			active:      !p.IsSpectator(),
			lastBonusAt: now,
			joinedAt:    now,
		}
		slog.Info("new player tracked", "name", p.Name, "auth", auth)
		return
	}

	if s.disconnectedAt != nil {
		window := time.Duration(t.cfg.ReturnWindowSeconds) * time.Second
		if now.Sub(*s.disconnectedAt) <= window {
			s.active = !p.IsSpectator()
			s.disconnectedAt = nil
			slog.Info("player returned within window", "name", p.Name, "auth", auth, "accumulated_seconds", s.accumulatedSeconds)
		} else {
			s.accumulatedSeconds = 0
			s.active = !p.IsSpectator()
			s.disconnectedAt = nil
			s.joinedAt = now
			slog.Info("player returned after window, accrual reset", "name", p.Name, "auth", auth)
		}
		return
	}

	// Re-entry without a prior disconnect (spawn or team event ordering);
	// the counter is left alone.
	s.active = !p.IsSpectator()
	s.joinedAt = now
}

func (t *Tracker) handleDisconnect(auth string, p gameserver.Player) {
	s, ok := t.sessions[auth]
	if !ok {
		return
	}
	now := t.now()
	s.active = false
	s.disconnectedAt = &now
	slog.Info("player disconnected, accrual frozen",
		"name", p.Name, "auth", auth,
		"accumulated_seconds", s.accumulatedSeconds,
		"return_window_seconds", t.cfg.ReturnWindowSeconds)
}

func (t *Tracker) handleTeamChange(auth string, p gameserver.Player) {
	s, ok := t.sessions[auth]
	if !ok {
		return
	}
	// A team event arriving after the disconnect is ignored: return is
	// only via connect, and an active session never carries a pending
	// disconnect timestamp.
	if s.disconnectedAt != nil {
		return
	}
	s.active = !p.IsSpectator()
	if s.active {
		slog.Info("player joined team, accrual resumed", "name", p.Name, "auth", auth, "team", p.Team)
	} else {
		slog.Info("player is now spectator, accrual paused", "name", p.Name, "auth", auth)
	}
}

// Run drives Tick on a fixed one-second period until ctx is canceled.
func (t *Tracker) Run(ctx context.Context) {
	slog.Info("accrual loop started",
		"bonus_interval_seconds", t.cfg.BonusIntervalSeconds,
		"bonus_amount", t.cfg.BonusAmount,
		"return_window_seconds", t.cfg.ReturnWindowSeconds)
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("accrual loop stopped")
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}

// Tick advances accrual for every active session on the current roster and
// disburses when a session crosses the configured interval. A roster
// enumeration failure aborts only this tick.
func (t *Tracker) Tick() {
	players, err := t.server.ListPlayers()
	if err != nil {
		slog.Error("roster enumeration failed, skipping tick", "error", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range players {
		if p.IsBot || p.IsHLTV {
			continue
		}
		auth := identity.Canonical(p.AuthID, p.UserID)
		if auth == "" {
			continue
		}
		s, ok := t.sessions[auth]
		if !ok {
			continue
		}
		if !s.active {
			continue
		}
		if p.IsSpectator() {
			// Safety net for a missed team-change event.
			s.active = false
			continue
		}

		s.accumulatedSeconds++
		if s.accumulatedSeconds >= t.cfg.BonusIntervalSeconds {
			t.disburse(p, auth, s)
			// No retry backlog: any outcome restarts the accrual cycle.
			s.accumulatedSeconds = 0
		}
	}
}

func (t *Tracker) disburse(p gameserver.Player, auth string, s *playerSession) disburseOutcome {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	amount := t.cfg.BonusAmount

	exists, err := t.repo.AccountExists(ctx, auth)
	if err != nil {
		slog.Error("account existence check failed", "error", err, "auth", auth)
		return outcomeStoreError
	}
	if !exists {
		slog.Info("no linked account, skipping bonus", "name", p.Name, "auth", auth)
		return outcomeNotEligible
	}

	affected, err := t.repo.CreditBalance(ctx, auth, amount)
	if err != nil {
		slog.Error("balance credit failed", "error", err, "auth", auth)
		return outcomeStoreError
	}
	if affected == 0 {
		slog.Error("balance credit affected no rows", "auth", auth)
		return outcomeStoreError
	}

	now := t.now()
	s.lastBonusAt = now
	slog.Info("bonus credited", "name", p.Name, "auth", auth, "amount", amount)

	if _, err := t.repo.RecordGrant(ctx, repository.RecordGrantInput{
		Auth:      auth,
		Amount:    amount,
		GrantedAt: now,
	}); err != nil {
		slog.Error("failed to record grant", "error", err, "auth", auth)
	}
	if err := t.server.Notify(p, renderBonusMessage(t.cfg.BonusMessage, amount)); err != nil {
		slog.Warn("bonus notification failed", "error", err, "name", p.Name)
	}
	go t.sendGrantWebhook(p, auth, amount, now)
	return outcomeCredited
}

func (t *Tracker) sendGrantWebhook(p gameserver.Player, auth string, amount int, grantedAt time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := t.webhook.SendGrantEvent(ctx, webhook.GrantEventPayload{
		Auth:       auth,
		PlayerName: p.Name,
		Amount:     amount,
		GrantedAt:  grantedAt,
	}); err != nil {
		slog.Error("failed to send grant webhook", "error", err, "auth", auth)
	}
}
