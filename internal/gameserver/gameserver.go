package gameserver

import "context"

type Team string

const (
	TeamUnassigned Team = "Unassigned"
	TeamSpectator  Team = "Spectator"
	TeamTerrorist  Team = "TERRORIST"
	TeamCT         Team = "CT"
)

// Player is one slot of the server roster as reported by the log stream
// and the status query. AuthID is the raw SteamID2 text; bots and the
// HLTV/GOTV observer carry no usable identity and never accrue time.
type Player struct {
	UserID int64
	Name   string
	AuthID string
	Team   Team
	IsBot  bool
	IsHLTV bool
}

func (p Player) IsSpectator() bool {
	return p.Team == TeamSpectator
}

type EventType string

const (
	EventConnect    EventType = "connect"
	EventDisconnect EventType = "disconnect"
	EventTeamChange EventType = "team_change"
)

type PlayerEvent struct {
	Type   EventType
	Player Player
}

type Client interface {
	Connect(ctx context.Context) error
	Close() error
	RegisterPlayerEventHandler(handler func(PlayerEvent))
	ListPlayers() ([]Player, error)
	Notify(p Player, message string) error
	Run() error
}
