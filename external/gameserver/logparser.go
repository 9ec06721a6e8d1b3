package gameserver

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/patths/gametime-bonus/internal/gameserver"
)

// Remote log lines arrive as datagrams shaped like
//
//	L 08/28/2026 - 12:34:56: "Name<3><STEAM_1:0:123><CT>" disconnected (reason "...")
//
// optionally preceded by the 0xFFFFFFFF packet header and an "R"/"S" marker
// depending on server version. The parser only cares about the three player
// lifecycle lines; everything else is dropped.
var (
	logBodyRe     = regexp.MustCompile(`\d{2}:\d{2}:\d{2}(?:\.\d+)?[:\s-]+(".*)$`)
	playerTokenRe = regexp.MustCompile(`^"(.+?)<(\d+)><([^<>]*)>(?:<([^<>]*)>)?"`)
	teamSwitchRe  = regexp.MustCompile(`switched from team <([^<>]*)> to <([^<>]*)>`)
)

func ParseLogLine(line string) (gameserver.PlayerEvent, bool) {
	body := extractBody(line)
	if body == "" {
		return gameserver.PlayerEvent{}, false
	}

	token := playerTokenRe.FindStringSubmatch(body)
	if token == nil {
		return gameserver.PlayerEvent{}, false
	}
	userID, err := strconv.ParseInt(token[2], 10, 64)
	if err != nil {
		return gameserver.PlayerEvent{}, false
	}
	auth := token[3]
	player := gameserver.Player{
		UserID: userID,
		Name:   token[1],
		AuthID: auth,
		Team:   parseTeam(token[4]),
		IsBot:  auth == "BOT",
		IsHLTV: auth == "HLTV" || auth == "GOTV",
	}
	rest := strings.TrimSpace(body[len(token[0]):])

	switch {
	case strings.HasPrefix(rest, "connected"):
		return gameserver.PlayerEvent{Type: gameserver.EventConnect, Player: player}, true
	case strings.HasPrefix(rest, "disconnected"):
		return gameserver.PlayerEvent{Type: gameserver.EventDisconnect, Player: player}, true
	case strings.HasPrefix(rest, "switched from team"):
		m := teamSwitchRe.FindStringSubmatch(rest)
		if m == nil {
			return gameserver.PlayerEvent{}, false
		}
		player.Team = parseTeam(m[2])
		return gameserver.PlayerEvent{Type: gameserver.EventTeamChange, Player: player}, true
	}
	return gameserver.PlayerEvent{}, false
}

func extractBody(line string) string {
	line = strings.TrimFunc(line, func(r rune) bool {
		return r == 0xFFFD || r == 0xFF || r < 0x20
	})
	if m := logBodyRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if strings.HasPrefix(line, `"`) {
		return line
	}
	return ""
}

func parseTeam(s string) gameserver.Team {
	switch s {
	case "CT":
		return gameserver.TeamCT
	case "TERRORIST", "T":
		return gameserver.TeamTerrorist
	case "Spectator", "SPEC":
		return gameserver.TeamSpectator
	default:
		return gameserver.TeamUnassigned
	}
}
