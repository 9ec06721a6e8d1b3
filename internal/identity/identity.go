package identity

import (
	"fmt"
	"strings"
)

const (
	legacyPrefix    = "STEAM_0:"
	canonicalPrefix = "STEAM_1:"

	accountIDMask = 0x7FFFFFFFFFFFFFFF
)

// Canonical derives the stable identifier that keys sessions and account
// rows from raw platform identity data. The primary source is the
// authenticated SteamID2 token; when that is absent the numeric session
// userid is transformed into an account number instead. An empty result
// means the event carries no usable identity and must be ignored.
func Canonical(authID string, userID int64) string {
	if authID != "" {
		id := stripControl(authID)
		if strings.HasPrefix(id, legacyPrefix) {
			id = canonicalPrefix + strings.TrimPrefix(id, legacyPrefix)
		}
		return id
	}
	if userID > 0 {
		accountID := (userID >> 1) & accountIDMask
		return stripControl(fmt.Sprintf("%s0:%d", canonicalPrefix, accountID))
	}
	return ""
}

// stripControl drops control characters (code points <= 31 and 127) that
// occasionally leak into identity tokens from the game server.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= 31 || r == 127 {
			return -1
		}
		return r
	}, s)
}
