package repository

import "time"

// GrantRecord is one row of the bonus_grants audit table: a single
// successful credit against the linked account keyed by auth.
type GrantRecord struct {
	ID        string
	Auth      string
	Amount    int
	GrantedAt time.Time
}
