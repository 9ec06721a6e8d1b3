package repository

import (
	"context"
	"time"
)

type RecordGrantInput struct {
	Auth      string
	Amount    int
	GrantedAt time.Time
}

// AccountStore is the client for the externally owned account table (key
// column auth, balance column cash). The service never manages that
// table's schema; it only checks eligibility and applies additive credits.
type AccountStore interface {
	// AccountExists reports whether a linked account row exists for auth.
	AccountExists(ctx context.Context, auth string) (bool, error)
	// CreditBalance adds amount to the account balance and returns the
	// number of rows affected. Zero rows means the row vanished between
	// the eligibility check and the update.
	CreditBalance(ctx context.Context, auth string, amount int) (int64, error)
}

type GrantLog interface {
	RecordGrant(ctx context.Context, input RecordGrantInput) (*GrantRecord, error)
}

type Repository interface {
	AccountStore
	GrantLog
}
