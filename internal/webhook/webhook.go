package webhook

import (
	"context"
	"time"
)

type GrantEventPayload struct {
	Auth       string    `json:"auth"`
	PlayerName string    `json:"player_name"`
	Amount     int       `json:"amount"`
	GrantedAt  time.Time `json:"granted_at"`
}

type Sender interface {
	SendGrantEvent(ctx context.Context, payload GrantEventPayload) error
}
