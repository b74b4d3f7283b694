package service

import (
	"context"

	"github.com/entwine-app/entwine/internal/model"
)

// Broadcaster fans an event out to a user's connected sessions. Delivery
// is best-effort; the session record stays authoritative and reconnecting
// clients re-read state via resume.
type Broadcaster interface {
	EmitToUser(userID string, event string, payload interface{})
}

// Identity exposes the slice of IdentityService the core needs: a user's
// display profile, denormalized into sessions at invitation time.
type Identity interface {
	Profile(ctx context.Context, userID string) (model.Player, error)
}
