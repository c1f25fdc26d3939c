package auth

import (
	"context"
	"time"
)

// Identity is the verified acting user of a request.
type Identity struct {
	UserID    string
	Root      bool
	TokenID   string
	ExpiresAt time.Time
}

// CanActFor reports whether the identity may act on userID's catalog.
// Root may act on any catalog; everyone else only on their own.
func (i *Identity) CanActFor(userID string) bool {
	if i == nil {
		return false
	}
	return i.Root || i.UserID == userID
}

type ctxKey struct{}

// WithIdentity stores the identity in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*Identity)
	return id, ok && id != nil
}
