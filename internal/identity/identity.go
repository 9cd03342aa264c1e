package identity

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidToken wraps every verification failure: malformed, expired,
// badly signed or otherwise unverifiable credentials.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified subject of a request. It lives for one request
// only; UID is the sole value ever persisted.
type Identity struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Verifier exchanges a raw bearer credential for a verified Identity.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Identity, error)
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying id.
func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by NewContext, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*Identity)
	return id, ok && id != nil
}

// tokenClaims are the claims shared by Firebase, Keycloak and locally
// issued tokens. Firebase repeats the subject in user_id.
type tokenClaims struct {
	Subject string `json:"sub"`
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Expiry  int64  `json:"exp"`
}

func (c tokenClaims) identity() *Identity {
	uid := c.Subject
	if uid == "" {
		uid = c.UserID
	}
	id := &Identity{UID: uid, Email: c.Email, Name: c.Name}
	if c.Expiry > 0 {
		id.ExpiresAt = time.Unix(c.Expiry, 0)
	}
	return id
}
