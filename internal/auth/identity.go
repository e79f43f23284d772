package auth

import (
	"context"
	"errors"
)

const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// ErrNoIdentity means the request carried no authenticated caller.
var ErrNoIdentity = errors.New("no authenticated identity")

// Identity is the signed-in user as vouched for by the identity provider.
type Identity struct {
	UID  string `json:"uid"`
	Role string `json:"role"`
	Name string `json:"name"`
}

// Provider resolves the identity of the current caller.
type Provider interface {
	Identify(ctx context.Context) (Identity, error)
}

type identityKey struct{}

// WithIdentity stores id on ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UID != ""
}

// ContextProvider reads the identity the bearer middleware put on the
// request context. Its output is trusted as given.
type ContextProvider struct{}

func (ContextProvider) Identify(ctx context.Context) (Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}
