// Package reqid carries a per-request correlation ID through contexts.
package reqid

import (
	"context"

	"github.com/google/uuid"
)

type key struct{}

// Header is the HTTP header used to accept and echo request IDs.
const Header = "X-Request-Id"

// NewContext stores a fresh random ID in parent and returns it.
func NewContext(parent context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithID(parent, id), id
}

// WithID stores id in parent. An empty id is replaced by a fresh one.
func WithID(parent context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(parent, key{}, id)
}

func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}
