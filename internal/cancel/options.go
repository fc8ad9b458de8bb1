package cancel

import (
	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Option configures a Token at construction time.
type Option func(*Token)

// WithLogger sets the logger used for transition and callback-panic logs.
// Transitions are logged at V(1). The default is logr.Discard().
func WithLogger(log logr.Logger) Option {
	return func(t *Token) {
		t.log = log
	}
}

// WithName attaches a human-readable name to the token, used in logs and String.
func WithName(name string) Option {
	return func(t *Token) {
		t.name = name
	}
}

// WithID overrides the randomly generated token ID.
func WithID(id uuid.UUID) Option {
	return func(t *Token) {
		t.id = id
	}
}
