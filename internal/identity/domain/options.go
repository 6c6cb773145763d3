package domain

import (
	"time"

	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

// Clock is the time source read by constructors and mutators.
type Clock func() time.Time

// SystemClock returns the current UTC time.
func SystemClock() time.Time { return time.Now().UTC() }

// IDGenerator mints identifiers for entities and events.
type IDGenerator func() idx.ID

// Option tunes how an entity is built or restored.
type Option func(*options)

type options struct {
	now       Clock
	newID     IDGenerator
	tokenHash string
}

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.now = c
		}
	}
}

// WithIDGenerator overrides the identifier source.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) {
		if g != nil {
			o.newID = g
		}
	}
}

// WithTokenHash sets the fingerprint of the opaque token that redeems a
// WorkspaceInvitation. Other entities ignore it.
func WithTokenHash(hash string) Option {
	return func(o *options) { o.tokenHash = hash }
}

func buildOptions(opts []Option) options {
	o := options{now: SystemClock, newID: idx.New}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
