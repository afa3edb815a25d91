package metro

import "github.com/google/uuid"

// stationIDs generates short random station ids. Station ids show up in the
// editor's UI, so they are kept to eight hex characters.
var stationIDs = func() string {
	return uuid.NewString()[:8]
}

func newID() string {
	return uuid.NewString()
}

// Option customizes entities created by a [Map] or [Track].
type Option func(*createOptions)

type createOptions struct {
	id   string
	name string
}

// WithID creates the entity with a fixed id instead of a random one. Creation
// fails (returns nil) when the id is already taken.
func WithID(id string) Option {
	return func(o *createOptions) { o.id = id }
}

// WithName sets the display name of a created station.
func WithName(name string) Option {
	return func(o *createOptions) { o.name = name }
}

func applyOptions(opts []Option) createOptions {
	var o createOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
