package repository

import "github.com/okian/thunder/internal/domain/rating"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithUpdater sets the match update function.
func WithUpdater(u Updater) Option {
	return func(s *MemoryStore) {
		if u != nil {
			s.updater = u
		}
	}
}

// WithDefaults sets the state given to unseen players. Invalid defaults are
// ignored.
func WithDefaults(d rating.State) Option {
	return func(s *MemoryStore) {
		if d.Validate() == nil {
			s.defaults = d
		}
	}
}
