package repository

import "errors"

// Sentinel kinds for rating store errors.
var (
	ErrNotFound        = errors.New("player not found")
	ErrInvalidLimit    = errors.New("invalid leaderboard limit")
	ErrInvalidSeed     = errors.New("invalid seed")
	ErrSeedAfterReplay = errors.New("seeding is closed once replay has started")
	ErrSelfMatch       = errors.New("player cannot play themselves")
)
