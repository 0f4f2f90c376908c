package stats

import "errors"

// Sentinel kinds for stats errors.
var (
	ErrUnknownPlayer = errors.New("unknown player")
)
