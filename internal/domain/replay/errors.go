package replay

import "errors"

// Sentinel kinds for replay errors.
var (
	ErrCycleClosed       = errors.New("cycle is no longer collecting")
	ErrRefreshInProgress = errors.New("refresh already in progress")
	ErrSourceUnavailable = errors.New("match source unavailable")
)
