package rate

import "errors"

var (
	// ErrRateLimited is returned by Check while logins are blocked.
	ErrRateLimited = errors.New("rate limited")
	// ErrStoreUnavailable wraps failures of the underlying kv store.
	ErrStoreUnavailable = errors.New("rate store unavailable")
)
