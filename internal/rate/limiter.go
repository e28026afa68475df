package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/localauth/clock"
	"github.com/MrEthical07/localauth/internal"
	"github.com/MrEthical07/localauth/kv"
)

const (
	// FailedAttemptsKey holds the decimal failure count.
	FailedAttemptsKey = "failedAttempts"
	// LastAttemptKey holds the epoch-millisecond time of the last failure.
	LastAttemptKey = "lastAttempt"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	MaxFailedAttempts int
	Cooldown          time.Duration
}

// State is the decoded limiter state.
type State struct {
	FailedAttempts int64
	LastAttempt    time.Time
	// Malformed is set when either stored value failed to parse and was read as 0.
	Malformed bool
}

// Limiter enforces the global failed-login threshold over a kv store.
type Limiter struct {
	store       kv.Store
	clock       clock.Clock
	config      Config
	onMalformed func(key string)
}

// New creates a rate [Limiter]. onMalformed may be nil.
func New(store kv.Store, clk clock.Clock, cfg Config, onMalformed func(key string)) *Limiter {
	if clk == nil {
		clk = clock.System{}
	}
	if onMalformed == nil {
		onMalformed = func(string) {}
	}
	return &Limiter{
		store:       store,
		clock:       clk,
		config:      cfg,
		onMalformed: onMalformed,
	}
}

// State reads both keys. Absent or malformed values read as zero.
func (l *Limiter) State(ctx context.Context) (State, error) {
	var st State

	raw, ok, err := l.store.Get(ctx, FailedAttemptsKey)
	if err != nil {
		return st, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if ok {
		if n, parsed := internal.ParseCount(raw); parsed {
			st.FailedAttempts = n
		} else {
			st.Malformed = true
			l.onMalformed(FailedAttemptsKey)
		}
	}

	raw, ok, err = l.store.Get(ctx, LastAttemptKey)
	if err != nil {
		return st, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	st.LastAttempt = time.UnixMilli(0)
	if ok {
		if ts, parsed := internal.ParseEpochMillis(raw); parsed {
			st.LastAttempt = ts
		} else {
			st.Malformed = true
			l.onMalformed(LastAttemptKey)
		}
	}

	return st, nil
}

// IsBlocked reports whether login attempts are currently refused.
func (l *Limiter) IsBlocked(ctx context.Context) (bool, error) {
	st, err := l.State(ctx)
	if err != nil {
		return false, err
	}
	return l.blocked(st), nil
}

// Check returns ErrRateLimited while blocked.
func (l *Limiter) Check(ctx context.Context) error {
	blocked, err := l.IsBlocked(ctx)
	if err != nil {
		return err
	}
	if blocked {
		return ErrRateLimited
	}
	return nil
}

// RecordFailure increments the counter and stamps the current time.
// It returns the new count.
func (l *Limiter) RecordFailure(ctx context.Context) (int64, error) {
	st, err := l.State(ctx)
	if err != nil {
		return 0, err
	}

	count := st.FailedAttempts + 1
	if err := l.store.Set(ctx, FailedAttemptsKey, strconv.FormatInt(count, 10)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := l.store.Set(ctx, LastAttemptKey, internal.FormatEpochMillis(l.clock.Now())); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return count, nil
}

// Reset removes both keys. Called after a successful login only.
func (l *Limiter) Reset(ctx context.Context) error {
	for _, key := range []string{FailedAttemptsKey, LastAttemptKey} {
		if err := l.store.Remove(ctx, key); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	return nil
}

func (l *Limiter) blocked(st State) bool {
	if st.FailedAttempts < int64(l.config.MaxFailedAttempts) {
		return false
	}
	return l.clock.Now().Sub(st.LastAttempt) < l.config.Cooldown
}
