package localauth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MrEthical07/localauth/clock"
	"github.com/MrEthical07/localauth/internal"
	internalaudit "github.com/MrEthical07/localauth/internal/audit"
	"github.com/MrEthical07/localauth/internal/rate"
	"github.com/MrEthical07/localauth/internal/stores"
	"github.com/MrEthical07/localauth/kv"
	"github.com/MrEthical07/localauth/password"
	"github.com/MrEthical07/localauth/session"
	"github.com/go-playground/validator/v10"
)

// Engine runs every authentication operation against one persisted store.
//
// Engine instances are built once through [Builder.Build]. Methods are safe for
// concurrent use; concurrent writers to the user collection follow the
// configured write mode (last writer wins unless optimistic writes are on).
type Engine struct {
	config      Config
	store       kv.Store
	credentials *stores.CredentialStore
	limiter     *rate.Limiter
	sessions    *session.Manager
	hasher      password.Hasher
	navigator   Navigator
	clock       clock.Clock
	validate    *validator.Validate
	audit       *internalaudit.Dispatcher
	metrics     *Metrics
	closers     []func() error
}

// Close flushes the audit queue and releases stores opened by Build.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	if e.audit != nil {
		e.audit.Close()
	}

	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// AuditDropped returns the number of audit events dropped because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditDelivered returns the number of audit events handed to the sink.
func (e *Engine) AuditDelivered() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Delivered()
}

// MetricsSnapshot copies the current counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// LoginBlocked reports whether the failed-attempt gate currently refuses logins.
func (e *Engine) LoginBlocked(ctx context.Context) (bool, error) {
	if e == nil || e.limiter == nil {
		return false, ErrEngineNotReady
	}
	blocked, err := e.limiter.IsBlocked(ctx)
	if err != nil {
		return false, mapStoreError(err)
	}
	return blocked, nil
}

// CurrentProfile returns the profile of the stored session, if any.
func (e *Engine) CurrentProfile(ctx context.Context) (Profile, error) {
	if e == nil || e.sessions == nil {
		return Profile{}, ErrEngineNotReady
	}
	p, err := e.sessions.Profile(ctx)
	if err != nil {
		return Profile{}, mapStoreError(err)
	}
	return p, nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// flowMetric adapts metric increments for the flow packages, which carry IDs as int.
func (e *Engine) flowMetric(id int) {
	e.metricInc(MetricID(id))
}

func (e *Engine) flowAudit(ctx context.Context, eventType string, success bool, username string, err error, meta func() map[string]string) {
	e.emitAudit(ctx, eventType, success, username, err, meta)
}

func (e *Engine) stateMalformed(key string) {
	e.metricInc(MetricMalformedState)
	log.Printf("localauth: malformed value under %q, using fallback", key)
	e.emitAudit(context.Background(), auditEventStateMalformed, false, "", ErrMalformedPersistedState, func() map[string]string {
		return map[string]string{"key": key}
	})
}

func (e *Engine) generateSalt() (string, error) {
	salt, err := e.hasher.GenerateSalt()
	if err != nil {
		return "", mapCryptoError(err)
	}
	return salt, nil
}

func (e *Engine) hashPassword(pw, salt string) (string, error) {
	start := time.Now()
	digest, err := e.hasher.Hash(pw, salt)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricHashLatency, time.Since(start))
	}
	if err != nil {
		return "", mapCryptoError(err)
	}
	return digest, nil
}

// timedHasher routes digest work through the engine so every hash is timed
// and its errors are mapped.
type timedHasher struct {
	e *Engine
}

func (h timedHasher) GenerateSalt() (string, error) { return h.e.generateSalt() }

func (h timedHasher) Hash(pw, salt string) (string, error) { return h.e.hashPassword(pw, salt) }

func (e *Engine) verifyPassword(pw, salt, digest string) (bool, error) {
	return password.Verify(timedHasher{e: e}, pw, salt, digest)
}

func isWeakPassword(pw string) bool {
	return password.ClassifyStrength(pw) == password.Weak
}

func mapCryptoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCryptoUnavailable) {
		return err
	}
	if errors.Is(err, password.ErrCryptoUnavailable) || errors.Is(err, internal.ErrRandomUnavailable) {
		return fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}
	return err
}

// mapStoreError converts internal store failures to public sentinels.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrCryptoUnavailable):
		return err
	case errors.Is(err, stores.ErrDuplicateUsername):
		return ErrDuplicateUsername
	case errors.Is(err, stores.ErrDuplicateEmail):
		return ErrDuplicateEmail
	case errors.Is(err, internal.ErrRandomUnavailable):
		return fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
