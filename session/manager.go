package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/MrEthical07/localauth/clock"
	"github.com/MrEthical07/localauth/internal"
	"github.com/MrEthical07/localauth/kv"
)

var (
	// ErrStoreUnavailable wraps kv failures.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrRandomUnavailable is returned when a token cannot be generated.
	ErrRandomUnavailable = internal.ErrRandomUnavailable
)

// LogoutHook runs after the session keys are removed.
type LogoutHook func(ctx context.Context, reason LogoutReason, profile Profile)

// Option configures a [Manager].
type Option func(*Manager)

// WithClock sets the time source used for expiry.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithScheduler sets the scheduler that arms inactivity callbacks.
func WithScheduler(s clock.Scheduler) Option {
	return func(m *Manager) { m.scheduler = s }
}

// WithRandom sets the token randomness source.
func WithRandom(r io.Reader) Option {
	return func(m *Manager) { m.random = r }
}

// WithLogoutHook registers the function called on every logout.
func WithLogoutHook(h LogoutHook) Option {
	return func(m *Manager) { m.onLogout = h }
}

// WithMalformedHook registers the function called when a stored value fails to decode.
func WithMalformedHook(h func(key string)) Option {
	return func(m *Manager) { m.onMalformed = h }
}

// Manager reads and writes the session keys.
type Manager struct {
	store       kv.Store
	config      Config
	clock       clock.Clock
	scheduler   clock.Scheduler
	random      io.Reader
	onLogout    LogoutHook
	onMalformed func(key string)
}

// NewManager creates a [Manager]. Zero config fields take the package defaults.
func NewManager(store kv.Store, cfg Config, opts ...Option) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.InactivityTimeout <= 0 {
		cfg.InactivityTimeout = DefaultInactivityTimeout
	}
	if cfg.TokenBytes <= 0 {
		cfg.TokenBytes = DefaultTokenBytes
	}

	m := &Manager{
		store:  store,
		config: cfg,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = clock.System{}
	}
	if m.scheduler == nil {
		m.scheduler = clock.System{}
	}
	if m.onLogout == nil {
		m.onLogout = func(context.Context, LogoutReason, Profile) {}
	}
	if m.onMalformed == nil {
		m.onMalformed = func(string) {}
	}
	return m
}

// Login issues a fresh token for profile and persists it, overwriting any
// existing session.
func (m *Manager) Login(ctx context.Context, profile Profile) (Record, error) {
	token, err := internal.RandomHex(m.random, m.config.TokenBytes)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Token:   token,
		Expiry:  m.clock.Now().Add(m.config.TTL),
		Profile: profile,
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return Record{}, err
	}

	if err := m.set(ctx, TokenKey, rec.Token); err != nil {
		return Record{}, err
	}
	if err := m.set(ctx, ExpiryKey, internal.FormatEpochMillis(rec.Expiry)); err != nil {
		return Record{}, err
	}
	if err := m.set(ctx, ProfileKey, string(data)); err != nil {
		return Record{}, err
	}

	return rec, nil
}

// IsLoggedIn reports whether a token is stored and its expiry is still ahead.
// A malformed expiry reads as logged out.
func (m *Manager) IsLoggedIn(ctx context.Context) (bool, error) {
	token, ok, err := m.get(ctx, TokenKey)
	if err != nil || !ok || token == "" {
		return false, err
	}

	raw, ok, err := m.get(ctx, ExpiryKey)
	if err != nil || !ok {
		return false, err
	}
	expiry, parsed := internal.ParseEpochMillis(raw)
	if !parsed {
		m.onMalformed(ExpiryKey)
		return false, nil
	}

	return m.clock.Now().Before(expiry), nil
}

// Profile returns the stored user summary. Absent or malformed data yields the
// zero Profile, whose DisplayName falls back to "User".
func (m *Manager) Profile(ctx context.Context) (Profile, error) {
	raw, ok, err := m.get(ctx, ProfileKey)
	if err != nil || !ok {
		return Profile{}, err
	}

	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		m.onMalformed(ProfileKey)
		return Profile{}, nil
	}
	return p, nil
}

// StartInactivityTimer replaces any pending callback on sc with one that logs
// out after the inactivity timeout.
func (m *Manager) StartInactivityTimer(sc *Context) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.stopLocked()
	sc.gen++
	gen := sc.gen
	sc.timer = m.scheduler.AfterFunc(m.config.InactivityTimeout, func() {
		m.inactivityElapsed(sc, gen)
	})
}

// ResetInactivityTimer re-arms the timer on user activity. It does nothing
// when no valid session exists and reports whether it re-armed.
func (m *Manager) ResetInactivityTimer(ctx context.Context, sc *Context) (bool, error) {
	ok, err := m.IsLoggedIn(ctx)
	if err != nil || !ok {
		return false, err
	}
	m.StartInactivityTimer(sc)
	return true, nil
}

// Logout removes the session keys, cancels the timer on sc (which may be nil)
// and runs the logout hook.
func (m *Manager) Logout(ctx context.Context, sc *Context, reason LogoutReason) error {
	if sc != nil {
		sc.Close()
	}

	// The profile only feeds the hook; a failed read must not keep the
	// session alive.
	profile, err := m.Profile(ctx)
	if err != nil {
		log.Print("localauth: logout could not read profile: ", err)
		profile = Profile{}
	}
	for _, key := range []string{TokenKey, ExpiryKey, ProfileKey} {
		if err := m.store.Remove(ctx, key); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	m.onLogout(ctx, reason, profile)
	return nil
}

func (m *Manager) inactivityElapsed(sc *Context, gen uint64) {
	sc.mu.Lock()
	if sc.gen != gen || sc.timer == nil {
		sc.mu.Unlock()
		return
	}
	sc.timer = nil
	sc.mu.Unlock()

	if err := m.Logout(context.Background(), sc, LogoutInactivity); err != nil {
		log.Print("localauth: inactivity logout failed: ", err)
	}
}

func (m *Manager) get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := m.store.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return v, ok, nil
}

func (m *Manager) set(ctx context.Context, key, value string) error {
	if err := m.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
