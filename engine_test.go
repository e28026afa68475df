package localauth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/localauth/clock"
	"github.com/MrEthical07/localauth/kv"
)

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

const testPassword = "Passw0rd!"

type recordingNavigator struct {
	mu    sync.Mutex
	pages []Page
}

func (n *recordingNavigator) Navigate(_ context.Context, page Page) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pages = append(n.pages, page)
}

func (n *recordingNavigator) Last() Page {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.pages) == 0 {
		return PageOther
	}
	return n.pages[len(n.pages)-1]
}

func (n *recordingNavigator) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pages)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

type testEnv struct {
	engine *Engine
	store  *kv.MemoryStore
	clock  *clock.Fake
	nav    *recordingNavigator
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Metrics.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}

	env := &testEnv{
		store: kv.NewMemoryStore(),
		clock: clock.NewFake(testStart),
		nav:   &recordingNavigator{},
	}

	engine, err := New().
		WithConfig(cfg).
		WithStore(env.store).
		WithClock(env.clock).
		WithNavigator(env.nav).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })

	env.engine = engine
	return env
}

func (env *testEnv) register(t *testing.T, username, email string) {
	t.Helper()
	err := env.engine.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		Password: testPassword,
		Hint:     "blue",
	})
	if err != nil {
		t.Fatalf("Register %s failed: %v", username, err)
	}
}

func (env *testEnv) get(t *testing.T, key string) (string, bool) {
	t.Helper()
	v, ok, err := env.store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("store Get %s failed: %v", key, err)
	}
	return v, ok
}

func fieldErrorOf(t *testing.T, err error) *FieldError {
	t.Helper()
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %T (%v)", err, err)
	}
	return fe
}

func TestNilEngineNotReady(t *testing.T) {
	var e *Engine
	ctx := context.Background()

	if err := e.Register(ctx, RegisterInput{}); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady from Register, got %v", err)
	}
	if _, err := e.Login(ctx, "a", "b"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady from Login, got %v", err)
	}
	if _, err := e.CheckAccess(ctx, PageDashboard, nil); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady from CheckAccess, got %v", err)
	}
	if e.AuditDropped() != 0 || e.AuditDelivered() != 0 {
		t.Fatal("expected zero audit counts")
	}
	if len(e.MetricsSnapshot().Counters) != 0 {
		t.Fatal("expected empty snapshot")
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestAuditEventsCarryNoSecrets(t *testing.T) {
	sink := NewChannelSink(64)
	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false

	engine, err := New().
		WithConfig(cfg).
		WithStore(kv.NewMemoryStore()).
		WithClock(clock.NewFake(testStart)).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-1")
	if err := engine.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: testPassword, Hint: "blue"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := engine.Login(ctx, "alice", "Wr0ng-pass!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := engine.Login(ctx, "alice", testPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	want := []string{auditEventRegisterSuccess, auditEventLoginFailure, auditEventLoginSuccess}
	for i, eventType := range want {
		select {
		case ev := <-sink.Events():
			if ev.EventType != eventType {
				t.Fatalf("event %d: expected %s, got %s", i, eventType, ev.EventType)
			}
			if ev.RequestID != "req-1" {
				t.Fatalf("event %d: expected request id, got %q", i, ev.RequestID)
			}
			for k, v := range ev.Metadata {
				if v == testPassword || v == "Wr0ng-pass!" || v == "blue" {
					t.Fatalf("event %d: secret leaked in metadata %s", i, k)
				}
			}
			if !ev.Timestamp.Equal(testStart) {
				t.Fatalf("event %d: expected engine clock timestamp, got %v", i, ev.Timestamp)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", eventType)
		}
	}
}

func TestMalformedStateIsCountedNotReturned(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if err := env.store.Set(ctx, "users", "{not json"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := env.store.Set(ctx, "failedAttempts", "many"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := env.engine.Login(ctx, "alice", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricMalformedState]; got == 0 {
		t.Fatal("expected malformed state to be counted")
	}
	if v, _ := env.get(t, "failedAttempts"); v != "1" {
		t.Fatalf("expected malformed counter to restart at 1, got %q", v)
	}
}
