package localauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func loginAlice(t *testing.T, env *testEnv) {
	t.Helper()
	env.register(t, "alice", "alice@example.com")
	if _, err := env.engine.Login(context.Background(), "alice", testPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
}

func TestCheckAccessProtectedWithoutSession(t *testing.T) {
	env := newTestEnv(t, nil)
	sc := NewSessionContext()

	d, err := env.engine.CheckAccess(context.Background(), PageDashboard, sc)
	if err != nil {
		t.Fatalf("CheckAccess failed: %v", err)
	}
	if !d.Redirected || d.Target != PageLogin {
		t.Fatalf("expected redirect to login, got %+v", d)
	}
	if env.nav.Last() != PageLogin {
		t.Fatalf("expected navigator to receive login, got %v", env.nav.Last())
	}
	if sc.Pending() {
		t.Fatal("expected no timer armed")
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricAccessRedirect]; got != 1 {
		t.Fatalf("expected redirect metric 1, got %d", got)
	}
}

func TestCheckAccessProtectedWithSession(t *testing.T) {
	env := newTestEnv(t, nil)
	loginAlice(t, env)
	sc := NewSessionContext()

	d, err := env.engine.CheckAccess(context.Background(), PageDashboard, sc)
	if err != nil {
		t.Fatalf("CheckAccess failed: %v", err)
	}
	if d.Redirected {
		t.Fatalf("expected access, got %+v", d)
	}
	if d.Greeting != "Hello, alice!" || d.Profile.Email != "alice@example.com" {
		t.Fatalf("unexpected decision %+v", d)
	}
	if !sc.Pending() || env.clock.Pending() != 1 {
		t.Fatal("expected exactly one inactivity timer")
	}

	// a second page load on the same context replaces the timer
	if _, err := env.engine.CheckAccess(context.Background(), PageDashboard, sc); err != nil {
		t.Fatalf("CheckAccess failed: %v", err)
	}
	if env.clock.Pending() != 1 {
		t.Fatalf("expected one pending timer, got %d", env.clock.Pending())
	}
}

func TestCheckAccessGreetingFallback(t *testing.T) {
	env := newTestEnv(t, nil)
	loginAlice(t, env)
	if err := env.store.Set(context.Background(), "userData", "not-json"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	d, err := env.engine.CheckAccess(context.Background(), PageDashboard, NewSessionContext())
	if err != nil {
		t.Fatalf("CheckAccess failed: %v", err)
	}
	if d.Greeting != "Hello, User!" {
		t.Fatalf("expected fallback greeting, got %q", d.Greeting)
	}
}

func TestCheckAccessEntryPages(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	for _, page := range []Page{PageLogin, PageRegister, PageReset} {
		d, err := env.engine.CheckAccess(ctx, page, nil)
		if err != nil || d.Redirected {
			t.Fatalf("%v: expected no redirect while logged out, got %+v %v", page, d, err)
		}
	}

	loginAlice(t, env)
	for _, page := range []Page{PageLogin, PageRegister, PageReset} {
		d, err := env.engine.CheckAccess(ctx, page, nil)
		if err != nil {
			t.Fatalf("CheckAccess failed: %v", err)
		}
		if !d.Redirected || d.Target != PageDashboard {
			t.Fatalf("%v: expected redirect to dashboard, got %+v", page, d)
		}
	}

	d, err := env.engine.CheckAccess(ctx, PageOther, nil)
	if err != nil || d.Redirected {
		t.Fatalf("expected no decision for other pages, got %+v %v", d, err)
	}
}

func TestSessionExpiresAtTTL(t *testing.T) {
	env := newTestEnv(t, nil)
	loginAlice(t, env)
	ctx := context.Background()

	env.clock.Advance(10*time.Minute - time.Millisecond)
	if ok, _ := env.engine.IsLoggedIn(ctx); !ok {
		t.Fatal("expected session live just before expiry")
	}
	env.clock.Advance(time.Millisecond)
	if ok, _ := env.engine.IsLoggedIn(ctx); ok {
		t.Fatal("expected session expired at expiry")
	}
	if _, ok := env.get(t, "sessionToken"); !ok {
		t.Fatal("expected expired session not to be deleted proactively")
	}
}

func TestInactivityLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	loginAlice(t, env)
	sc := NewSessionContext()
	ctx := context.Background()

	if _, err := env.engine.CheckAccess(ctx, PageDashboard, sc); err != nil {
		t.Fatalf("CheckAccess failed: %v", err)
	}

	env.clock.Advance(9 * time.Minute)
	if err := env.engine.RecordActivity(ctx, sc); err != nil {
		t.Fatalf("RecordActivity failed: %v", err)
	}

	// the session itself expires at 10m; the timer was re-armed for 19m
	env.clock.Advance(9 * time.Minute)
	if _, ok := env.get(t, "sessionToken"); !ok {
		t.Fatal("expected keys to remain until the timer fires")
	}

	env.clock.Advance(time.Minute)
	for _, key := range []string{"sessionToken", "sessionExpiry", "userData"} {
		if _, ok := env.get(t, key); ok {
			t.Fatalf("expected %s removed by inactivity logout", key)
		}
	}
	if sc.Pending() {
		t.Fatal("expected no pending timer after logout")
	}
	if env.nav.Last() != PageLogin {
		t.Fatalf("expected navigation to login, got %v", env.nav.Last())
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricInactivityLogout]; got != 1 {
		t.Fatalf("expected inactivity metric 1, got %d", got)
	}
}

func TestRecordActivityWhileLoggedOutIsNoop(t *testing.T) {
	env := newTestEnv(t, nil)
	sc := NewSessionContext()

	if err := env.engine.RecordActivity(context.Background(), sc); err != nil {
		t.Fatalf("RecordActivity failed: %v", err)
	}
	if sc.Pending() || env.clock.Pending() != 0 {
		t.Fatal("expected no timer armed while logged out")
	}
	if err := env.engine.RecordActivity(context.Background(), nil); err != nil {
		t.Fatalf("RecordActivity with nil context failed: %v", err)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	loginAlice(t, env)
	sc := NewSessionContext()
	ctx := context.Background()

	if _, err := env.engine.CheckAccess(ctx, PageDashboard, sc); err != nil {
		t.Fatalf("CheckAccess failed: %v", err)
	}
	if err := env.engine.Logout(ctx, sc); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if ok, _ := env.engine.IsLoggedIn(ctx); ok {
		t.Fatal("expected logged out")
	}
	if sc.Pending() || env.clock.Pending() != 0 {
		t.Fatal("expected timer cancelled")
	}
	if env.nav.Last() != PageLogin {
		t.Fatalf("expected navigation to login, got %v", env.nav.Last())
	}

	// a cancelled timer never fires
	env.clock.Advance(time.Hour)
	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricLogout] != 1 || snap.Counters[MetricInactivityLogout] != 0 {
		t.Fatalf("unexpected logout metrics %+v", snap.Counters)
	}
}

func TestCheckAccessWithoutSessionManager(t *testing.T) {
	env := newTestEnv(t, nil)
	env.engine.sessions = nil

	if _, err := env.engine.CheckAccess(context.Background(), PageDashboard, nil); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}
