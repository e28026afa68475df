package localauth

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"
)

func TestLoginByUsernameAndEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com")
	ctx := context.Background()

	for _, identifier := range []string{"alice", "alice@example.com"} {
		res, err := env.engine.Login(ctx, identifier, testPassword)
		if err != nil {
			t.Fatalf("Login with %q failed: %v", identifier, err)
		}
		if res.Username != "alice" || res.Email != "alice@example.com" {
			t.Fatalf("unexpected result %+v", res)
		}
		if len(res.Token) != 64 {
			t.Fatalf("expected 64 hex token chars, got %d", len(res.Token))
		}
	}
}

func TestLoginPersistsSession(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com")

	res, err := env.engine.Login(context.Background(), "alice", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if token, _ := env.get(t, "sessionToken"); token != res.Token {
		t.Fatal("expected stored token to match result")
	}
	wantExpiry := strconv.FormatInt(testStart.Add(10*time.Minute).UnixMilli(), 10)
	if expiry, _ := env.get(t, "sessionExpiry"); expiry != wantExpiry {
		t.Fatalf("expected expiry %s, got %s", wantExpiry, expiry)
	}

	raw, _ := env.get(t, "userData")
	var profile map[string]string
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		t.Fatalf("decode userData failed: %v", err)
	}
	if profile["username"] != "alice" || profile["email"] != "alice@example.com" || len(profile) != 2 {
		t.Fatalf("unexpected userData %s", raw)
	}

	ok, err := env.engine.IsLoggedIn(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected logged in, got %v %v", ok, err)
	}

	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricLoginSuccess] != 1 || snap.Counters[MetricSessionCreated] != 1 {
		t.Fatalf("unexpected metrics %+v", snap.Counters)
	}
}

func TestLoginFailuresCount(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com")
	ctx := context.Background()

	if _, err := env.engine.Login(ctx, "alice", "Wr0ng-pass!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	env.clock.Advance(time.Second)
	if _, err := env.engine.Login(ctx, "nobody", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	if v, _ := env.get(t, "failedAttempts"); v != "2" {
		t.Fatalf("expected 2 failed attempts, got %q", v)
	}
	wantLast := strconv.FormatInt(testStart.Add(time.Second).UnixMilli(), 10)
	if v, _ := env.get(t, "lastAttempt"); v != wantLast {
		t.Fatalf("expected lastAttempt %s, got %s", wantLast, v)
	}

	if _, err := env.engine.Login(ctx, "alice", testPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, ok := env.get(t, "failedAttempts"); ok {
		t.Fatal("expected failedAttempts cleared on success")
	}
	if _, ok := env.get(t, "lastAttempt"); ok {
		t.Fatal("expected lastAttempt cleared on success")
	}
}

func TestLoginRateLimitWindow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := env.engine.Login(ctx, "alice", "Wr0ng-pass!"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	_, err := env.engine.Login(ctx, "alice", testPassword)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if ErrorMessage(err) != "Too many failed attempts. Try again later." {
		t.Fatalf("unexpected message %q", ErrorMessage(err))
	}
	if v, _ := env.get(t, "failedAttempts"); v != "3" {
		t.Fatalf("expected blocked attempt not counted, got %q", v)
	}
	if _, ok := env.get(t, "sessionToken"); ok {
		t.Fatal("expected no session while blocked")
	}

	blocked, err := env.engine.LoginBlocked(ctx)
	if err != nil || !blocked {
		t.Fatalf("expected blocked, got %v %v", blocked, err)
	}

	env.clock.Advance(5*time.Minute - time.Millisecond)
	if _, err := env.engine.Login(ctx, "alice", testPassword); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited just before cooldown, got %v", err)
	}

	env.clock.Advance(time.Millisecond)
	if _, err := env.engine.Login(ctx, "alice", testPassword); err != nil {
		t.Fatalf("expected login after cooldown, got %v", err)
	}

	if got := env.engine.MetricsSnapshot().Counters[MetricLoginRateLimited]; got != 2 {
		t.Fatalf("expected rate limited metric 2, got %d", got)
	}
}

func TestLoginStaleCounterBlocksAgain(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = env.engine.Login(ctx, "alice", "Wr0ng-pass!")
	}
	env.clock.Advance(6 * time.Minute)

	if _, err := env.engine.Login(ctx, "alice", "Wr0ng-pass!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials after cooldown, got %v", err)
	}
	if v, _ := env.get(t, "failedAttempts"); v != "4" {
		t.Fatalf("expected stale counter to continue at 4, got %q", v)
	}
	if _, err := env.engine.Login(ctx, "alice", testPassword); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected immediate block, got %v", err)
	}
}

func TestLoginEmptyFieldsNotCounted(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com")

	_, err := env.engine.Login(context.Background(), "", "")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if fe := fieldErrorOf(t, err); fe.Slot() != "loginError" {
		t.Fatalf("expected loginError slot, got %q", fe.Slot())
	}
	if _, ok := env.get(t, "failedAttempts"); ok {
		t.Fatal("expected no failure counted for empty input")
	}
}

func TestLoginBlockedEmptyFieldsReportCooldown(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = env.engine.Login(ctx, "alice", "Wr0ng-pass!")
	}
	if _, err := env.engine.Login(ctx, "", "x"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited for empty identifier, got %v", err)
	}
}

func TestRegisterLoginThenLockout(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	err := env.engine.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "a@x.com",
		Password: "Str0ng!pw",
		Hint:     "petname",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := env.engine.Login(ctx, "alice", "Str0ng!pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := env.engine.Logout(ctx, nil); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := env.engine.Login(ctx, "a@x.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := env.engine.Login(ctx, "alice", "Str0ng!pw"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestLoginWrongCaseIsUnknown(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com")

	if _, err := env.engine.Login(context.Background(), "ALICE", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestHandleLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com")
	ctx := context.Background()

	err := env.engine.HandleLogin(ctx, FormValues{
		FieldLoginIdentifier: "alice",
		FieldLoginPassword:   "nope",
	})
	fe := fieldErrorOf(t, err)
	if fe.Slot() != "loginError" || ErrorMessage(err) != "Invalid username/email or password." {
		t.Fatalf("unexpected failure %q %q", fe.Slot(), ErrorMessage(err))
	}
	if env.nav.Count() != 0 {
		t.Fatal("expected no navigation on failure")
	}

	err = env.engine.HandleLogin(ctx, FormValues{
		FieldLoginIdentifier: " alice@example.com ",
		FieldLoginPassword:   testPassword,
	})
	if err != nil {
		t.Fatalf("HandleLogin failed: %v", err)
	}
	if env.nav.Last() != PageDashboard {
		t.Fatalf("expected navigation to dashboard, got %v", env.nav.Last())
	}
}

func TestLoginOverwritesPreviousSession(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com")
	env.register(t, "bob", "bob@example.com")
	ctx := context.Background()

	first, err := env.engine.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("Login alice failed: %v", err)
	}
	second, err := env.engine.Login(ctx, "bob", testPassword)
	if err != nil {
		t.Fatalf("Login bob failed: %v", err)
	}
	if first.Token == second.Token {
		t.Fatal("expected a fresh token")
	}

	profile, err := env.engine.CurrentProfile(ctx)
	if err != nil {
		t.Fatalf("CurrentProfile failed: %v", err)
	}
	if profile.Username != "bob" {
		t.Fatalf("expected bob's profile, got %+v", profile)
	}
}
