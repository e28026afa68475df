package localauth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestVerifyResetRejectsUniformly(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com")
	ctx := context.Background()

	cases := []struct {
		email string
		hint  string
	}{
		{email: "alice@example.com", hint: "red"},
		{email: "alice@example.com", hint: "Blue"},
		{email: "nobody@example.com", hint: "blue"},
		{email: "alice", hint: "blue"},
	}
	for _, tc := range cases {
		pending, err := env.engine.VerifyReset(ctx, tc.email, tc.hint)
		if !errors.Is(err, ErrInvalidVerification) {
			t.Fatalf("%s/%s: expected ErrInvalidVerification, got %v", tc.email, tc.hint, err)
		}
		if pending != nil {
			t.Fatalf("%s/%s: expected nil pending", tc.email, tc.hint)
		}
		if ErrorMessage(err) != "Invalid email or hint." {
			t.Fatalf("unexpected message %q", ErrorMessage(err))
		}
	}

	if got := env.engine.MetricsSnapshot().Counters[MetricResetVerifyFailure]; got != uint64(len(cases)) {
		t.Fatalf("expected %d verify failures, got %d", len(cases), got)
	}
}

func TestResetPasswordFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com")
	ctx := context.Background()
	before := readUsers(t, env)[0]

	pending, err := env.engine.VerifyReset(ctx, "alice@example.com", "blue")
	if err != nil {
		t.Fatalf("VerifyReset failed: %v", err)
	}
	if _, err := uuid.Parse(pending.ID); err != nil {
		t.Fatalf("expected uuid pending id, got %q", pending.ID)
	}
	if pending.Email() != "alice@example.com" || !pending.Usable() {
		t.Fatal("expected usable pending reset for alice")
	}

	if err := env.engine.ResetPassword(ctx, pending, "weakpass"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if !pending.Usable() {
		t.Fatal("expected pending to survive a weak password")
	}

	const newPassword = "N3w-Passw0rd"
	if err := env.engine.ResetPassword(ctx, pending, newPassword); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if pending.Usable() {
		t.Fatal("expected pending consumed")
	}

	after := readUsers(t, env)[0]
	if after.Salt == before.Salt || after.PasswordHash == before.PasswordHash {
		t.Fatal("expected new salt and digest")
	}
	if after.Hint != before.Hint || after.Email != before.Email {
		t.Fatal("expected hint and email untouched")
	}

	if _, ok := env.get(t, "sessionToken"); ok {
		t.Fatal("expected reset not to issue a session")
	}

	if _, err := env.engine.Login(ctx, "alice", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	if _, err := env.engine.Login(ctx, "alice", newPassword); err != nil {
		t.Fatalf("expected new password accepted, got %v", err)
	}

	if err := env.engine.ResetPassword(ctx, pending, "An0ther-Passw0rd"); !errors.Is(err, ErrInvalidVerification) {
		t.Fatalf("expected ErrInvalidVerification on reuse, got %v", err)
	}
	if err := env.engine.ResetPassword(ctx, nil, "An0ther-Passw0rd"); !errors.Is(err, ErrInvalidVerification) {
		t.Fatalf("expected ErrInvalidVerification for nil pending, got %v", err)
	}

	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricResetSuccess] != 1 || snap.Counters[MetricResetWeakPassword] != 1 {
		t.Fatalf("unexpected reset metrics %+v", snap.Counters)
	}
}

func TestResetPasswordConcurrentUseConsumesOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com")
	ctx := context.Background()

	pending, err := env.engine.VerifyReset(ctx, "alice@example.com", "blue")
	if err != nil {
		t.Fatalf("VerifyReset failed: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- env.engine.ResetPassword(ctx, pending, "N3w-Passw0rd")
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInvalidVerification):
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one successful reset, got %d", succeeded)
	}
}

func TestHandleVerifyAndNewPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com")
	ctx := context.Background()

	_, err := env.engine.HandleVerify(ctx, FormValues{
		FieldResetEmail: "alice@example.com",
		FieldResetHint:  "green",
	})
	if fe := fieldErrorOf(t, err); fe.Slot() != "verifyError" {
		t.Fatalf("expected verifyError slot, got %q", fe.Slot())
	}

	pending, err := env.engine.HandleVerify(ctx, FormValues{
		FieldResetEmail: " alice@example.com ",
		FieldResetHint:  " blue",
	})
	if err != nil {
		t.Fatalf("HandleVerify failed: %v", err)
	}
	if env.nav.Count() != 0 {
		t.Fatal("expected verification to stay on the reset page")
	}

	err = env.engine.HandleNewPassword(ctx, pending, FormValues{FieldNewPassword: "weak"})
	fe := fieldErrorOf(t, err)
	if fe.Slot() != "newPasswordError" || ErrorMessage(err) != "Password is too weak." {
		t.Fatalf("unexpected failure %q %q", fe.Slot(), ErrorMessage(err))
	}

	if err := env.engine.HandleNewPassword(ctx, pending, FormValues{FieldNewPassword: "N3w-Passw0rd"}); err != nil {
		t.Fatalf("HandleNewPassword failed: %v", err)
	}
	if env.nav.Last() != PageLogin {
		t.Fatalf("expected navigation to login, got %v", env.nav.Last())
	}
}
