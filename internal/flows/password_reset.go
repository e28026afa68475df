package flows

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
)

// VerifyResetInput carries the trimmed phase-one fields.
type VerifyResetInput struct {
	Email string
	Hint  string
}

// ResetTarget identifies the account that passed phase one.
type ResetTarget struct {
	Username string
	Email    string
}

// PasswordResetMetrics carries metric IDs needed by both reset phases.
type PasswordResetMetrics struct {
	ResetVerifySuccess int
	ResetVerifyFailure int
	ResetSuccess       int
	ResetWeakPassword  int
}

// PasswordResetEvents carries audit event names used by both reset phases.
type PasswordResetEvents struct {
	VerifySuccess string
	VerifyFailure string
	ResetSuccess  string
	ResetFailure  string
}

// PasswordResetErrors carries host-level sentinel errors used by both reset phases.
type PasswordResetErrors struct {
	EngineNotReady      error
	InvalidVerification error
	WeakPassword        error
	NotFound            error
}

// VerifyResetDeps captures phase-one dependencies.
type VerifyResetDeps struct {
	ValidateInput func(VerifyResetInput) error
	FindByEmail   func(context.Context, string) (UserRecord, error)
	MapStoreError func(error) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics PasswordResetMetrics
	Events  PasswordResetEvents
	Errors  PasswordResetErrors
}

// ResetPasswordDeps captures phase-two dependencies.
type ResetPasswordDeps struct {
	IsWeakPassword    func(string) bool
	GenerateSalt      func() (string, error)
	HashPassword      func(password, salt string) (string, error)
	UpdateCredentials func(ctx context.Context, username, digest, salt string) error
	MapStoreError     func(error) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics PasswordResetMetrics
	Events  PasswordResetEvents
	Errors  PasswordResetErrors
}

// RunVerifyReset checks the email/hint pair. Unknown emails and wrong hints
// return the same error. Hints are compared as SHA-256 digests so the
// comparison runs over a fixed length whether or not the email exists.
func RunVerifyReset(ctx context.Context, in VerifyResetInput, deps VerifyResetDeps) (*ResetTarget, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.MapStoreError == nil {
		deps.MapStoreError = func(err error) error { return err }
	}
	if deps.FindByEmail == nil {
		return nil, deps.Errors.EngineNotReady
	}

	if deps.ValidateInput != nil {
		if err := deps.ValidateInput(in); err != nil {
			return nil, err
		}
	}

	user, err := deps.FindByEmail(ctx, in.Email)
	found := err == nil
	if err != nil && !errors.Is(err, deps.Errors.NotFound) {
		return nil, deps.MapStoreError(err)
	}

	expected := user.Hint
	if !found {
		expected = in.Hint + "\x00"
	}
	match := hintsEqual(in.Hint, expected)

	if !found || !match {
		deps.MetricInc(deps.Metrics.ResetVerifyFailure)
		deps.EmitAudit(ctx, deps.Events.VerifyFailure, false, "", deps.Errors.InvalidVerification, nil)
		return nil, deps.Errors.InvalidVerification
	}

	deps.MetricInc(deps.Metrics.ResetVerifySuccess)
	deps.EmitAudit(ctx, deps.Events.VerifySuccess, true, user.Username, nil, nil)
	return &ResetTarget{Username: user.Username, Email: user.Email}, nil
}

// RunResetPassword replaces the salt and digest of target. It never issues a session.
func RunResetPassword(ctx context.Context, target ResetTarget, newPassword string, deps ResetPasswordDeps) error {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.MapStoreError == nil {
		deps.MapStoreError = func(err error) error { return err }
	}
	if deps.IsWeakPassword == nil ||
		deps.GenerateSalt == nil ||
		deps.HashPassword == nil ||
		deps.UpdateCredentials == nil {
		return deps.Errors.EngineNotReady
	}

	if deps.IsWeakPassword(newPassword) {
		deps.MetricInc(deps.Metrics.ResetWeakPassword)
		deps.EmitAudit(ctx, deps.Events.ResetFailure, false, target.Username, deps.Errors.WeakPassword, reasonMeta("weak_password"))
		return deps.Errors.WeakPassword
	}

	salt, err := deps.GenerateSalt()
	if err != nil {
		return err
	}
	digest, err := deps.HashPassword(newPassword, salt)
	if err != nil {
		return err
	}

	if err := deps.UpdateCredentials(ctx, target.Username, digest, salt); err != nil {
		if errors.Is(err, deps.Errors.NotFound) {
			deps.EmitAudit(ctx, deps.Events.ResetFailure, false, target.Username, deps.Errors.InvalidVerification, reasonMeta("account_missing"))
			return deps.Errors.InvalidVerification
		}
		return deps.MapStoreError(err)
	}

	deps.MetricInc(deps.Metrics.ResetSuccess)
	deps.EmitAudit(ctx, deps.Events.ResetSuccess, true, target.Username, nil, nil)
	return nil
}

func hintsEqual(given, expected string) bool {
	a := sha256.Sum256([]byte(given))
	b := sha256.Sum256([]byte(expected))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
