package flows

import (
	"context"
	"errors"
)

// RegisterInput carries trimmed registration fields. Password is untrimmed.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Hint     string
}

// RegisterMetrics carries metric IDs needed by the registration flow.
type RegisterMetrics struct {
	RegisterSuccess   int
	RegisterDuplicate int
	RegisterRejected  int
}

// RegisterEvents carries audit event names used by the registration flow.
type RegisterEvents struct {
	RegisterSuccess string
	RegisterFailure string
}

// RegisterErrors carries host-level sentinel errors used by the registration flow.
type RegisterErrors struct {
	EngineNotReady    error
	WeakPassword      error
	DuplicateUsername error
	DuplicateEmail    error
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	ValidateInput  func(RegisterInput) error
	IsWeakPassword func(string) bool
	UsernameTaken  func(context.Context, string) (bool, error)
	GenerateSalt   func() (string, error)
	HashPassword   func(password, salt string) (string, error)
	SaveUser       func(context.Context, UserRecord) error
	MapStoreError  func(error) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics RegisterMetrics
	Events  RegisterEvents
	Errors  RegisterErrors
}

// RunRegister validates the input, derives the salted digest and appends the
// new account.
func RunRegister(ctx context.Context, in RegisterInput, deps RegisterDeps) error {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.MapStoreError == nil {
		deps.MapStoreError = func(err error) error { return err }
	}
	if deps.ValidateInput == nil ||
		deps.IsWeakPassword == nil ||
		deps.UsernameTaken == nil ||
		deps.GenerateSalt == nil ||
		deps.HashPassword == nil ||
		deps.SaveUser == nil {
		return deps.Errors.EngineNotReady
	}

	if err := deps.ValidateInput(in); err != nil {
		deps.MetricInc(deps.Metrics.RegisterRejected)
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, in.Username, err, reasonMeta("invalid_input"))
		return err
	}

	if deps.IsWeakPassword(in.Password) {
		deps.MetricInc(deps.Metrics.RegisterRejected)
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, in.Username, deps.Errors.WeakPassword, reasonMeta("weak_password"))
		return deps.Errors.WeakPassword
	}

	taken, err := deps.UsernameTaken(ctx, in.Username)
	if err != nil {
		return deps.MapStoreError(err)
	}
	if taken {
		deps.MetricInc(deps.Metrics.RegisterDuplicate)
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, in.Username, deps.Errors.DuplicateUsername, reasonMeta("duplicate_username"))
		return deps.Errors.DuplicateUsername
	}

	salt, err := deps.GenerateSalt()
	if err != nil {
		return err
	}
	digest, err := deps.HashPassword(in.Password, salt)
	if err != nil {
		return err
	}

	err = deps.SaveUser(ctx, UserRecord{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: digest,
		Salt:         salt,
		Hint:         in.Hint,
	})
	if err != nil {
		err = deps.MapStoreError(err)
		if errors.Is(err, deps.Errors.DuplicateUsername) || errors.Is(err, deps.Errors.DuplicateEmail) {
			deps.MetricInc(deps.Metrics.RegisterDuplicate)
			deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, in.Username, err, reasonMeta("duplicate"))
		}
		return err
	}

	deps.MetricInc(deps.Metrics.RegisterSuccess)
	deps.EmitAudit(ctx, deps.Events.RegisterSuccess, true, in.Username, nil, nil)
	return nil
}
