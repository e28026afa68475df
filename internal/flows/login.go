package flows

import (
	"context"
	"errors"
	"time"
)

// LoginInput carries the trimmed identifier and the raw password.
type LoginInput struct {
	Identifier string
	Password   string
}

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	Username string
	Email    string
	Token    string
	Expiry   time.Time
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginRateLimited int
	SessionCreated   int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	RateLimited        error
	NotFound           error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	ValidateInput  func(LoginInput) error
	CheckLoginRate func(context.Context) error
	RecordFailure  func(context.Context) (int64, error)
	ResetLoginRate func(context.Context) error
	FindUser       func(context.Context, string) (UserRecord, error)
	VerifyPassword func(password, salt, digest string) (bool, error)
	IssueSession   func(context.Context, UserRecord) (string, time.Time, error)
	MapStoreError  func(error) error

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      func(string, ...any)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin gates on the global failure counter, checks the credentials and
// issues a session. The gate runs before input validation, so a blocked
// login reports the cooldown even for an empty form.
func RunLogin(ctx context.Context, in LoginInput, deps LoginDeps) (*LoginResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.Warn == nil {
		deps.Warn = noopWarn
	}
	if deps.MapStoreError == nil {
		deps.MapStoreError = func(err error) error { return err }
	}
	if deps.CheckLoginRate == nil ||
		deps.RecordFailure == nil ||
		deps.ResetLoginRate == nil ||
		deps.FindUser == nil ||
		deps.VerifyPassword == nil ||
		deps.IssueSession == nil {
		return nil, deps.Errors.EngineNotReady
	}

	if err := deps.CheckLoginRate(ctx); err != nil {
		if errors.Is(err, deps.Errors.RateLimited) {
			deps.MetricInc(deps.Metrics.LoginRateLimited)
			deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, "", deps.Errors.RateLimited, func() map[string]string {
				return map[string]string{
					"identifier": in.Identifier,
				}
			})
			return nil, deps.Errors.RateLimited
		}
		return nil, deps.MapStoreError(err)
	}

	if deps.ValidateInput != nil {
		if err := deps.ValidateInput(in); err != nil {
			return nil, err
		}
	}

	user, err := deps.FindUser(ctx, in.Identifier)
	if err != nil {
		if !errors.Is(err, deps.Errors.NotFound) {
			return nil, deps.MapStoreError(err)
		}
		return nil, loginFailed(ctx, in.Identifier, "user_not_found", deps)
	}

	ok, err := deps.VerifyPassword(in.Password, user.Salt, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, loginFailed(ctx, in.Identifier, "password_mismatch", deps)
	}

	token, expiry, err := deps.IssueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	deps.MetricInc(deps.Metrics.SessionCreated)

	if err := deps.ResetLoginRate(ctx); err != nil {
		deps.Warn("localauth: failed-attempt counter reset failed: %v", err)
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, user.Username, nil, nil)

	return &LoginResult{
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
		Expiry:   expiry,
	}, nil
}

func loginFailed(ctx context.Context, identifier, reason string, deps LoginDeps) error {
	if _, err := deps.RecordFailure(ctx); err != nil {
		deps.Warn("localauth: failed-attempt counter update failed: %v", err)
	}
	deps.MetricInc(deps.Metrics.LoginFailure)
	deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", deps.Errors.InvalidCredentials, func() map[string]string {
		return map[string]string{
			"identifier": identifier,
			"reason":     reason,
		}
	})
	return deps.Errors.InvalidCredentials
}
