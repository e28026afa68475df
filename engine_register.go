package localauth

import (
	"context"
	"errors"

	"github.com/MrEthical07/localauth/internal/flows"
	"github.com/MrEthical07/localauth/internal/stores"
)

// RegisterInput carries the registration form values. Callers trim every field
// except Password.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Hint     string
}

// Register validates in, derives a salted digest and appends the account.
//
// Failures are returned as *[FieldError] naming the offending field: "" for
// missing values, "email" for a bad format or taken email, "password" for a
// weak password and "username" for a taken username.
func (e *Engine) Register(ctx context.Context, in RegisterInput) error {
	if e == nil || e.credentials == nil {
		return ErrEngineNotReady
	}

	err := flows.RunRegister(ctx, flows.RegisterInput{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		Hint:     in.Hint,
	}, e.registerDeps())
	return registerFieldError(err)
}

func (e *Engine) registerDeps() flows.RegisterDeps {
	return flows.RegisterDeps{
		ValidateInput: func(in flows.RegisterInput) error {
			return e.validateStruct(registerForm{
				Username: in.Username,
				Email:    in.Email,
				Password: in.Password,
				Hint:     in.Hint,
			}, "")
		},
		IsWeakPassword: isWeakPassword,
		UsernameTaken:  e.credentials.UsernameTaken,
		GenerateSalt:   e.generateSalt,
		HashPassword:   e.hashPassword,
		SaveUser: func(ctx context.Context, u flows.UserRecord) error {
			return e.credentials.Register(ctx, toStoreRecord(u))
		},
		MapStoreError: mapStoreError,
		MetricInc:     e.flowMetric,
		EmitAudit:     e.flowAudit,
		Metrics: flows.RegisterMetrics{
			RegisterSuccess:   int(MetricRegisterSuccess),
			RegisterDuplicate: int(MetricRegisterDuplicate),
			RegisterRejected:  int(MetricRegisterRejected),
		},
		Events: flows.RegisterEvents{
			RegisterSuccess: auditEventRegisterSuccess,
			RegisterFailure: auditEventRegisterFailure,
		},
		Errors: flows.RegisterErrors{
			EngineNotReady:    ErrEngineNotReady,
			WeakPassword:      ErrWeakPassword,
			DuplicateUsername: ErrDuplicateUsername,
			DuplicateEmail:    ErrDuplicateEmail,
		},
	}
}

func registerFieldError(err error) error {
	var fe *FieldError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &fe):
		return err
	case errors.Is(err, ErrWeakPassword):
		return &FieldError{Field: FieldPassword, Err: err}
	case errors.Is(err, ErrDuplicateUsername):
		return &FieldError{Field: FieldUsername, Err: err}
	case errors.Is(err, ErrDuplicateEmail):
		return &FieldError{Field: FieldEmail, Err: err}
	default:
		return err
	}
}

func toStoreRecord(u flows.UserRecord) stores.UserRecord {
	return stores.UserRecord{
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Salt:         u.Salt,
		Hint:         u.Hint,
	}
}

func fromStoreRecord(u stores.UserRecord) flows.UserRecord {
	return flows.UserRecord{
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Salt:         u.Salt,
		Hint:         u.Hint,
	}
}
