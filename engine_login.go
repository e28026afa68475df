package localauth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/MrEthical07/localauth/internal/flows"
	"github.com/MrEthical07/localauth/internal/rate"
	"github.com/MrEthical07/localauth/internal/stores"
	"github.com/MrEthical07/localauth/session"
)

// LoginResult describes the session issued by a successful login.
type LoginResult struct {
	Username string
	Email    string
	Token    string
	Expiry   time.Time
}

// Login matches identifier against usernames and emails, verifies password
// and stores a new session.
//
// While the global failed-attempt gate is closed Login returns
// [ErrRateLimited] without touching credentials. An unknown identifier and a
// wrong password both return [ErrInvalidCredentials] and count one failure.
func (e *Engine) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	if e == nil || e.credentials == nil || e.sessions == nil || e.limiter == nil {
		return nil, ErrEngineNotReady
	}

	res, err := flows.RunLogin(ctx, flows.LoginInput{
		Identifier: identifier,
		Password:   password,
	}, e.loginDeps())
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Username: res.Username,
		Email:    res.Email,
		Token:    res.Token,
		Expiry:   res.Expiry,
	}, nil
}

func (e *Engine) loginDeps() flows.LoginDeps {
	return flows.LoginDeps{
		ValidateInput: func(in flows.LoginInput) error {
			return e.validateStruct(loginForm{
				Identifier: in.Identifier,
				Password:   in.Password,
			}, slotLogin)
		},
		CheckLoginRate: func(ctx context.Context) error {
			err := e.limiter.Check(ctx)
			if errors.Is(err, rate.ErrRateLimited) {
				return ErrRateLimited
			}
			return err
		},
		RecordFailure:  e.limiter.RecordFailure,
		ResetLoginRate: e.limiter.Reset,
		FindUser: func(ctx context.Context, identifier string) (flows.UserRecord, error) {
			u, err := e.credentials.FindByIdentifier(ctx, identifier)
			if err != nil {
				return flows.UserRecord{}, err
			}
			return fromStoreRecord(u), nil
		},
		VerifyPassword: e.verifyPassword,
		IssueSession: func(ctx context.Context, u flows.UserRecord) (string, time.Time, error) {
			rec, err := e.sessions.Login(ctx, session.Profile{
				Username: u.Username,
				Email:    u.Email,
			})
			if err != nil {
				return "", time.Time{}, mapStoreError(err)
			}
			return rec.Token, rec.Expiry, nil
		},
		MapStoreError: mapStoreError,
		MetricInc:     e.flowMetric,
		EmitAudit:     e.flowAudit,
		Warn:          log.Printf,
		Metrics: flows.LoginMetrics{
			LoginSuccess:     int(MetricLoginSuccess),
			LoginFailure:     int(MetricLoginFailure),
			LoginRateLimited: int(MetricLoginRateLimited),
			SessionCreated:   int(MetricSessionCreated),
		},
		Events: flows.LoginEvents{
			LoginSuccess:     auditEventLoginSuccess,
			LoginFailure:     auditEventLoginFailure,
			LoginRateLimited: auditEventLoginRateLimited,
		},
		Errors: flows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			InvalidCredentials: ErrInvalidCredentials,
			RateLimited:        ErrRateLimited,
			NotFound:           stores.ErrNotFound,
		},
	}
}
