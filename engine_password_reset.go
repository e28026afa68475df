package localauth

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/MrEthical07/localauth/internal/flows"
	"github.com/MrEthical07/localauth/internal/stores"
	"github.com/google/uuid"
)

// PendingReset is the in-memory result of a passed verification. It is never
// persisted, so a restart forces verification again. It is consumed by the
// first successful [Engine.ResetPassword].
type PendingReset struct {
	ID string

	target   flows.ResetTarget
	inFlight atomic.Bool
	consumed atomic.Bool
}

// Email returns the verified email address.
func (p *PendingReset) Email() string {
	if p == nil {
		return ""
	}
	return p.target.Email
}

// Usable reports whether the reset can still be completed.
func (p *PendingReset) Usable() bool {
	return p != nil && p.target.Username != "" && !p.consumed.Load()
}

func (p *PendingReset) claim() bool {
	if p == nil || !p.inFlight.CompareAndSwap(false, true) {
		return false
	}
	if !p.Usable() {
		p.inFlight.Store(false)
		return false
	}
	return true
}

func (p *PendingReset) release(consumed bool) {
	if consumed {
		p.consumed.Store(true)
	}
	p.inFlight.Store(false)
}

// VerifyReset checks an email and its recovery hint. Unknown emails and wrong
// hints both return [ErrInvalidVerification].
func (e *Engine) VerifyReset(ctx context.Context, email, hint string) (*PendingReset, error) {
	if e == nil || e.credentials == nil {
		return nil, ErrEngineNotReady
	}

	target, err := flows.RunVerifyReset(ctx, flows.VerifyResetInput{
		Email: email,
		Hint:  hint,
	}, e.verifyResetDeps())
	if err != nil {
		return nil, err
	}
	return &PendingReset{
		ID:     uuid.NewString(),
		target: *target,
	}, nil
}

// ResetPassword replaces the password of the account behind pending. A weak
// password returns [ErrWeakPassword] and leaves pending usable; a nil, consumed
// or concurrently used pending returns [ErrInvalidVerification]. No session is
// issued.
func (e *Engine) ResetPassword(ctx context.Context, pending *PendingReset, newPassword string) error {
	if e == nil || e.credentials == nil {
		return ErrEngineNotReady
	}
	if !pending.claim() {
		e.emitAudit(ctx, auditEventResetFailure, false, "", ErrInvalidVerification, func() map[string]string {
			return map[string]string{"reason": "pending_unusable"}
		})
		return ErrInvalidVerification
	}

	err := flows.RunResetPassword(ctx, pending.target, newPassword, e.resetPasswordDeps())
	pending.release(err == nil || errors.Is(err, ErrInvalidVerification))
	return err
}

var (
	resetMetrics = flows.PasswordResetMetrics{
		ResetVerifySuccess: int(MetricResetVerifySuccess),
		ResetVerifyFailure: int(MetricResetVerifyFailure),
		ResetSuccess:       int(MetricResetSuccess),
		ResetWeakPassword:  int(MetricResetWeakPassword),
	}
	resetEvents = flows.PasswordResetEvents{
		VerifySuccess: auditEventResetVerifySuccess,
		VerifyFailure: auditEventResetVerifyFailure,
		ResetSuccess:  auditEventResetSuccess,
		ResetFailure:  auditEventResetFailure,
	}
	resetErrors = flows.PasswordResetErrors{
		EngineNotReady:      ErrEngineNotReady,
		InvalidVerification: ErrInvalidVerification,
		WeakPassword:        ErrWeakPassword,
		NotFound:            stores.ErrNotFound,
	}
)

func (e *Engine) verifyResetDeps() flows.VerifyResetDeps {
	return flows.VerifyResetDeps{
		FindByEmail: func(ctx context.Context, email string) (flows.UserRecord, error) {
			u, err := e.credentials.FindByEmail(ctx, email)
			if err != nil {
				return flows.UserRecord{}, err
			}
			return fromStoreRecord(u), nil
		},
		MapStoreError: mapStoreError,
		MetricInc:     e.flowMetric,
		EmitAudit:     e.flowAudit,
		Metrics:       resetMetrics,
		Events:        resetEvents,
		Errors:        resetErrors,
	}
}

func (e *Engine) resetPasswordDeps() flows.ResetPasswordDeps {
	return flows.ResetPasswordDeps{
		IsWeakPassword:    isWeakPassword,
		GenerateSalt:      e.generateSalt,
		HashPassword:      e.hashPassword,
		UpdateCredentials: e.credentials.UpdateCredentials,
		MapStoreError:     mapStoreError,
		MetricInc:         e.flowMetric,
		EmitAudit:         e.flowAudit,
		Metrics:           resetMetrics,
		Events:            resetEvents,
		Errors:            resetErrors,
	}
}
