package localauth

import (
	"context"
	"errors"

	internalaudit "github.com/MrEthical07/localauth/internal/audit"
)

type (
	// AuditEvent is one security-relevant record. It never carries passwords,
	// hints, salts, digests or session tokens.
	AuditEvent = internalaudit.Event
	// AuditSink receives audit events from the dispatcher goroutine.
	AuditSink = internalaudit.Sink
	// NoOpSink drops every event.
	NoOpSink = internalaudit.NoOpSink
	// ChannelSink forwards events into a buffered channel.
	ChannelSink = internalaudit.ChannelSink
	// JSONWriterSink writes one JSON object per line.
	JSONWriterSink = internalaudit.JSONWriterSink
	// SlogSink logs events through log/slog.
	SlogSink = internalaudit.SlogSink
)

var (
	NewChannelSink    = internalaudit.NewChannelSink
	NewJSONWriterSink = internalaudit.NewJSONWriterSink
	NewSlogSink       = internalaudit.NewSlogSink
)

const (
	auditEventRegisterSuccess    = "register_success"
	auditEventRegisterFailure    = "register_failure"
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginRateLimited   = "login_rate_limited"
	auditEventLogout             = "logout"
	auditEventInactivityTimeout  = "inactivity_timeout"
	auditEventResetVerifySuccess = "reset_verify_success"
	auditEventResetVerifyFailure = "reset_verify_failure"
	auditEventResetSuccess       = "reset_success"
	auditEventResetFailure       = "reset_failure"
	auditEventAccessRedirect     = "access_redirect"
	auditEventStateMalformed     = "state_malformed"
)

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *internalaudit.Dispatcher {
	return internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Enabled,
		BufferSize: cfg.BufferSize,
		DropIfFull: cfg.DropIfFull,
	}, sink)
}

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, username string, err error, metadata func() map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: e.clock.Now().UTC(),
		EventType: eventType,
		RequestID: requestIDFromContext(ctx),
		Username:  username,
		Success:   success,
	}
	if err != nil {
		event.Error = auditErrorCode(err)
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDuplicateUsername):
		return "duplicate_username"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrWeakPassword):
		return "weak_password"
	case errors.Is(err, ErrInvalidVerification):
		return "invalid_verification"
	case errors.Is(err, ErrCryptoUnavailable):
		return "crypto_unavailable"
	case errors.Is(err, ErrMalformedPersistedState):
		return "malformed_state"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal_error"
	}
}
