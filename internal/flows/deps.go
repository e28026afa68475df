package flows

import "context"

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Register      RegisterDeps
	Login         LoginDeps
	VerifyReset   VerifyResetDeps
	ResetPassword ResetPasswordDeps
}

// UserRecord is the flow-local view of a stored account.
type UserRecord struct {
	Username     string
	Email        string
	PasswordHash string
	Salt         string
	Hint         string
}

// AuditFunc emits one audit event. meta is evaluated lazily.
type AuditFunc func(ctx context.Context, eventType string, success bool, username string, err error, meta func() map[string]string)

func noopAudit(context.Context, string, bool, string, error, func() map[string]string) {}

func noopMetric(int) {}

func noopWarn(string, ...any) {}

func reasonMeta(reason string) func() map[string]string {
	return func() map[string]string {
		return map[string]string{"reason": reason}
	}
}
