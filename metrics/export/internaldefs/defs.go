package internaldefs

import (
	"context"

	"github.com/MrEthical07/localauth"
)

// CounterDef binds a counter metric ID to its exported name.
type CounterDef struct {
	ID   localauth.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram metric ID to its exported name.
type HistogramDef struct {
	ID   localauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter in export order.
var CounterDefs = []CounterDef{
	{ID: localauth.MetricRegisterSuccess, Name: "localauth_register_success_total", Help: "Successful registrations."},
	{ID: localauth.MetricRegisterDuplicate, Name: "localauth_register_duplicate_total", Help: "Registrations rejected for a duplicate username or email."},
	{ID: localauth.MetricRegisterRejected, Name: "localauth_register_rejected_total", Help: "Registrations rejected by validation or password strength."},
	{ID: localauth.MetricLoginSuccess, Name: "localauth_login_success_total", Help: "Successful login attempts."},
	{ID: localauth.MetricLoginFailure, Name: "localauth_login_failure_total", Help: "Failed login attempts."},
	{ID: localauth.MetricLoginRateLimited, Name: "localauth_login_rate_limited_total", Help: "Login attempts refused during the cooldown window."},
	{ID: localauth.MetricSessionCreated, Name: "localauth_session_created_total", Help: "Created sessions."},
	{ID: localauth.MetricLogout, Name: "localauth_logout_total", Help: "Explicit logout operations."},
	{ID: localauth.MetricInactivityLogout, Name: "localauth_inactivity_logout_total", Help: "Logouts triggered by the inactivity timer."},
	{ID: localauth.MetricAccessRedirect, Name: "localauth_access_redirect_total", Help: "Page loads redirected by the access gate."},
	{ID: localauth.MetricResetVerifySuccess, Name: "localauth_reset_verify_success_total", Help: "Successful email and hint verifications."},
	{ID: localauth.MetricResetVerifyFailure, Name: "localauth_reset_verify_failure_total", Help: "Failed email and hint verifications."},
	{ID: localauth.MetricResetSuccess, Name: "localauth_reset_success_total", Help: "Completed password resets."},
	{ID: localauth.MetricResetWeakPassword, Name: "localauth_reset_weak_password_total", Help: "Password resets rejected for a weak password."},
	{ID: localauth.MetricMalformedState, Name: "localauth_malformed_state_total", Help: "Persisted values that failed to decode."},
}

// HistogramDefs lists every histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: localauth.MetricHashLatency, Name: "localauth_hash_latency_seconds", Help: "Password hashing latency histogram."},
}

// GaugeKind selects the engine state a gauge reflects.
type GaugeKind int

const (
	GaugeLoginBlocked GaugeKind = iota
	GaugeSessionActive
)

// GaugeDef binds a live engine state to its exported name.
type GaugeDef struct {
	Kind GaugeKind
	Name string
	Help string
}

// GaugeDefs lists every state gauge in export order.
var GaugeDefs = []GaugeDef{
	{Kind: GaugeLoginBlocked, Name: "localauth_login_blocked", Help: "1 while the failed-attempt cooldown refuses logins."},
	{Kind: GaugeSessionActive, Name: "localauth_session_active", Help: "1 while a non-expired session token is stored."},
}

// AuditDeliveredName and AuditDroppedName are the dispatcher counters.
const (
	AuditDeliveredName = "localauth_audit_delivered_total"
	AuditDroppedName   = "localauth_audit_dropped_total"
)

// StateSource exposes the engine state sampled at scrape time.
type StateSource interface {
	LoginBlocked(ctx context.Context) (bool, error)
	IsLoggedIn(ctx context.Context) (bool, error)
}

// ReadGauge samples kind from src as 0 or 1.
func ReadGauge(ctx context.Context, src StateSource, kind GaugeKind) (int64, error) {
	var (
		on  bool
		err error
	)
	switch kind {
	case GaugeLoginBlocked:
		on, err = src.LoginBlocked(ctx)
	case GaugeSessionActive:
		on, err = src.IsLoggedIn(ctx)
	}
	if err != nil || !on {
		return 0, err
	}
	return 1, nil
}

// HistogramBounds are the upper bounds of the eight latency buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix holds instrument-name-safe forms of HistogramBounds.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling
// missing entries.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
