package localauth

import (
	"github.com/MrEthical07/localauth/internal/security"
)

type (
	// SecurityReport summarizes the effective security posture.
	SecurityReport = security.Report
	// Limitation is one documented weakness of the client-only trust model.
	Limitation = security.Limitation
)

// SecurityReport derives the posture from the engine configuration.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	argon := e.config.Password.Algorithm == AlgorithmArgon2id
	pw := security.PasswordReport{
		Algorithm:  e.config.Password.Algorithm,
		MemoryHard: argon,
		SaltLength: e.config.Password.SaltLength,
	}
	if argon {
		pw.Memory = e.config.Password.Memory
		pw.Time = e.config.Password.Time
		pw.Parallelism = e.config.Password.Parallelism
	}

	return security.BuildReport(security.ReportInput{
		Password:          pw,
		SessionTTL:        e.config.Session.TTL,
		InactivityTimeout: e.config.Session.InactivityTimeout,
		MaxFailedAttempts: e.config.RateLimit.MaxFailedAttempts,
		Cooldown:          e.config.RateLimit.Cooldown,
		OptimisticWrites:  e.credentials != nil && e.credentials.Optimistic(),
		AuditEnabled:      e.audit != nil,
	})
}

// Limitations lists the known weaknesses of the client-only trust model for
// the current configuration.
func (e *Engine) Limitations() []Limitation {
	return e.SecurityReport().Limitations
}
