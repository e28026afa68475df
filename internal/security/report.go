package security

import "time"

// Limitation is one documented weakness of the client-only trust model.
type Limitation struct {
	Code    string
	Summary string
}

// PasswordReport describes the active digest settings.
type PasswordReport struct {
	Algorithm   string
	MemoryHard  bool
	SaltLength  int
	Memory      uint32
	Time        uint32
	Parallelism uint8
}

// Report is a read-only summary of the effective security posture.
type Report struct {
	Password           PasswordReport
	SessionTTL         time.Duration
	InactivityTimeout  time.Duration
	MaxFailedAttempts  int
	Cooldown           time.Duration
	OptimisticWrites   bool
	AuditEnabled       bool
	RateLimitingActive bool
	Limitations        []Limitation
}

// ReportInput is the flattened configuration the report is derived from.
type ReportInput struct {
	Password          PasswordReport
	SessionTTL        time.Duration
	InactivityTimeout time.Duration
	MaxFailedAttempts int
	Cooldown          time.Duration
	OptimisticWrites  bool
	AuditEnabled      bool
}

// BuildReport derives the report and the applicable limitations from input.
func BuildReport(input ReportInput) Report {
	r := Report{
		Password:           input.Password,
		SessionTTL:         input.SessionTTL,
		InactivityTimeout:  input.InactivityTimeout,
		MaxFailedAttempts:  input.MaxFailedAttempts,
		Cooldown:           input.Cooldown,
		OptimisticWrites:   input.OptimisticWrites,
		AuditEnabled:       input.AuditEnabled,
		RateLimitingActive: input.MaxFailedAttempts > 0 && input.Cooldown > 0,
	}

	r.Limitations = append(r.Limitations,
		Limitation{
			Code:    "client_trust",
			Summary: "the session token is a local flag; anyone who can write the store can create a session",
		},
		Limitation{
			Code:    "store_exposure",
			Summary: "digests, salts and recovery hints are readable by anyone with access to the store",
		},
		Limitation{
			Code:    "global_rate_limit",
			Summary: "the failed-attempt counter is shared by all identifiers and is cleared by deleting its keys",
		},
		Limitation{
			Code:    "stale_counter",
			Summary: "the failed-attempt counter is not cleared when the cooldown ends; the next failure blocks again",
		},
		Limitation{
			Code:    "plaintext_hint",
			Summary: "the recovery hint is stored and compared in plaintext",
		},
		Limitation{
			Code:    "non_reactive_gate",
			Summary: "page access is checked on load only; expiry on an open page is handled by the inactivity timer",
		},
	)
	if !input.Password.MemoryHard {
		r.Limitations = append(r.Limitations, Limitation{
			Code:    "fast_hash",
			Summary: "single-pass " + input.Password.Algorithm + " digests are cheap to brute force offline",
		})
	}
	if !input.OptimisticWrites {
		r.Limitations = append(r.Limitations, Limitation{
			Code:    "last_writer_wins",
			Summary: "concurrent writers to the user collection overwrite each other",
		})
	}

	return r
}
