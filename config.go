package localauth

import (
	"errors"
	"time"

	"github.com/MrEthical07/localauth/password"
	"github.com/MrEthical07/localauth/session"
)

// Config is the complete engine configuration. Start from [DefaultConfig]
// and override individual fields.
type Config struct {
	Session     SessionConfig
	RateLimit   RateLimitConfig
	Password    PasswordConfig
	Credentials CredentialsConfig
	Store       StoreConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls token lifetime and the inactivity logout.
type SessionConfig struct {
	TTL               time.Duration
	InactivityTimeout time.Duration
	TokenBytes        int
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig controls the global failed-login gate.
type RateLimitConfig struct {
	MaxFailedAttempts int
	Cooldown          time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// Supported password digest algorithms.
const (
	AlgorithmSHA256   = "sha256"
	AlgorithmArgon2id = "argon2id"
)

// PasswordConfig selects the digest algorithm. Memory, Time and Parallelism
// apply to argon2id only. Switching Algorithm invalidates stored digests.
type PasswordConfig struct {
	Algorithm   string
	SaltLength  int
	Memory      uint32
	Time        uint32
	Parallelism uint8
}

/*
====================================
CREDENTIALS CONFIG
====================================
*/

// CredentialsConfig controls how the user collection is written back.
type CredentialsConfig struct {
	OptimisticWrites bool
	MaxWriteRetries  int
}

/*
====================================
STORE CONFIG
====================================
*/

// Supported persisted store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// StoreConfig describes the store opened by Build when no store is supplied
// through [Builder.WithStore].
type StoreConfig struct {
	Backend       string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters and the hash latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration that reproduces the documented
// behavior: 10 minute sessions and inactivity timeout, three failures per
// five minute window, salted SHA-256 digests, in-memory store.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			TTL:               session.DefaultTTL,
			InactivityTimeout: session.DefaultInactivityTimeout,
			TokenBytes:        session.DefaultTokenBytes,
		},
		RateLimit: RateLimitConfig{
			MaxFailedAttempts: 3,
			Cooldown:          5 * time.Minute,
		},
		Password: PasswordConfig{
			Algorithm:   AlgorithmSHA256,
			SaltLength:  password.DefaultSaltLength,
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
		},
		Credentials: CredentialsConfig{
			OptimisticWrites: false,
			MaxWriteRetries:  4,
		},
		Store: StoreConfig{
			Backend:     StoreMemory,
			RedisPrefix: "localauth",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// Config holds only value fields today; the copy is kept as the single
// place to deep-copy if that changes.
func cloneConfig(cfg Config) Config {
	return cfg
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.InactivityTimeout <= 0 {
		return errors.New("Session InactivityTimeout must be > 0")
	}
	if c.Session.TokenBytes < 16 {
		return errors.New("Session TokenBytes must be >= 16")
	}

	if c.RateLimit.MaxFailedAttempts <= 0 {
		return errors.New("RateLimit MaxFailedAttempts must be > 0")
	}
	if c.RateLimit.Cooldown <= 0 {
		return errors.New("RateLimit Cooldown must be > 0")
	}

	switch c.Password.Algorithm {
	case AlgorithmSHA256:
	case AlgorithmArgon2id:
		if c.Password.Memory < 8*1024 {
			return errors.New("Password Memory must be >= 8192 KB")
		}
		if c.Password.Time < 1 {
			return errors.New("Password Time must be >= 1")
		}
		if c.Password.Parallelism < 1 {
			return errors.New("Password Parallelism must be >= 1")
		}
	default:
		return errors.New("Password Algorithm must be 'sha256' or 'argon2id'")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}

	if c.Credentials.MaxWriteRetries < 0 {
		return errors.New("Credentials MaxWriteRetries must be >= 0")
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("Store SQLitePath is required for the sqlite backend")
		}
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("Store RedisAddr is required for the redis backend")
		}
	default:
		return errors.New("Store Backend must be 'memory', 'sqlite' or 'redis'")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
