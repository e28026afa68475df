package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/MrEthical07/localauth"
)

// duration decodes TOML strings such as "10m" or "90s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// fileConfig is the on-disk TOML layout. Zero values keep the defaults.
type fileConfig struct {
	Store struct {
		Backend       string `toml:"backend"`
		SQLitePath    string `toml:"sqlite_path"`
		RedisAddr     string `toml:"redis_addr"`
		RedisPassword string `toml:"redis_password"`
		RedisDB       int    `toml:"redis_db"`
		RedisPrefix   string `toml:"redis_prefix"`
	} `toml:"store"`

	Session struct {
		TTL               duration `toml:"ttl"`
		InactivityTimeout duration `toml:"inactivity_timeout"`
	} `toml:"session"`

	RateLimit struct {
		MaxFailedAttempts int      `toml:"max_failed_attempts"`
		Cooldown          duration `toml:"cooldown"`
	} `toml:"rate_limit"`

	Password struct {
		Algorithm   string `toml:"algorithm"`
		SaltLength  int    `toml:"salt_length"`
		MemoryKiB   uint32 `toml:"memory_kib"`
		Time        uint32 `toml:"time"`
		Parallelism uint8  `toml:"parallelism"`
	} `toml:"password"`

	Credentials struct {
		OptimisticWrites *bool `toml:"optimistic_writes"`
		MaxWriteRetries  int   `toml:"max_write_retries"`
	} `toml:"credentials"`

	Audit struct {
		Enabled *bool  `toml:"enabled"`
		Format  string `toml:"format"`
	} `toml:"audit"`

	Metrics struct {
		Enabled *bool `toml:"enabled"`
	} `toml:"metrics"`
}

// cliConfig is the engine configuration plus settings only the CLI reads.
type cliConfig struct {
	Engine      localauth.Config
	AuditFormat string
}

func defaultCLIConfig() cliConfig {
	cfg := localauth.DefaultConfig()
	cfg.Store.Backend = localauth.StoreSQLite
	cfg.Store.SQLitePath = "localauth.db"
	return cliConfig{Engine: cfg, AuditFormat: "text"}
}

// loadConfig layers defaults, the TOML file and the environment. A missing
// file at path is not an error.
func loadConfig(path string) (cliConfig, error) {
	cfg := defaultCLIConfig()

	if path != "" {
		var fc fileConfig
		_, err := toml.DecodeFile(path, &fc)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to decode TOML file: %w", err)
		default:
			fc.apply(&cfg)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (fc *fileConfig) apply(cfg *cliConfig) {
	e := &cfg.Engine

	setString(&e.Store.Backend, fc.Store.Backend)
	setString(&e.Store.SQLitePath, fc.Store.SQLitePath)
	setString(&e.Store.RedisAddr, fc.Store.RedisAddr)
	setString(&e.Store.RedisPassword, fc.Store.RedisPassword)
	setString(&e.Store.RedisPrefix, fc.Store.RedisPrefix)
	if fc.Store.RedisDB != 0 {
		e.Store.RedisDB = fc.Store.RedisDB
	}

	if fc.Session.TTL.Duration != 0 {
		e.Session.TTL = fc.Session.TTL.Duration
	}
	if fc.Session.InactivityTimeout.Duration != 0 {
		e.Session.InactivityTimeout = fc.Session.InactivityTimeout.Duration
	}

	if fc.RateLimit.MaxFailedAttempts != 0 {
		e.RateLimit.MaxFailedAttempts = fc.RateLimit.MaxFailedAttempts
	}
	if fc.RateLimit.Cooldown.Duration != 0 {
		e.RateLimit.Cooldown = fc.RateLimit.Cooldown.Duration
	}

	setString(&e.Password.Algorithm, fc.Password.Algorithm)
	if fc.Password.SaltLength != 0 {
		e.Password.SaltLength = fc.Password.SaltLength
	}
	if fc.Password.MemoryKiB != 0 {
		e.Password.Memory = fc.Password.MemoryKiB
	}
	if fc.Password.Time != 0 {
		e.Password.Time = fc.Password.Time
	}
	if fc.Password.Parallelism != 0 {
		e.Password.Parallelism = fc.Password.Parallelism
	}

	if fc.Credentials.OptimisticWrites != nil {
		e.Credentials.OptimisticWrites = *fc.Credentials.OptimisticWrites
	}
	if fc.Credentials.MaxWriteRetries != 0 {
		e.Credentials.MaxWriteRetries = fc.Credentials.MaxWriteRetries
	}

	if fc.Audit.Enabled != nil {
		e.Audit.Enabled = *fc.Audit.Enabled
	}
	setString(&cfg.AuditFormat, fc.Audit.Format)

	if fc.Metrics.Enabled != nil {
		e.Metrics.Enabled = *fc.Metrics.Enabled
	}
}

// loadEnvFile reads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func applyEnv(cfg *cliConfig) error {
	e := &cfg.Engine

	setString(&e.Store.Backend, os.Getenv("LOCALAUTH_STORE"))
	setString(&e.Store.SQLitePath, os.Getenv("LOCALAUTH_SQLITE_PATH"))
	setString(&e.Store.RedisAddr, os.Getenv("LOCALAUTH_REDIS_ADDR"))
	setString(&e.Store.RedisPassword, os.Getenv("LOCALAUTH_REDIS_PASSWORD"))
	setString(&e.Password.Algorithm, os.Getenv("LOCALAUTH_PASSWORD_ALGORITHM"))

	if v := os.Getenv("LOCALAUTH_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LOCALAUTH_REDIS_DB: %w", err)
		}
		e.Store.RedisDB = db
	}
	if v := os.Getenv("LOCALAUTH_AUDIT"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOCALAUTH_AUDIT: %w", err)
		}
		e.Audit.Enabled = on
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
