package password

import (
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength         = 16
	argon2KeyLen   uint32 = 32
)

// Config defines Argon2id cost parameters.
type Config struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  int
	Random      io.Reader
}

// Argon2 is a memory-hard [Hasher]. The 32-byte key keeps the digest at 64 hex chars.
type Argon2 struct {
	config Config
}

// NewArgon2 validates cfg and returns an Argon2 hasher.
//
// NewArgon2 may return an error when a cost parameter is below its minimum.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &Argon2{config: cfg}, nil
}

func (a *Argon2) GenerateSalt() (string, error) {
	return generateSalt(a.config.Random, a.config.SaltLength)
}

// Hash derives the argon2id key of password using the salt string bytes.
func (a *Argon2) Hash(password, salt string) (string, error) {
	key := argon2.IDKey(
		[]byte(password),
		[]byte(salt),
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		argon2KeyLen,
	)
	return hex.EncodeToString(key), nil
}

func validateConfig(cfg Config) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("password memory must be >= 8192 KB")
	}
	if cfg.Time < minTimeCost {
		return errors.New("password time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("password parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return errors.New("password salt length must be >= 16")
	}

	return nil
}
