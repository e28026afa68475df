package password

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// SHA256Config configures the reference [SHA256] hasher.
type SHA256Config struct {
	SaltLength int
	// Random defaults to crypto/rand.
	Random io.Reader
	// Digest defaults to sha256.New. A nil result reports ErrCryptoUnavailable.
	Digest func() hash.Hash
}

// SHA256 hashes password||salt with a single SHA-256 pass.
type SHA256 struct {
	config SHA256Config
}

// NewSHA256 returns a SHA256 hasher with unset fields defaulted.
func NewSHA256(cfg SHA256Config) *SHA256 {
	if cfg.SaltLength <= 0 {
		cfg.SaltLength = DefaultSaltLength
	}
	if cfg.Digest == nil {
		cfg.Digest = sha256.New
	}
	return &SHA256{config: cfg}
}

func (s *SHA256) GenerateSalt() (string, error) {
	return generateSalt(s.config.Random, s.config.SaltLength)
}

func (s *SHA256) Hash(password, salt string) (string, error) {
	h := s.config.Digest()
	if h == nil {
		return "", ErrCryptoUnavailable
	}
	// Password processing uses raw string bytes exactly as provided (no Unicode normalization).
	_, _ = io.WriteString(h, password)
	_, _ = io.WriteString(h, salt)
	return hex.EncodeToString(h.Sum(nil)), nil
}
