package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// DefaultSaltLength is the number of random bytes in a generated salt.
const DefaultSaltLength = 16

// ErrCryptoUnavailable is returned when the random source or digest primitive
// cannot be obtained. There is no fallback path.
var ErrCryptoUnavailable = errors.New("crypto primitive unavailable")

// Hasher derives a hex digest from a password and a hex salt.
type Hasher interface {
	GenerateSalt() (string, error)
	Hash(password, salt string) (string, error)
}

// Verify recomputes the digest of password under salt and compares it with
// digest in constant time.
func Verify(h Hasher, password, salt, digest string) (bool, error) {
	computed, err := h.Hash(password, salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1, nil
}

func generateSalt(r io.Reader, n int) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	if n <= 0 {
		n = DefaultSaltLength
	}

	salt := make([]byte, n)
	if _, err := io.ReadFull(r, salt); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}
	return hex.EncodeToString(salt), nil
}
