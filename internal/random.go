package internal

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ErrRandomUnavailable is returned when the random source cannot fill a buffer.
var ErrRandomUnavailable = errors.New("random source unavailable")

// RandomHex reads n bytes from r (crypto/rand when nil) and returns them as
// 2n lowercase hex characters.
func RandomHex(r io.Reader, n int) (string, error) {
	if n <= 0 {
		return "", errors.New("random length must be > 0")
	}
	if r == nil {
		r = rand.Reader
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRandomUnavailable, err)
	}
	return hex.EncodeToString(buf), nil
}

// FormatEpochMillis renders t as decimal milliseconds since the Unix epoch.
func FormatEpochMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseEpochMillis parses a decimal millisecond timestamp. Anything that is not
// a plain base-10 integer reports ok=false.
func ParseEpochMillis(s string) (time.Time, bool) {
	ms, ok := ParseCount(s)
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// ParseCount parses a decimal integer counter.
func ParseCount(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
