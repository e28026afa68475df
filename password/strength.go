package password

import (
	"strings"
	"unicode/utf16"
)

// Symbols is the set of characters that count toward the symbol class.
const Symbols = "!@#$%^&*"

const minStrongLength = 8

// Strength is the classifier output.
type Strength uint8

const (
	Weak Strength = iota
	Moderate
	Strong
)

// String returns weak, moderate or strong; the meter renders it as strength-<level>.
func (s Strength) String() string {
	switch s {
	case Strong:
		return "strong"
	case Moderate:
		return "moderate"
	default:
		return "weak"
	}
}

// ClassifyStrength grades a candidate password.
//
// Strong needs at least 8 characters plus an upper, a lower, a digit and a
// symbol. Moderate needs at least 8 characters, a letter of either case and a
// digit or symbol. Everything else is weak. Only ASCII letters and digits count.
// Length is measured in UTF-16 code units, so a character outside the Basic
// Multilingual Plane counts twice.
func ClassifyStrength(s string) Strength {
	var upper, lower, digit, symbol bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.IndexByte(Symbols, c) >= 0:
			symbol = true
		}
	}

	long := codeUnits(s) >= minStrongLength
	if long && upper && lower && digit && symbol {
		return Strong
	}
	if long && (upper || lower) && (digit || symbol) {
		return Moderate
	}
	return Weak
}

func codeUnits(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
