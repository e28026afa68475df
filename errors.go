package localauth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is returned when a required field is empty or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateUsername is returned by registration when the username is taken.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrDuplicateEmail is returned by registration when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned for an unknown identifier or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRateLimited is returned while the global failed-attempt counter blocks login.
	ErrRateLimited = errors.New("login rate limited")
	// ErrWeakPassword is returned when a new password classifies as weak.
	ErrWeakPassword = errors.New("password is too weak")
	// ErrInvalidVerification is returned by either reset phase when the pair does not match
	// or the pending reset is no longer usable.
	ErrInvalidVerification = errors.New("invalid reset verification")
	// ErrCryptoUnavailable is returned when the random source or digest cannot be obtained.
	ErrCryptoUnavailable = errors.New("crypto unavailable")
	// ErrMalformedPersistedState marks a stored value that failed to decode. It is
	// counted and audited, never returned by public operations.
	ErrMalformedPersistedState = errors.New("malformed persisted state")
	// ErrEngineNotReady is returned when an operation runs on a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrStoreUnavailable is returned when the backing kv store fails.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// FieldError ties a failure to the form field that produced it.
//
// Field is the form element name ("username", "email", "password", "hint",
// "login", "verify", "newPassword"). An empty Field marks a form-wide failure.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if e == nil || e.Err == nil {
		return "<nil>"
	}
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Slot returns the element id of the inline error container, or "" for
// form-wide failures.
func (e *FieldError) Slot() string {
	if e == nil || e.Field == "" {
		return ""
	}
	return e.Field + "Error"
}

const (
	msgAllRequired        = "All fields are required."
	msgInvalidEmail       = "Invalid email format."
	msgWeakPassword       = "Password is too weak."
	msgUsernameTaken      = "Username already taken."
	msgEmailTaken         = "Email already registered."
	msgInvalidCredentials = "Invalid username/email or password."
	msgRateLimited        = "Too many failed attempts. Try again later."
	msgInvalidReset       = "Invalid email or hint."
	msgFieldRequired      = "This field is required."
	msgInvalidFormat      = "Invalid format."
	msgUnavailable        = "Something went wrong. Please try again."
)

// errInvalidEmail still matches ErrValidation.
var errInvalidEmail = fmt.Errorf("%w: invalid email format", ErrValidation)

// ErrorMessage returns the user-facing text for err, or "" for nil.
func ErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errInvalidEmail):
		return msgInvalidEmail
	case errors.Is(err, ErrValidation):
		return msgAllRequired
	case errors.Is(err, ErrDuplicateUsername):
		return msgUsernameTaken
	case errors.Is(err, ErrDuplicateEmail):
		return msgEmailTaken
	case errors.Is(err, ErrWeakPassword):
		return msgWeakPassword
	case errors.Is(err, ErrInvalidCredentials):
		return msgInvalidCredentials
	case errors.Is(err, ErrRateLimited):
		return msgRateLimited
	case errors.Is(err, ErrInvalidVerification):
		return msgInvalidReset
	default:
		return msgUnavailable
	}
}

// ValidateField returns the inline hint for a single field as the user types.
func ValidateField(value string, email bool) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return msgFieldRequired
	}
	if email && !emailPattern.MatchString(value) {
		return msgInvalidFormat
	}
	return ""
}
