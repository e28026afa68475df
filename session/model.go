package session

import "time"

const (
	TokenKey   = "sessionToken"
	ExpiryKey  = "sessionExpiry"
	ProfileKey = "userData"
)

const (
	DefaultTTL               = 10 * time.Minute
	DefaultInactivityTimeout = 10 * time.Minute
	DefaultTokenBytes        = 32
)

const fallbackDisplayName = "User"

// Profile is the non-secret user summary stored with the session.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// DisplayName is the name used in the dashboard greeting.
func (p Profile) DisplayName() string {
	if p.Username == "" {
		return fallbackDisplayName
	}
	return p.Username
}

// Record is an issued session.
type Record struct {
	Token   string
	Expiry  time.Time
	Profile Profile
}

// LogoutReason tells the logout hook why the session ended.
type LogoutReason uint8

const (
	LogoutUser LogoutReason = iota
	LogoutInactivity
)

func (r LogoutReason) String() string {
	if r == LogoutInactivity {
		return "inactivity"
	}
	return "user"
}

// Config holds session lifetimes.
type Config struct {
	TTL               time.Duration
	InactivityTimeout time.Duration
	TokenBytes        int
}
