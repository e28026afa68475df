package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrEthical07/localauth/kv"
)

// UsersKey is the store key holding the JSON user collection.
const UsersKey = "users"

const defaultMaxWriteRetries = 4

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrConflict          = errors.New("concurrent credential write")
	ErrStoreUnavailable  = errors.New("credential store unavailable")
)

// UserRecord is one persisted account. Field names are the persisted JSON names.
type UserRecord struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Salt         string `json:"salt"`
	Hint         string `json:"hint"`
}

// CredentialConfig controls write behaviour.
type CredentialConfig struct {
	OptimisticWrites bool
	MaxWriteRetries  int
}

// CredentialStore reads and writes the user collection.
type CredentialStore struct {
	store       kv.Store
	cas         kv.CASStore
	maxRetries  int
	onMalformed func(key string, err error)
}

// NewCredentialStore creates a [CredentialStore]. onMalformed may be nil.
//
// Optimistic writes are used only when cfg asks for them and store implements
// [kv.CASStore]; otherwise writes fall back to plain Set.
func NewCredentialStore(store kv.Store, cfg CredentialConfig, onMalformed func(key string, err error)) *CredentialStore {
	s := &CredentialStore{
		store:       store,
		maxRetries:  cfg.MaxWriteRetries,
		onMalformed: onMalformed,
	}
	if s.maxRetries <= 0 {
		s.maxRetries = defaultMaxWriteRetries
	}
	if cfg.OptimisticWrites {
		if cas, ok := store.(kv.CASStore); ok {
			s.cas = cas
		}
	}
	if s.onMalformed == nil {
		s.onMalformed = func(string, error) {}
	}
	return s
}

// Optimistic reports whether writes use compare-and-swap.
func (s *CredentialStore) Optimistic() bool {
	return s.cas != nil
}

// List returns the decoded collection.
func (s *CredentialStore) List(ctx context.Context) ([]UserRecord, error) {
	users, _, _, err := s.load(ctx)
	return users, err
}

// FindByIdentifier returns the first record whose username or email equals
// identifier exactly.
func (s *CredentialStore) FindByIdentifier(ctx context.Context, identifier string) (UserRecord, error) {
	users, _, _, err := s.load(ctx)
	if err != nil {
		return UserRecord{}, err
	}
	for _, u := range users {
		if u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}
	return UserRecord{}, ErrNotFound
}

// FindByEmail returns the first record whose email equals email exactly.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (UserRecord, error) {
	users, _, _, err := s.load(ctx)
	if err != nil {
		return UserRecord{}, err
	}
	for _, u := range users {
		if u.Email == email {
			return u, nil
		}
	}
	return UserRecord{}, ErrNotFound
}

// UsernameTaken reports whether a record already uses username.
func (s *CredentialStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	users, _, _, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return indexByUsername(users, username) >= 0, nil
}

// Register appends record. The username check runs before the email check.
func (s *CredentialStore) Register(ctx context.Context, record UserRecord) error {
	return s.mutate(ctx, func(users []UserRecord) ([]UserRecord, error) {
		if indexByUsername(users, record.Username) >= 0 {
			return nil, ErrDuplicateUsername
		}
		for _, u := range users {
			if u.Email == record.Email {
				return nil, ErrDuplicateEmail
			}
		}
		return append(users, record), nil
	})
}

// UpdateCredentials overwrites the digest and salt of username in place.
func (s *CredentialStore) UpdateCredentials(ctx context.Context, username, passwordHash, salt string) error {
	return s.mutate(ctx, func(users []UserRecord) ([]UserRecord, error) {
		i := indexByUsername(users, username)
		if i < 0 {
			return nil, ErrNotFound
		}
		users[i].PasswordHash = passwordHash
		users[i].Salt = salt
		return users, nil
	})
}

func (s *CredentialStore) mutate(ctx context.Context, apply func([]UserRecord) ([]UserRecord, error)) error {
	if s.cas == nil {
		users, _, _, err := s.load(ctx)
		if err != nil {
			return err
		}
		next, err := apply(users)
		if err != nil {
			return err
		}
		encoded, err := encodeUsers(next)
		if err != nil {
			return err
		}
		if err := s.store.Set(ctx, UsersKey, encoded); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil
	}

	for i := 0; i < s.maxRetries; i++ {
		users, raw, present, err := s.load(ctx)
		if err != nil {
			return err
		}
		next, err := apply(users)
		if err != nil {
			return err
		}
		encoded, err := encodeUsers(next)
		if err != nil {
			return err
		}
		swapped, err := s.cas.CompareAndSwap(ctx, UsersKey, raw, present, encoded)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if swapped {
			return nil
		}
	}
	return ErrConflict
}

// load returns the decoded collection plus the raw value it came from.
func (s *CredentialStore) load(ctx context.Context) ([]UserRecord, string, bool, error) {
	raw, ok, err := s.store.Get(ctx, UsersKey)
	if err != nil {
		return nil, "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, "", false, nil
	}

	var users []UserRecord
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		s.onMalformed(UsersKey, err)
		return nil, raw, true, nil
	}
	return users, raw, true, nil
}

func encodeUsers(users []UserRecord) (string, error) {
	if users == nil {
		users = []UserRecord{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func indexByUsername(users []UserRecord, username string) int {
	for i, u := range users {
		if u.Username == username {
			return i
		}
	}
	return -1
}
