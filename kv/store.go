package kv

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the backing store cannot be reached.
var ErrUnavailable = errors.New("kv store unavailable")

// Store is the minimal persisted key-value capability.
//
// Get reports ok=false for an absent key. Remove of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// CASStore extends [Store] with a per-key compare-and-swap.
//
// CompareAndSwap writes next only when the current value still equals prev
// (prevOK=true) or the key is still absent (prevOK=false). It reports whether
// the write happened.
type CASStore interface {
	Store
	CompareAndSwap(ctx context.Context, key, prev string, prevOK bool, next string) (bool, error)
}
