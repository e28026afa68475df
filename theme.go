package localauth

import (
	"context"
	"fmt"
)

// ThemeKey is the store key holding the display theme.
const ThemeKey = "theme"

// Theme is the persisted display preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ThemeFor returns the stored theme. Anything other than "dark" reads as light.
func (e *Engine) ThemeFor(ctx context.Context) (Theme, error) {
	if e == nil || e.store == nil {
		return ThemeLight, ErrEngineNotReady
	}
	v, ok, err := e.store.Get(ctx, ThemeKey)
	if err != nil {
		return ThemeLight, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if ok && Theme(v) == ThemeDark {
		return ThemeDark, nil
	}
	return ThemeLight, nil
}

// ToggleTheme flips and persists the theme, returning the new value.
func (e *Engine) ToggleTheme(ctx context.Context) (Theme, error) {
	current, err := e.ThemeFor(ctx)
	if err != nil {
		return current, err
	}

	next := ThemeDark
	if current == ThemeDark {
		next = ThemeLight
	}
	if err := e.store.Set(ctx, ThemeKey, string(next)); err != nil {
		return current, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return next, nil
}
