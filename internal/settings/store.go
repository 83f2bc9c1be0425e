// Package settings persists the user-facing display preferences that survive
// restarts: the theme mode and the selected analytics period.
package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	themeKey  = "insights:settings:theme"
	periodKey = "insights:settings:period"

	// ThemeLight and ThemeDark are the only accepted theme modes.
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ErrInvalidTheme rejects theme values outside light/dark.
var ErrInvalidTheme = fmt.Errorf("settings: theme must be %q or %q", ThemeLight, ThemeDark)

// Store reads and writes preferences in Redis. A nil client degrades to the
// defaults so the service keeps working without Redis.
type Store struct {
	client       *redis.Client
	defaultTheme string
}

// NewStore constructs the preference store.
func NewStore(client *redis.Client, defaultTheme string) *Store {
	if defaultTheme != ThemeDark {
		defaultTheme = ThemeLight
	}
	return &Store{client: client, defaultTheme: defaultTheme}
}

// Theme returns the persisted mode, falling back to the configured default.
func (s *Store) Theme(ctx context.Context) (string, error) {
	if s == nil || s.client == nil {
		return s.fallbackTheme(), nil
	}
	mode, err := s.client.Get(ctx, themeKey).Result()
	if err == redis.Nil {
		return s.fallbackTheme(), nil
	}
	if err != nil {
		return "", err
	}
	if mode != ThemeLight && mode != ThemeDark {
		return s.fallbackTheme(), nil
	}
	return mode, nil
}

// SetTheme persists the mode. The preference has no TTL.
func (s *Store) SetTheme(ctx context.Context, mode string) error {
	if mode != ThemeLight && mode != ThemeDark {
		return ErrInvalidTheme
	}
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Set(ctx, themeKey, mode, 0).Err()
}

// SavePeriod persists the selected calendar-date range.
func (s *Store) SavePeriod(ctx context.Context, start, end string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Set(ctx, periodKey, start+".."+end, 0).Err()
}

// LoadPeriod returns the persisted range. ok is false when nothing was saved.
func (s *Store) LoadPeriod(ctx context.Context) (start, end string, ok bool, err error) {
	if s == nil || s.client == nil {
		return "", "", false, nil
	}
	raw, err := s.client.Get(ctx, periodKey).Result()
	if err == redis.Nil {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	parts := strings.SplitN(raw, "..", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false, nil
	}
	return parts[0], parts[1], true, nil
}

func (s *Store) fallbackTheme() string {
	if s == nil || s.defaultTheme == "" {
		return ThemeLight
	}
	return s.defaultTheme
}
