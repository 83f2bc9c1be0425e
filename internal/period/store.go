// Package period holds the process-wide date range used to scope every
// dashboard query. A single Store instance is shared by all pages: the
// settings endpoints write, page handlers read.
package period

import (
	"fmt"
	"sync"
	"time"
)

const dayLayout = "2006-01-02"

// DefaultWindowDays is the range applied when no selection was persisted.
const DefaultWindowDays = 30

// Params carries the selected range expanded to start-of-day and end-of-day
// timestamps, the shape the analytics API expects.
type Params struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Store keeps the current inclusive calendar-date range. Bounds are mutated
// together by presets so no intermediate start > end state is observable.
// Manual edits of a single bound are intentionally unvalidated; callers that
// need start <= end must enforce it themselves.
type Store struct {
	mu    sync.RWMutex
	start time.Time
	end   time.Time
	now   func() time.Time
}

// Option customises Store construction.
type Option func(*Store)

// WithClock overrides the store clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore builds a store defaulting to the last DefaultWindowDays days.
func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	today := truncateDay(s.now())
	s.end = today
	s.start = today.AddDate(0, 0, -(DefaultWindowDays - 1))
	return s
}

// Range returns the current start and end dates.
func (s *Store) Range() (time.Time, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.start, s.end
}

// SetStart replaces the lower bound.
func (s *Store) SetStart(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = truncateDay(t)
}

// SetEnd replaces the upper bound.
func (s *Store) SetEnd(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.end = truncateDay(t)
}

// SetRange replaces both bounds atomically.
func (s *Store) SetRange(start, end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = truncateDay(start)
	s.end = truncateDay(end)
}

// SetPresetLastDays selects the last n days ending today. Both bounds move
// under one lock so readers never observe a half-applied preset.
func (s *Store) SetPresetLastDays(n int) error {
	if n < 1 {
		return fmt.Errorf("period: preset days must be >= 1, got %d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	today := truncateDay(s.now())
	s.end = today
	s.start = today.AddDate(0, 0, -(n - 1))
	return nil
}

// Params expands the selection to API query timestamps: start-of-day for the
// lower bound, end-of-day for the upper bound.
func (s *Store) Params() Params {
	start, end := s.Range()
	return Params{
		StartDate: start.Format(dayLayout) + "T00:00:00",
		EndDate:   end.Format(dayLayout) + "T23:59:59",
	}
}

// Snapshot returns both bounds as calendar-date strings for persistence.
func (s *Store) Snapshot() (string, string) {
	start, end := s.Range()
	return start.Format(dayLayout), end.Format(dayLayout)
}

// Restore replaces the selection from persisted calendar-date strings.
func (s *Store) Restore(start, end string) error {
	from, err := time.Parse(dayLayout, start)
	if err != nil {
		return fmt.Errorf("period: invalid start %q: %w", start, err)
	}
	to, err := time.Parse(dayLayout, end)
	if err != nil {
		return fmt.Errorf("period: invalid end %q: %w", end, err)
	}
	s.SetRange(from, to)
	return nil
}

// LastDays computes the query params for the n-day window ending on now's
// calendar day, without touching any Store. Used by cache warmers that
// prefetch preset windows alongside the live selection.
func LastDays(now time.Time, n int) Params {
	if n < 1 {
		n = 1
	}
	end := truncateDay(now)
	start := end.AddDate(0, 0, -(n - 1))
	return Params{
		StartDate: start.Format(dayLayout) + "T00:00:00",
		EndDate:   end.Format(dayLayout) + "T23:59:59",
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
