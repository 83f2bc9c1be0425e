package period

import (
	"sync"
	"testing"
	"time"
)

func fixedClock(t *testing.T) func() time.Time {
	t.Helper()
	return func() time.Time {
		return time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)
	}
}

func TestNewStoreDefaultsToLast30Days(t *testing.T) {
	s := NewStore(WithClock(fixedClock(t)))
	start, end := s.Range()
	if got := end.Format("2006-01-02"); got != "2024-06-15" {
		t.Fatalf("unexpected end %s", got)
	}
	if got := start.Format("2006-01-02"); got != "2024-05-17" {
		t.Fatalf("unexpected start %s", got)
	}
}

func TestSetPresetLastDaysInclusive(t *testing.T) {
	s := NewStore(WithClock(fixedClock(t)))
	for _, n := range []int{1, 7, 30, 90} {
		if err := s.SetPresetLastDays(n); err != nil {
			t.Fatalf("preset %d: %v", n, err)
		}
		start, end := s.Range()
		days := int(end.Sub(start).Hours()/24) + 1
		if days != n {
			t.Fatalf("preset %d spans %d days", n, days)
		}
	}
	if err := s.SetPresetLastDays(0); err == nil {
		t.Fatal("expected error for zero days")
	}
}

func TestParamsExpandToDayBounds(t *testing.T) {
	s := NewStore(WithClock(fixedClock(t)))
	s.SetRange(
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC),
	)
	params := s.Params()
	if params.StartDate != "2024-01-01T00:00:00" {
		t.Fatalf("unexpected start param %s", params.StartDate)
	}
	if params.EndDate != "2024-01-31T23:59:59" {
		t.Fatalf("unexpected end param %s", params.EndDate)
	}
}

func TestManualEditsAreIndependent(t *testing.T) {
	s := NewStore(WithClock(fixedClock(t)))
	// The selector does not clamp start <= end; a reversed range is storable.
	s.SetStart(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	start, end := s.Range()
	if !start.After(end) {
		t.Fatalf("expected reversed range to persist, got %s..%s", start, end)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := NewStore(WithClock(fixedClock(t)))
	if err := s.Restore("2024-02-01", "2024-02-29"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	start, end := s.Snapshot()
	if start != "2024-02-01" || end != "2024-02-29" {
		t.Fatalf("unexpected snapshot %s..%s", start, end)
	}
	if err := s.Restore("bad", "2024-02-29"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConcurrentReadersDuringPreset(t *testing.T) {
	s := NewStore(WithClock(fixedClock(t)))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				start, end := s.Range()
				if start.After(end) {
					t.Error("observed start after end during preset updates")
					return
				}
			}
		}()
	}
	for j := 0; j < 200; j++ {
		_ = s.SetPresetLastDays(7)
		_ = s.SetPresetLastDays(90)
	}
	wg.Wait()
}
