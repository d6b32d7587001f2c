package timeutil_test

import (
	"testing"
	"time"

	"tasknote/internal/timeutil"
)

func TestDayBounds(t *testing.T) {
	t.Parallel()

	vienna, err := time.LoadLocation("Europe/Vienna")
	if err != nil {
		t.Fatalf("loading Europe/Vienna: %v", err)
	}

	tests := []struct {
		name      string
		input     time.Time
		loc       *time.Location
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "UTC midday",
			input:     time.Date(2025, 6, 2, 12, 30, 0, 0, time.UTC),
			loc:       time.UTC,
			wantStart: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "UTC instant crosses date line in Vienna",
			input:     time.Date(2025, 6, 2, 23, 30, 0, 0, time.UTC),
			loc:       vienna,
			wantStart: time.Date(2025, 6, 3, 0, 0, 0, 0, vienna),
			wantEnd:   time.Date(2025, 6, 4, 0, 0, 0, 0, vienna),
		},
		{
			name:      "exactly midnight",
			input:     time.Date(2025, 6, 2, 0, 0, 0, 0, vienna),
			loc:       vienna,
			wantStart: time.Date(2025, 6, 2, 0, 0, 0, 0, vienna),
			wantEnd:   time.Date(2025, 6, 3, 0, 0, 0, 0, vienna),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			start, end := timeutil.DayBounds(tt.input, tt.loc)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", end, tt.wantEnd)
			}
		})
	}
}

func TestDayBoundsHalfOpen(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC)
	start, end := timeutil.DayBounds(now, time.UTC)

	if d := end.Sub(start); d != 24*time.Hour {
		t.Errorf("interval length = %v, want 24h", d)
	}
	if !now.After(start) && !now.Equal(start) {
		t.Errorf("now %v not inside [%v, %v)", now, start, end)
	}
	if !now.Before(end) {
		t.Errorf("now %v not inside [%v, %v)", now, start, end)
	}
}

func TestFormatDue(t *testing.T) {
	t.Parallel()

	vienna, err := time.LoadLocation("Europe/Vienna")
	if err != nil {
		t.Fatalf("loading Europe/Vienna: %v", err)
	}

	// Stored UTC, rendered local.
	stored := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)
	if got := timeutil.FormatDue(stored, vienna); got != "2025-06-02 17:00" {
		t.Errorf("FormatDue = %q, want %q", got, "2025-06-02 17:00")
	}
}
