package derive

import (
	"testing"
	"time"

	"atelier/api/internal/store"
)

func TestSLADeadlineBusinessDayFixture(t *testing.T) {
	// Monday + 5 business days lands on the following Monday.
	created := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	defs := []store.SLADefinition{{ContentType: "article", TotalDays: 5}}

	got := SLADeadline("article", created, defs)
	if got == nil {
		t.Fatal("deadline = nil, want a date")
	}
	want := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("deadline = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestSLADeadlineNeverLandsOnWeekend(t *testing.T) {
	defs := []store.SLADefinition{{ContentType: "article", TotalDays: 3}}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 14; i++ {
		created := start.AddDate(0, 0, i)
		got := SLADeadline("article", created, defs)
		if got == nil {
			t.Fatalf("deadline = nil for %s", created.Format("2006-01-02"))
		}
		if wd := got.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("created %s: deadline %s falls on %s", created.Format("2006-01-02"), got.Format("2006-01-02"), wd)
		}
	}
}

func TestSLADeadlineUnknownType(t *testing.T) {
	defs := []store.SLADefinition{{ContentType: "article", TotalDays: 5}}
	if got := SLADeadline("podcast", time.Now(), defs); got != nil {
		t.Fatalf("deadline = %v, want nil for undefined type", got)
	}
}

func TestSLAStatusThresholds(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		hours float64
		want  SLAStatus
	}{
		{name: "past due", hours: -1, want: SLABreached},
		{name: "exactly now", hours: 0, want: SLABreached},
		{name: "under a day", hours: 12, want: SLACritical},
		{name: "at 24h", hours: 24, want: SLACritical},
		{name: "under two days", hours: 36, want: SLAWarning},
		{name: "at 48h", hours: 48, want: SLAWarning},
		{name: "plenty of time", hours: 72, want: SLAOnTrack},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deadline := now.Add(time.Duration(tc.hours * float64(time.Hour)))
			if got := SLAStatusFor(&deadline, now); got != tc.want {
				t.Fatalf("status = %q, want %q", got, tc.want)
			}
		})
	}
}

// Moving the clock forward can only make the status worse, never better.
func TestSLAStatusMonotonic(t *testing.T) {
	rank := map[SLAStatus]int{SLAOnTrack: 0, SLAWarning: 1, SLACritical: 2, SLABreached: 3}
	deadline := time.Date(2026, 9, 4, 12, 0, 0, 0, time.UTC)
	start := deadline.AddDate(0, 0, -5)

	prev := SLAStatusFor(&deadline, start)
	for h := 1; h <= 24*7; h++ {
		cur := SLAStatusFor(&deadline, start.Add(time.Duration(h)*time.Hour))
		if rank[cur] < rank[prev] {
			t.Fatalf("status improved from %q to %q at +%dh", prev, cur, h)
		}
		prev = cur
	}
}

func TestSLAStatusNoDeadline(t *testing.T) {
	if got := SLAStatusFor(nil, time.Now()); got != SLAOnTrack {
		t.Fatalf("status = %q, want on_track", got)
	}
}
