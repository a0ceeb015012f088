package statusbar_test

import (
	"strings"
	"testing"
	"time"

	"github.com/pskel/usagebar/internal/engine"
	"github.com/pskel/usagebar/internal/statusbar"
	"github.com/pskel/usagebar/internal/usage"
)

func stateWith(session, weekly int) engine.State {
	return engine.State{
		Current: usage.Snapshot{
			Timestamp: "2026-01-28T12:30:00",
			Session:   usage.Item{Percent: usage.IntPtr(session), Resets: "3pm"},
			WeeklyAll: usage.Item{Percent: usage.IntPtr(weekly), Resets: "Jan 29 at 5:59pm"},
		},
		NetworkUp: true,
	}
}

func TestTitle(t *testing.T) {
	st := stateWith(25, 40)
	if got := statusbar.Title(st, true); got != "25% 40%" {
		t.Errorf("got %q want %q", got, "25% 40%")
	}
	if got := statusbar.Title(st, false); got != "" {
		t.Errorf("hidden percentages: got %q want empty", got)
	}
}

func TestTitle_ErrorState(t *testing.T) {
	st := stateWith(25, 40)
	st.LastError = "no network connection"
	if got := statusbar.Title(st, true); got != "⚠️" {
		t.Errorf("got %q want warning glyph", got)
	}
}

func TestTitle_BeforeFirstPoll(t *testing.T) {
	if got := statusbar.Title(engine.State{NetworkUp: true}, true); got != "..." {
		t.Errorf("got %q want %q", got, "...")
	}
}

func TestBucketLine(t *testing.T) {
	// now 1pm, reset 3pm, 4h period: 25% used at 50% elapsed is nominal.
	now := time.Date(2026, 1, 28, 13, 0, 0, 0, time.Local)
	item := usage.Item{Percent: usage.IntPtr(25), Resets: "3pm"}
	got := statusbar.BucketLine("Session", item, 4, now)
	want := "🟢 Session: 25% | 2h left"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestBucketLine_NoResetPhrase(t *testing.T) {
	now := time.Date(2026, 1, 28, 13, 0, 0, 0, time.Local)
	item := usage.Item{Percent: usage.IntPtr(10)}
	got := statusbar.BucketLine("Weekly (all)", item, 168, now)
	if !strings.Contains(got, "Resets today --") {
		t.Errorf("got %q, want the raw-phrase fallback", got)
	}
}

func TestLines(t *testing.T) {
	now := time.Date(2026, 1, 28, 13, 0, 0, 0, time.Local)
	st := stateWith(25, 40)
	st.Current.WeeklySonnet = usage.Item{Percent: usage.IntPtr(4)}

	lines := statusbar.Lines(st, now)
	if len(lines) != 4 {
		t.Fatalf("lines: got %d want 4\n%s", len(lines), strings.Join(lines, "\n"))
	}
	if !strings.HasPrefix(lines[0], "🟢 Session: 25%") {
		t.Errorf("session line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Weekly (all): 40%") {
		t.Errorf("weekly line: %q", lines[1])
	}
	if !strings.Contains(lines[2], "Weekly (Sonnet): 4%") {
		t.Errorf("sonnet line: %q", lines[2])
	}
	if lines[3] != "Updated: 12:30:00" {
		t.Errorf("updated line: %q", lines[3])
	}
}

func TestLines_ErrorFirst(t *testing.T) {
	now := time.Date(2026, 1, 28, 13, 0, 0, 0, time.Local)
	st := stateWith(25, 40)
	st.LastError = "could not parse usage data"

	lines := statusbar.Lines(st, now)
	if lines[0] != "⚠️ could not parse usage data" {
		t.Errorf("first line: %q", lines[0])
	}
	// The stale snapshot still renders below the error.
	if !strings.Contains(lines[1], "Session: 25%") {
		t.Errorf("second line: %q", lines[1])
	}
}

func TestLines_SonnetOmittedWhenUnknown(t *testing.T) {
	now := time.Date(2026, 1, 28, 13, 0, 0, 0, time.Local)
	lines := statusbar.Lines(stateWith(25, 40), now)
	for _, l := range lines {
		if strings.Contains(l, "Sonnet") {
			t.Errorf("unexpected sonnet line: %q", l)
		}
	}
}

func TestUpdatedAt(t *testing.T) {
	now := time.Date(2026, 1, 28, 13, 0, 0, 0, time.Local)
	cases := []struct {
		ts   string
		want string
	}{
		{"2026-01-28T12:30:00", "12:30:00"},            // same day: time only
		{"2026-01-27T23:55:00", "Jan 27 23:55:00"},     // different day
		{"2026-01-28T12:30:00.123456", "12:30:00"},     // fractional seconds stripped
		{"not a timestamp", "not a timestamp"},         // unparsable passes through
	}
	for _, tc := range cases {
		if got := statusbar.UpdatedAt(tc.ts, now); got != tc.want {
			t.Errorf("UpdatedAt(%q): got %q want %q", tc.ts, got, tc.want)
		}
	}
}
