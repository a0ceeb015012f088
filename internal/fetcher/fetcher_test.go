package fetcher_test

import (
	"testing"
	"time"

	"github.com/pskel/usagebar/internal/fetcher"
	"github.com/pskel/usagebar/internal/usage"
)

const sampleTranscript = `
 Settings                                              esc to exit

  Status  Config  Usage

 Current session
 ███████░░░░░░░░░░░░░ 37% used
 Resets 11pm (America/New_York)

 Current week (all models)
 ██░░░░░░░░░░░░░░░░░░ 12% used
 Resets Jan 29 at 5:59pm (America/New_York)

 Current week (Sonnet only)
 █░░░░░░░░░░░░░░░░░░░ 4% used
`

func TestParseTranscript(t *testing.T) {
	now := time.Date(2026, 1, 28, 13, 0, 0, 0, time.Local)
	snap := fetcher.ParseTranscript(sampleTranscript, now)

	if snap.Failed() {
		t.Fatalf("unexpected failure: %s", snap.Err)
	}
	if got := snap.Session.Pct(); got != 37 {
		t.Errorf("session percent: got %d want 37", got)
	}
	if got := snap.Session.Resets; got != "11pm" {
		t.Errorf("session resets: got %q want %q", got, "11pm")
	}
	if got := snap.WeeklyAll.Pct(); got != 12 {
		t.Errorf("weekly percent: got %d want 12", got)
	}
	if got := snap.WeeklyAll.Resets; got != "Jan 29 at 5:59pm" {
		t.Errorf("weekly resets: got %q", got)
	}
	if got := snap.WeeklySonnet.Pct(); got != 4 {
		t.Errorf("sonnet percent: got %d want 4", got)
	}
	if snap.WeeklySonnet.Resets != "" {
		t.Errorf("sonnet resets: got %q want empty", snap.WeeklySonnet.Resets)
	}
	if snap.Timestamp != "2026-01-28T13:00:00" {
		t.Errorf("timestamp: got %q", snap.Timestamp)
	}
}

func TestParseTranscript_PercentBeforeHeaderIgnored(t *testing.T) {
	// Noise before the first section header must not be attributed anywhere.
	content := "99% used\nCurrent session\n10% used\nCurrent week (all models)\n20% used\n"
	snap := fetcher.ParseTranscript(content, time.Now())
	if got := snap.Session.Pct(); got != 10 {
		t.Errorf("session percent: got %d want 10", got)
	}
}

func TestParseTranscript_Unparsable(t *testing.T) {
	snap := fetcher.ParseTranscript("claude is thinking...\n", time.Now())
	if !snap.Failed() {
		t.Fatal("expected a parse failure")
	}
	if snap.ErrKind != usage.FailParse {
		t.Errorf("kind: got %q want %q", snap.ErrKind, usage.FailParse)
	}
	if snap.Err != "could not parse usage data" {
		t.Errorf("err: got %q", snap.Err)
	}
}

func TestParseTranscript_SessionOnlyIsEnough(t *testing.T) {
	content := "Current session\n50% used\nResets 3pm\n"
	snap := fetcher.ParseTranscript(content, time.Now())
	if snap.Failed() {
		t.Fatalf("unexpected failure: %s", snap.Err)
	}
	if !snap.Session.Known() || snap.WeeklyAll.Known() {
		t.Errorf("unexpected items: %+v", snap)
	}
}
