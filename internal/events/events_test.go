package events_test

import (
	"testing"

	"github.com/pskel/usagebar/internal/engine"
	"github.com/pskel/usagebar/internal/events"
	"github.com/pskel/usagebar/internal/usage"
)

func TestFromState_Updated(t *testing.T) {
	st := engine.State{
		Current: usage.Snapshot{
			Timestamp: "2026-01-28T13:00:00",
			Session:   usage.Item{Percent: usage.IntPtr(37)},
			WeeklyAll: usage.Item{Percent: usage.IntPtr(12)},
		},
		NetworkUp: true,
	}
	ev := events.FromState(st)
	if ev.Type != "usage_updated" {
		t.Errorf("type: got %q", ev.Type)
	}
	if ev.SessionPercent == nil || *ev.SessionPercent != 37 {
		t.Errorf("session: got %v", ev.SessionPercent)
	}
	if ev.SonnetPercent != nil {
		t.Error("unknown bucket should stay nil")
	}
	if ev.Error != "" {
		t.Errorf("error: got %q", ev.Error)
	}
}

func TestFromState_Error(t *testing.T) {
	st := engine.State{LastError: "no network connection"}
	ev := events.FromState(st)
	if ev.Type != "usage_error" {
		t.Errorf("type: got %q", ev.Type)
	}
	if ev.Error != "no network connection" {
		t.Errorf("error: got %q", ev.Error)
	}
}
