package events

import (
	"github.com/pskel/usagebar/internal/engine"
)

// Event is a real-time usage update pushed to web clients.
type Event struct {
	Type           string `json:"type"` // "usage_updated" or "usage_error"
	Timestamp      string `json:"timestamp,omitempty"`
	SessionPercent *int   `json:"session_percent,omitempty"`
	WeeklyPercent  *int   `json:"weekly_percent,omitempty"`
	SonnetPercent  *int   `json:"sonnet_percent,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Broadcaster sends events to connected web clients.
// A nil Broadcaster is safe to use -- Broadcast becomes a no-op.
type Broadcaster interface {
	Broadcast(e Event)
}

// FromState converts an engine state into the wire event.
func FromState(st engine.State) Event {
	if st.LastError != "" {
		return Event{Type: "usage_error", Error: st.LastError}
	}
	return Event{
		Type:           "usage_updated",
		Timestamp:      st.Current.Timestamp,
		SessionPercent: st.Current.Session.Percent,
		WeeklyPercent:  st.Current.WeeklyAll.Percent,
		SonnetPercent:  st.Current.WeeklySonnet.Percent,
	}
}
