// Package usage holds the data model shared by the fetcher, the engine and
// the presentation layers: one snapshot of the three tracked quota buckets.
package usage

// Period lengths of the tracked buckets, in hours.
const (
	SessionPeriodHours = 4
	WeeklyPeriodHours  = 168
)

// FailureKind classifies a failed fetch. The engine branches on the kind
// instead of sniffing the message text.
type FailureKind string

const (
	FailNone         FailureKind = ""
	FailFetch        FailureKind = "fetch"
	FailConnectivity FailureKind = "connectivity"
	FailParse        FailureKind = "parse"
)

// Item is one quota bucket's last known reading. A nil Percent means
// "unknown", not zero.
type Item struct {
	Percent *int   `json:"percent"`
	Resets  string `json:"resets,omitempty"`
}

// Snapshot is one complete reading of all buckets, produced by the fetcher
// once per poll and immutable afterwards. When Err is set the items are not
// authoritative; the engine never lets such a snapshot replace a good one.
type Snapshot struct {
	Timestamp    string      `json:"timestamp,omitempty"`
	Session      Item        `json:"session"`
	WeeklyAll    Item        `json:"weekly_all"`
	WeeklySonnet Item        `json:"weekly_sonnet"`
	Err          string      `json:"error,omitempty"`
	ErrKind      FailureKind `json:"error_kind,omitempty"`
}

// Failed reports whether the snapshot carries a fetch failure.
func (s Snapshot) Failed() bool {
	return s.Err != ""
}

// Pct returns the item's percent, or 0 when unknown.
func (it Item) Pct() int {
	if it.Percent == nil {
		return 0
	}
	return *it.Percent
}

// Known reports whether the item carries a reading.
func (it Item) Known() bool {
	return it.Percent != nil
}

// IntPtr is a convenience for building Items.
func IntPtr(v int) *int {
	return &v
}
