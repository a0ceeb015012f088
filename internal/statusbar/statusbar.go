// Package statusbar composes the text the presentation layer shows: the
// compact bar title and the per-bucket detail lines. Pure functions so the
// rendering is testable without a terminal.
package statusbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/pskel/usagebar/internal/engine"
	"github.com/pskel/usagebar/internal/pace"
	"github.com/pskel/usagebar/internal/resettime"
	"github.com/pskel/usagebar/internal/usage"
)

// Title builds the compact bar title: a warning glyph while the last poll
// failed, "{session}% {weekly}%" when data is present, a placeholder before
// the first poll lands.
func Title(st engine.State, showPercentages bool) string {
	if st.LastError != "" {
		return "⚠️"
	}
	if st.Current.Session.Known() {
		if !showPercentages {
			return ""
		}
		return fmt.Sprintf("%d%% %d%%", st.Current.Session.Pct(), st.Current.WeeklyAll.Pct())
	}
	return "..."
}

// BucketLine renders one quota bucket: severity icon, percent, remaining time.
func BucketLine(label string, item usage.Item, periodHours int, now time.Time) string {
	level := pace.Classify(item.Pct(), item.Resets, periodHours, now)
	reset := item.Resets
	if reset == "" {
		reset = "--"
	}
	return fmt.Sprintf("%s %s: %d%% | %s",
		level.Icon(), label, item.Pct(), resettime.FormatRemaining(reset, now))
}

// Lines renders the full menu body for a state: error line when present, the
// three buckets, and the updated-at line.
func Lines(st engine.State, now time.Time) []string {
	var lines []string
	if st.LastError != "" {
		lines = append(lines, "⚠️ "+st.LastError)
	}
	u := st.Current
	lines = append(lines,
		BucketLine("Session", u.Session, usage.SessionPeriodHours, now),
		BucketLine("Weekly (all)", u.WeeklyAll, usage.WeeklyPeriodHours, now),
	)
	if u.WeeklySonnet.Known() {
		level := pace.Classify(u.WeeklySonnet.Pct(), u.WeeklySonnet.Resets, usage.WeeklyPeriodHours, now)
		lines = append(lines, fmt.Sprintf("%s Weekly (Sonnet): %d%%", level.Icon(), u.WeeklySonnet.Pct()))
	}
	if u.Timestamp != "" {
		lines = append(lines, "Updated: "+UpdatedAt(u.Timestamp, now))
	}
	return lines
}

// UpdatedAt formats a snapshot timestamp: time only when it is from today,
// date plus time otherwise. Unparsable timestamps pass through raw.
func UpdatedAt(timestamp string, now time.Time) string {
	clean, _, _ := strings.Cut(timestamp, ".")
	t, err := time.ParseInLocation("2006-01-02T15:04:05", clean, now.Location())
	if err != nil {
		return timestamp
	}
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04:05")
	}
	return t.Format("Jan 02 15:04:05")
}
