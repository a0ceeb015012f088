// Package resettime parses the short human reset phrases Claude Code prints
// ("3pm", "Jan 29 at 5:59pm") into absolute local times, and formats the
// remaining time for display.
package resettime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Parse resolves a reset phrase against now, in now's location.
//
// A bare time ("3pm", "11:59pm") resolves to today, or tomorrow if that
// instant is already past. A dated time ("Jan 29 at 5:59pm") infers the year:
// next year when the month/day has already passed. Unrecognized phrases and
// impossible calendar dates return ok=false; callers fall back to showing the
// raw phrase.
func Parse(phrase string, now time.Time) (time.Time, bool) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return time.Time{}, false
	}

	if date, timePart, found := strings.Cut(phrase, " at "); found {
		return parseDated(date, timePart, now)
	}

	hour, minute, ok := parseClock(phrase)
	if !ok {
		return time.Time{}, false
	}
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if t.Before(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t, true
}

func parseDated(date, timePart string, now time.Time) (time.Time, bool) {
	fields := strings.Fields(date)
	if len(fields) != 2 {
		return time.Time{}, false
	}
	month, ok := months[strings.ToLower(fields[0])]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(fields[1])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	hour, minute, ok := parseClock(timePart)
	if !ok {
		return time.Time{}, false
	}

	year := now.Year()
	if month < now.Month() || (month == now.Month() && day < now.Day()) {
		year++
	}

	t := time.Date(year, month, day, hour, minute, 0, 0, now.Location())
	// time.Date normalizes impossible dates (Feb 30 -> Mar 2); reject those.
	if t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// parseClock parses "<hour>[:<minute>](am|pm)", case-insensitive.
func parseClock(s string) (hour, minute int, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	var pm bool
	switch {
	case strings.HasSuffix(s, "pm"):
		pm = true
		s = strings.TrimSuffix(s, "pm")
	case strings.HasSuffix(s, "am"):
		s = strings.TrimSuffix(s, "am")
	default:
		return 0, 0, false
	}

	hs, ms, hasMinute := strings.Cut(s, ":")
	h, err := strconv.Atoi(hs)
	if err != nil || h < 1 || h > 12 {
		return 0, 0, false
	}
	m := 0
	if hasMinute {
		m, err = strconv.Atoi(ms)
		if err != nil || m < 0 || m > 59 {
			return 0, 0, false
		}
	}

	switch {
	case pm && h != 12:
		h += 12
	case !pm && h == 12:
		h = 0
	}
	return h, m, true
}

// FormatDuration renders a non-negative delta as a short countdown string.
func FormatDuration(d time.Duration) string {
	totalHours := int(d.Hours())
	days := totalHours / 24
	hours := totalHours % 24

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh left", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh left", hours)
	}
	if mins := int(d.Minutes()); mins > 0 {
		return fmt.Sprintf("%dm left", mins)
	}
	return "soon"
}

// FormatRemaining renders the time left until a reset phrase. Phrases that
// fail to parse, or that resolve to the past, fall back to echoing the raw
// phrase so the display never goes blank.
func FormatRemaining(phrase string, now time.Time) string {
	if t, ok := Parse(phrase, now); ok {
		if d := t.Sub(now); d > 0 {
			return FormatDuration(d)
		}
	}
	if strings.Contains(phrase, "at") {
		return "Resets " + phrase
	}
	return "Resets today " + phrase
}
