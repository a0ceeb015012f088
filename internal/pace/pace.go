// Package pace classifies quota usage against elapsed time within a fixed
// period, predicting whether the quota will run out before it resets.
package pace

import (
	"time"

	"github.com/pskel/usagebar/internal/resettime"
)

// Level is the severity of a bucket's burn rate.
type Level string

const (
	Critical Level = "critical"
	High     Level = "high"
	Elevated Level = "elevated"
	Nominal  Level = "nominal"
)

// Classify compares usagePercent against the share of the period already
// elapsed, derived from the reset phrase. When the phrase is missing or
// unparsable the period is assumed half-elapsed; that keeps the comparison
// neutral rather than treating a parse miss as an error.
//
// The 90% absolute ceiling is checked before the pace bands: a bucket that is
// under pace but nearly exhausted is still critical.
func Classify(usagePercent int, resetPhrase string, periodHours int, now time.Time) Level {
	elapsedPercent := 50
	if resetPhrase != "" && periodHours > 0 {
		if resetAt, ok := resettime.Parse(resetPhrase, now); ok {
			remainingHours := int(resetAt.Sub(now).Hours())
			elapsedHours := periodHours - remainingHours
			elapsedPercent = elapsedHours * 100 / periodHours
		}
	}

	delta := usagePercent - elapsedPercent
	switch {
	case usagePercent >= 90:
		return Critical
	case delta >= 20:
		return Critical
	case delta >= 10:
		return High
	case delta > 0:
		return Elevated
	default:
		return Nominal
	}
}

// Icon returns the colored-circle glyph used in menus and status lines.
func (l Level) Icon() string {
	switch l {
	case Critical:
		return "🔴"
	case High:
		return "🟠"
	case Elevated:
		return "🟡"
	default:
		return "🟢"
	}
}
