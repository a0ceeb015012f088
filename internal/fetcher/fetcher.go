// Package fetcher extracts the current quota usage from Claude Code. There is
// no API for the /usage screen, so it drives a detached tmux session running
// the CLI, sends /usage, captures the pane and scrapes the percentages out of
// the transcript.
//
// Every failure mode is folded into the returned snapshot (Err + ErrKind);
// Fetch never returns a Go error to the scheduler.
package fetcher

import (
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pskel/usagebar/internal/usage"
)

const (
	connectivityProbe = "api.anthropic.com"
	claudeCommand     = "claude --dangerously-skip-permissions"
)

// Client fetches usage snapshots through tmux. The delay fields exist so
// tests can shrink the waits; zero values get the defaults from New.
type Client struct {
	logger *slog.Logger

	startupDelay time.Duration // CLI boot time before /usage is accepted
	renderDelay  time.Duration // time for the usage screen to draw
}

func New(logger *slog.Logger) *Client {
	return &Client{
		logger:       logger,
		startupDelay: 5 * time.Second,
		renderDelay:  4 * time.Second,
	}
}

// IsAvailable reports whether tmux is installed.
func IsAvailable() bool {
	return exec.Command("tmux", "-V").Run() == nil
}

// Fetch runs one scrape cycle and returns the snapshot. Total wall time is
// bounded by the fixed delays plus the ping timeout.
func (c *Client) Fetch() usage.Snapshot {
	if !networkReachable() {
		return failed(usage.FailConnectivity, "no network connection")
	}

	session := fmt.Sprintf("usagebar-%x", time.Now().UnixMilli())
	if err := exec.Command("tmux", "new-session", "-d", "-s", session,
		"-x", "120", "-y", "50").Run(); err != nil {
		return failed(usage.FailFetch, fmt.Sprintf("start tmux session: %v", err))
	}
	defer exec.Command("tmux", "kill-session", "-t", session).Run()

	sendKeys(session, claudeCommand, true)
	time.Sleep(c.startupDelay)

	sendKeys(session, "/usage", false)
	time.Sleep(time.Second)
	exec.Command("tmux", "send-keys", "-t", session, "Enter").Run()
	time.Sleep(c.renderDelay)

	out, err := exec.Command("tmux", "capture-pane", "-t", session,
		"-p", "-S", "-50").Output()
	sendKeys(session, "/exit", true)
	if err != nil {
		return failed(usage.FailFetch, fmt.Sprintf("capture pane: %v", err))
	}

	snap := ParseTranscript(string(out), time.Now())
	if snap.Failed() {
		c.logger.Debug("usage transcript unparsable", "bytes", len(out))
	}
	return snap
}

func sendKeys(session, keys string, enter bool) {
	if enter {
		exec.Command("tmux", "send-keys", "-t", session, keys, "Enter").Run()
		return
	}
	exec.Command("tmux", "send-keys", "-t", session, "-l", keys).Run()
}

func networkReachable() bool {
	return exec.Command("ping", "-c", "1", "-W", "2", connectivityProbe).Run() == nil
}

func failed(kind usage.FailureKind, msg string) usage.Snapshot {
	return usage.Snapshot{Err: msg, ErrKind: kind}
}

var (
	percentRe = regexp.MustCompile(`(\d+)%\s*used`)
	resetsRe  = regexp.MustCompile(`Resets?\s+(.+?)(?:\s*\(|$)`)
)

// ParseTranscript scrapes a captured /usage screen. Section headers switch
// the bucket the following percent/reset lines belong to. A transcript with
// no usable percentages at all becomes a parse failure.
func ParseTranscript(content string, now time.Time) usage.Snapshot {
	snap := usage.Snapshot{Timestamp: now.Format("2006-01-02T15:04:05")}

	var current *usage.Item
	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.Contains(line, "Current session"):
			current = &snap.Session
		case strings.Contains(line, "Current week (all models)"):
			current = &snap.WeeklyAll
		case strings.Contains(line, "Current week (Sonnet only)"):
			current = &snap.WeeklySonnet
		}
		if current == nil {
			continue
		}
		if m := percentRe.FindStringSubmatch(line); m != nil {
			if pct, err := strconv.Atoi(m[1]); err == nil {
				current.Percent = usage.IntPtr(pct)
			}
		}
		if m := resetsRe.FindStringSubmatch(line); m != nil {
			current.Resets = strings.TrimSpace(m[1])
		}
	}

	if !snap.Session.Known() && !snap.WeeklyAll.Known() {
		return failed(usage.FailParse, "could not parse usage data")
	}
	return snap
}
