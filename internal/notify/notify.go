// Package notify fires a system notification, and optional webhook/ntfy
// POSTs, when a quota bucket's burn rate first turns critical.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"sync"
	"time"

	"github.com/pskel/usagebar/internal/engine"
	"github.com/pskel/usagebar/internal/pace"
	"github.com/pskel/usagebar/internal/usage"
)

// Config holds notification settings.
type Config struct {
	Enabled bool   `json:"enabled"`
	Webhook string `json:"webhook"`
	NtfyURL string `json:"ntfy"`
}

// Notifier watches engine updates and alerts on critical transitions. The
// transition memory lives here, not in the engine.
type Notifier struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.Mutex
	prev map[string]pace.Level
	now  func() time.Time
}

// New returns a Notifier with the given config.
func New(cfg Config, logger *slog.Logger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		logger: logger,
		prev:   make(map[string]pace.Level),
		now:    time.Now,
	}
}

// SetNow replaces the time source. Used in tests only.
func (n *Notifier) SetNow(fn func() time.Time) {
	n.now = fn
}

// Update implements engine.Sink. Failed polls are ignored; stale data should
// not re-trigger alerts.
func (n *Notifier) Update(st engine.State) {
	if !n.cfg.Enabled || st.LastError != "" {
		return
	}
	now := n.now()
	u := st.Current
	n.check("session", "Session", u.Session, usage.SessionPeriodHours, now)
	n.check("weekly_all", "Weekly (all models)", u.WeeklyAll, usage.WeeklyPeriodHours, now)
	n.check("weekly_sonnet", "Weekly (Sonnet)", u.WeeklySonnet, usage.WeeklyPeriodHours, now)
}

func (n *Notifier) check(key, label string, item usage.Item, periodHours int, now time.Time) {
	if !item.Known() {
		return
	}
	level := pace.Classify(item.Pct(), item.Resets, periodHours, now)

	n.mu.Lock()
	prev := n.prev[key]
	n.prev[key] = level
	n.mu.Unlock()

	if level != pace.Critical || prev == pace.Critical {
		return
	}

	msg := fmt.Sprintf("%s quota critical: %d%% used", label, item.Pct())
	if item.Resets != "" {
		msg += ", resets " + item.Resets
	}
	n.sendSystemNotification(msg)
	if n.cfg.Webhook != "" {
		n.sendWebhook(label, item)
	}
	if n.cfg.NtfyURL != "" {
		n.sendNtfy(label, item, msg)
	}
}

func (n *Notifier) sendSystemNotification(msg string) {
	script := fmt.Sprintf(`display notification %q with title "usagebar"`, msg)
	exec.Command("osascript", "-e", script).Run()
}

type webhookPayload struct {
	Bucket    string `json:"bucket"`
	Percent   int    `json:"percent"`
	Resets    string `json:"resets,omitempty"`
	Level     string `json:"level"`
	Timestamp string `json:"timestamp"`
}

func (n *Notifier) sendWebhook(label string, item usage.Item) {
	payload := webhookPayload{
		Bucket:    label,
		Percent:   item.Pct(),
		Resets:    item.Resets,
		Level:     string(pace.Critical),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(n.cfg.Webhook, "application/json", bytes.NewReader(data))
	if err != nil {
		n.logger.Warn("webhook notification failed", "err", err)
		return
	}
	resp.Body.Close()
}

type ntfyPayload struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority int      `json:"priority"`
	Tags     []string `json:"tags"`
}

func (n *Notifier) sendNtfy(label string, item usage.Item, msg string) {
	payload := ntfyPayload{
		Title:    fmt.Sprintf("%s quota critical", label),
		Message:  msg,
		Priority: 4,
		Tags:     []string{"rotating_light"},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(n.cfg.NtfyURL, "application/json", bytes.NewReader(data))
	if err != nil {
		n.logger.Warn("ntfy notification failed", "err", err)
		return
	}
	resp.Body.Close()
}
