// Package ui renders the usage status as a terminal panel: the same title and
// per-bucket lines a menu-bar build would show, plus usage history sparklines.
package ui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pskel/usagebar/internal/config"
	"github.com/pskel/usagebar/internal/engine"
	"github.com/pskel/usagebar/internal/history"
	"github.com/pskel/usagebar/internal/statusbar"
)

const sparkChars = "▁▂▃▄▅▆▇█"

type App struct {
	app  *tview.Application
	view *tview.TextView

	eng     *engine.Engine
	store   *history.DB
	cfg     config.Config
	cfgPath string
	logger  *slog.Logger
}

func NewApp(eng *engine.Engine, store *history.DB, cfg config.Config, cfgPath string, logger *slog.Logger) *App {
	a := &App{
		app:     tview.NewApplication(),
		view:    tview.NewTextView(),
		eng:     eng,
		store:   store,
		cfg:     cfg,
		cfgPath: cfgPath,
		logger:  logger,
	}

	a.view.SetBorder(true).
		SetTitle(" Claude Code Usage ").
		SetTitleAlign(tview.AlignLeft).
		SetBorderColor(ColorBorder).
		SetBackgroundColor(tcell.ColorDefault)
	a.view.SetDynamicColors(true)
	a.view.SetTextColor(ColorText)

	a.view.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEscape, event.Rune() == 'q', event.Rune() == 'Q':
			a.app.Stop()
			return nil
		case event.Rune() == 'r', event.Rune() == 'R':
			a.view.SetText(a.buildText(a.eng.Current()) + "\n  [yellow]Refreshing...[-]")
			a.eng.RefreshNow()
			return nil
		case event.Rune() == 'p', event.Rune() == 'P':
			a.cfg.ShowPercentages = !a.cfg.ShowPercentages
			if err := config.Save(a.cfgPath, a.cfg); err != nil {
				a.logger.Warn("could not persist settings", "err", err)
			}
			a.redraw(a.eng.Current())
			return nil
		}
		return event
	})

	return a
}

// Update implements engine.Sink.
func (a *App) Update(st engine.State) {
	a.app.QueueUpdateDraw(func() {
		a.view.SetText(a.buildText(st))
	})
}

func (a *App) redraw(st engine.State) {
	a.view.SetText(a.buildText(st))
}

// Run blocks until the user quits.
func (a *App) Run() error {
	a.redraw(a.eng.Current())
	return a.app.SetRoot(a.view, true).Run()
}

func (a *App) buildText(st engine.State) string {
	now := time.Now()
	var sb strings.Builder

	sb.WriteString("\n")
	title := statusbar.Title(st, a.cfg.ShowPercentages)
	if title == "" {
		title = "(percentages hidden)"
	}
	sb.WriteString(fmt.Sprintf("  [::b]%s[-:-:-]\n\n", title))

	for _, line := range statusbar.Lines(st, now) {
		sb.WriteString("  " + line + "\n")
	}

	if !st.NetworkUp {
		sb.WriteString("\n  [red]network unreachable[-]\n")
	}

	a.writeSparklines(&sb)

	if ts := lastFetched(st, now); ts != "" {
		sb.WriteString(fmt.Sprintf("\n  [dim]Fetched %s[-]\n", ts))
	}
	sb.WriteString("\n  [green]R[-] refresh  [green]P[-] toggle %  [green]Q/Esc[-] quit")
	return sb.String()
}

func (a *App) writeSparklines(sb *strings.Builder) {
	rows, err := a.store.Recent(48)
	if err != nil || len(rows) < 2 {
		return
	}
	sb.WriteString("\n  [yellow]History (newest right)[-]\n")
	sb.WriteString(fmt.Sprintf("  Session %s\n", sparkline(rows, func(r history.Row) *int { return r.SessionPercent })))
	sb.WriteString(fmt.Sprintf("  Weekly  %s\n", sparkline(rows, func(r history.Row) *int { return r.WeeklyPercent })))
}

// sparkline renders rows (newest first) oldest-to-left.
func sparkline(rows []history.Row, val func(history.Row) *int) string {
	runes := []rune(sparkChars)
	var sb strings.Builder
	for i := len(rows) - 1; i >= 0; i-- {
		p := val(rows[i])
		if p == nil {
			sb.WriteRune(' ')
			continue
		}
		v := *p
		if v < 0 {
			v = 0
		}
		if v > 100 {
			v = 100
		}
		sb.WriteRune(runes[v*(len(runes)-1)/100])
	}
	return sb.String()
}

func lastFetched(st engine.State, now time.Time) string {
	clean, _, _ := strings.Cut(st.Current.Timestamp, ".")
	t, err := time.ParseInLocation("2006-01-02T15:04:05", clean, now.Location())
	if err != nil {
		return ""
	}
	return humanize.Time(t)
}
