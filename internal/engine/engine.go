// Package engine runs the usage telemetry loop: it polls the fetcher on an
// interval with failure backoff, owns the shared engine state, and pushes
// every state change to the registered sinks.
package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pskel/usagebar/internal/usage"
)

// Fetcher produces one usage snapshot per call. It blocks for up to its own
// internal budget and reports failures inside the snapshot, never as an error.
type Fetcher interface {
	Fetch() usage.Snapshot
}

// Cache persists the latest good snapshot for re-seeding after restart.
type Cache interface {
	Save(usage.Snapshot) error
}

// History records every good snapshot for later charting.
type History interface {
	Insert(usage.Snapshot) error
}

// Sink receives the engine state after every poll outcome.
type Sink interface {
	Update(State)
}

// State is the mutable engine state. All access goes through the engine's
// mutex; Current() hands out copies, so a reader always sees a complete
// snapshot, never a torn one.
type State struct {
	Current           usage.Snapshot
	LastError         string
	ConsecutiveErrors int
	NetworkUp         bool
}

// Config controls the poll cadence.
type Config struct {
	Interval   time.Duration // base wait between polls
	BackoffCap int           // max multiplier after consecutive failures
}

// DefaultConfig polls every 10 minutes, backing off to at most 30.
func DefaultConfig() Config {
	return Config{Interval: 10 * time.Minute, BackoffCap: 3}
}

type Engine struct {
	mu    sync.Mutex
	state State

	fetcher Fetcher
	cache   Cache
	history History
	sinks   []Sink

	cfg    Config
	logger *slog.Logger
	stop   chan struct{}
	wg     sync.WaitGroup
}

func New(fetcher Fetcher, cfg Config, logger *slog.Logger) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = DefaultConfig().BackoffCap
	}
	return &Engine{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
		stop:    make(chan struct{}),
		state:   State{NetworkUp: true},
	}
}

// SetCache attaches the snapshot cache. Optional; a nil cache is skipped.
func (e *Engine) SetCache(c Cache) { e.cache = c }

// SetHistory attaches the history sink. Optional; a nil history is skipped.
func (e *Engine) SetHistory(h History) { e.history = h }

// AddSink registers a presentation sink. Must be called before Start.
func (e *Engine) AddSink(s Sink) {
	e.sinks = append(e.sinks, s)
}

// Seed installs a previously cached snapshot as the current state without
// notifying sinks or touching the failure counters. Failed snapshots are
// ignored.
func (e *Engine) Seed(snap usage.Snapshot) {
	if snap.Failed() {
		return
	}
	e.mu.Lock()
	e.state.Current = snap
	e.mu.Unlock()
}

// Current returns a copy of the engine state. Never blocks on a poll in
// flight; the fetcher runs outside the lock.
func (e *Engine) Current() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start launches the scheduler loop. The first poll runs immediately;
// afterwards the loop waits NextWait between cycles until Stop.
func (e *Engine) Start() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.poll()
		for {
			select {
			case <-time.After(e.NextWait()):
				e.poll()
			case <-e.stop:
				return
			}
		}
	}()
}

// Stop ends the scheduler loop. A poll in flight completes first.
func (e *Engine) Stop() {
	close(e.stop)
	e.wg.Wait()
}

// RefreshNow runs one poll cycle out of band, on its own goroutine. It does
// not reset the scheduled timer; concurrent polls serialize their state
// writes on the mutex and the last writer wins, which is fine because both
// read the same upstream source moments apart.
func (e *Engine) RefreshNow() {
	go e.poll()
}

// NextWait is the delay before the next scheduled poll: the base interval,
// stretched by the consecutive-failure count up to the cap.
func (e *Engine) NextWait() time.Duration {
	e.mu.Lock()
	errs := e.state.ConsecutiveErrors
	e.mu.Unlock()
	if errs == 0 {
		return e.cfg.Interval
	}
	if errs > e.cfg.BackoffCap {
		errs = e.cfg.BackoffCap
	}
	return e.cfg.Interval * time.Duration(errs)
}

func (e *Engine) poll() {
	snap := e.fetcher.Fetch()
	state := e.Apply(snap)

	if !snap.Failed() {
		// Fire-and-forget: cache/history failures never affect engine state.
		if e.cache != nil {
			if err := e.cache.Save(snap); err != nil {
				e.logger.Warn("cache save failed", "err", err)
			}
		}
		if e.history != nil {
			if err := e.history.Insert(snap); err != nil {
				e.logger.Warn("history insert failed", "err", err)
			}
		}
	}

	for _, s := range e.sinks {
		s.Update(state)
	}
}

// Apply folds one poll outcome into the engine state and returns the
// resulting state copy. A failed snapshot never replaces a good one: only
// the error bookkeeping changes.
func (e *Engine) Apply(snap usage.Snapshot) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if snap.Failed() {
		e.state.LastError = snap.Err
		e.state.ConsecutiveErrors++
		if snap.ErrKind == usage.FailConnectivity {
			e.state.NetworkUp = false
		}
		e.logger.Warn("usage poll failed",
			"kind", string(snap.ErrKind),
			"err", snap.Err,
			"consecutive", e.state.ConsecutiveErrors,
		)
		return e.state
	}

	e.state.Current = snap
	e.state.LastError = ""
	e.state.ConsecutiveErrors = 0
	e.state.NetworkUp = true
	e.logger.Debug("usage updated",
		"session", snap.Session.Pct(),
		"weekly", snap.WeeklyAll.Pct(),
		"sonnet", snap.WeeklySonnet.Pct(),
	)
	return e.state
}
