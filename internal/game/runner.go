package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jwebster45206/platformer/pkg/sheet"
)

// historySize bounds the log entries carried in Runner frames.
const historySize = 50

// Runner drives a Game on a fixed tick from its own goroutine. Input and
// reloads may be submitted from any goroutine; they are applied at the
// next tick boundary.
type Runner struct {
	mu      sync.Mutex
	game    *Game
	pending Input
	reload  *sheet.Data
	latest  Frame
	history []LogEntry

	interval time.Duration
	onReload func(*sheet.Data)
	logger   *slog.Logger
}

func NewRunner(g *Game, interval time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		game:     g,
		interval: interval,
		latest:   g.Snapshot(),
		logger:   logger,
	}
}

// OnReload registers a hook that runs on the tick goroutine after new data
// is applied.
func (r *Runner) OnReload(fn func(*sheet.Data)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onReload = fn
}

// Submit queues input for the next tick.
func (r *Runner) Submit(in Input) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = r.pending.Merge(in)
}

// Reload queues new sheet data. A later call before the next tick replaces
// an earlier one.
func (r *Runner) Reload(data *sheet.Data) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reload = data
}

// Latest returns the frame produced by the most recent tick. Its Recent
// field holds log entries from earlier ticks too, so pollers slower than
// the tick rate miss nothing still in the window.
func (r *Runner) Latest() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// Step runs one tick of dt.
func (r *Runner) Step(dt time.Duration) Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reload != nil {
		data := r.reload
		r.reload = nil
		if err := r.game.Reload(data); err != nil {
			r.logger.Error("Failed to apply sheet reload", "error", err)
		} else if r.onReload != nil {
			r.onReload(data)
		}
	}

	in := r.pending
	// The axis is held between submissions; edges fire once.
	r.pending = Input{Horizontal: in.Horizontal}
	f := r.game.Tick(in, dt)
	for _, text := range f.Log {
		r.history = append(r.history, LogEntry{Tick: f.Tick, Text: text})
	}
	if n := len(r.history); n > historySize {
		r.history = append([]LogEntry(nil), r.history[n-historySize:]...)
	}
	f.Recent = append([]LogEntry(nil), r.history...)
	r.latest = f
	return f
}

// Run ticks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Simulation started", "interval", r.interval)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Simulation stopped", "ticks", r.Latest().Tick)
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			// A stalled process must not produce one huge step.
			if dt > 4*r.interval {
				dt = r.interval
			}
			r.Step(dt)
		}
	}
}
