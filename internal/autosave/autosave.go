// Package autosave implements a debounced write-behind: every change
// schedules a save, rapid changes coalesce into one write after a quiet
// period, and Flush forces any pending save to run immediately.
package autosave

import (
	"context"
	"sync"
	"time"

	"study-planner/internal/logger"
	"study-planner/internal/metrics"
)

// SaveFunc persists the current state.
type SaveFunc func(ctx context.Context) error

// Writer coalesces save requests.
type Writer struct {
	name  string
	delay time.Duration
	save  SaveFunc
	log   *logger.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	closed  bool

	saveMu sync.Mutex
}

func New(name string, delay time.Duration, save SaveFunc, log *logger.Logger) *Writer {
	if log == nil {
		log = logger.Nop()
	}
	return &Writer{
		name:  name,
		delay: delay,
		save:  save,
		log:   log.WithComponent("autosave").WithFields("store", name),
	}
}

// Schedule restarts the quiet period. After Close it is a no-op.
func (w *Writer) Schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.fire)
}

// Pending reports whether a save is waiting for the quiet period to end.
func (w *Writer) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

func (w *Writer) fire() {
	if err := w.run(context.Background()); err != nil {
		w.log.Errorw("background save failed", "error", err)
	}
}

// Flush runs a pending save now and returns its error.
func (w *Writer) Flush(ctx context.Context) error {
	return w.run(ctx)
}

// Close stops accepting new saves, then flushes what is pending.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.run(ctx)
}

func (w *Writer) run(ctx context.Context) error {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	w.mu.Lock()
	if !w.pending {
		w.mu.Unlock()
		return nil
	}
	w.pending = false
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.save(ctx)
	metrics.AutosaveFlushes.WithLabelValues(w.name, metrics.Result(err)).Inc()
	if err != nil {
		// Keep the change pending so the next flush retries it.
		w.mu.Lock()
		w.pending = true
		w.mu.Unlock()
	}
	return err
}
