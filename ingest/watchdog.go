package ingest

import (
	"context"
	"time"
)

// Watchdog cancels a context when Kick is not called within the timeout. A
// timeout <= 0 yields an inert watchdog that never fires.
type Watchdog struct {
	timeout time.Duration
	timer   *time.Timer
	cancel  context.CancelCauseFunc
}

// NewWatchdog derives a context that is cancelled with ErrStalled once the
// watchdog fires. Stop must be called to release the context.
func NewWatchdog(parent context.Context, timeout time.Duration) (context.Context, *Watchdog) {
	ctx, cancel := context.WithCancelCause(parent)
	w := &Watchdog{timeout: timeout, cancel: cancel}
	if timeout > 0 {
		w.timer = time.AfterFunc(timeout, func() {
			cancel(ErrStalled)
		})
	}
	return ctx, w
}

// Kick resets the timeout. Once fired, kicking has no effect.
func (w *Watchdog) Kick() {
	if w.timer == nil {
		return
	}
	w.timer.Reset(w.timeout)
}

// Stop disarms the watchdog and releases its context.
func (w *Watchdog) Stop() {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.cancel(context.Canceled)
}
