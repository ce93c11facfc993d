package engine

import "time"

// Debounce is a restartable single-shot timer: Schedule arms (or re-arms)
// it, Cancel disarms it, and C exposes the fire channel for use in a
// select loop. C returns nil while disarmed, which blocks that select case.
// It is not safe for concurrent use; the engine loop owns it.
type Debounce struct {
	delay time.Duration
	timer *time.Timer
}

// NewDebounce creates a disarmed debounce timer with the given delay.
func NewDebounce(delay time.Duration) *Debounce {
	return &Debounce{delay: delay}
}

// Schedule arms the timer, discarding any pending expiry.
func (d *Debounce) Schedule() {
	d.Cancel()
	d.timer = time.NewTimer(d.delay)
}

// Cancel disarms the timer. Safe to call when already disarmed or fired.
func (d *Debounce) Cancel() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// C returns the expiry channel, or nil while disarmed. After receiving
// from it the owner must call Cancel to disarm.
func (d *Debounce) C() <-chan time.Time {
	if d.timer == nil {
		return nil
	}
	return d.timer.C
}
