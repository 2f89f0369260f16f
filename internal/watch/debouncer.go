package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of filesystem changes into single deliveries
// on an event channel. Only the last change within the quiet interval is
// published, and changes that arrive while a previous delivery is still
// sitting unread in the channel are folded into it.
type Debouncer struct {
	quiet time.Duration
	out   chan<- Event

	mu    sync.Mutex
	timer *time.Timer
	last  Event
}

// NewDebouncer creates a debouncer that waits for quiet before publishing
// the last recorded event to out. A zero interval publishes on the next
// timer tick, effectively passing events straight through.
func NewDebouncer(quiet time.Duration, out chan<- Event) *Debouncer {
	return &Debouncer{
		quiet: quiet,
		out:   out,
	}
}

// Record notes a change. If no further changes arrive within the quiet
// interval, the last recorded event is published.
func (d *Debouncer) Record(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = event

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.quiet, d.publish)
}

// Stop cancels any pending publication.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) publish() {
	d.mu.Lock()
	event := d.last
	d.mu.Unlock()

	// Non-blocking send: an undelivered event already means "at least one
	// change", so further ones are coalesced rather than queued.
	select {
	case d.out <- event:
	default:
	}
}
