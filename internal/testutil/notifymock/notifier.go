package notifymock

import (
	"context"
	"sync"

	"pawn-settlement/internal/notify"
)

// Recorder captures dispatched events instead of sending them.
type Recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *Recorder) Dispatch(_ context.Context, ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

// States lists the State of every recorded event, in order.
func (r *Recorder) States() []string {
	var out []string
	for _, ev := range r.Events() {
		out = append(out, ev.State)
	}
	return out
}
