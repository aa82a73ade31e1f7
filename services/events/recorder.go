package eventsvc

import (
	"context"
	"sync"

	"github.com/etarip26/EduConnect/core"
)

// Recorder keeps published events in memory. It stands in for the broker when none is configured.
type Recorder struct {
	mu     sync.Mutex
	events []core.Event
	limit  int
}

var _ core.EventPublisher = (*Recorder)(nil)

// NewRecorder keeps at most `limit` events, dropping the oldest; 0 keeps none.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Publish(_ context.Context, evt core.Event) error {
	if r.limit == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	if over := len(r.events) - r.limit; over > 0 {
		r.events = r.events[over:]
	}
	return nil
}

// Events returns a copy of the recorded events of type `typ`, or all of them when typ is empty.
func (r *Recorder) Events(typ string) []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Event, 0, len(r.events))
	for _, evt := range r.events {
		if typ == "" || evt.Type == typ {
			out = append(out, evt)
		}
	}
	return out
}
