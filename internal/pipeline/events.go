package pipeline

import "time"

// Event is one progress notification emitted while a run advances
// through its stages. The monitor hub fans these out to connected
// websocket clients.
type Event struct {
	RunID   string    `json:"run_id"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	Count   int       `json:"count,omitempty"`
	Time    time.Time `json:"time"`
}

// Sink receives pipeline events. Publish must not block; slow
// consumers are the sink's problem.
type Sink interface {
	Publish(Event)
}

type nopSink struct{}

func (nopSink) Publish(Event) {}
