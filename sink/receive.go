package sink

import (
	"context"
	"time"

	"github.com/c360/flowpipe/errors"
	"github.com/c360/flowpipe/fitting"
	"github.com/c360/flowpipe/message"
)

// DefaultWait is the bounded wait applied when a caller passes a
// non-positive wait to Receive or Collect.
const DefaultWait = 5 * time.Second

// EventKind classifies what a single receive observed.
type EventKind int

// Receive outcomes. Timeout is a first-class outcome, not an error: the
// caller may retry the receive or abandon the pipeline.
const (
	EventTimeout EventKind = iota
	EventResult
	EventLog
	EventEOI
)

// String returns the string representation of EventKind
func (k EventKind) String() string {
	switch k {
	case EventTimeout:
		return "timeout"
	case EventResult:
		return "result"
	case EventLog:
		return "log"
	case EventEOI:
		return "eoi"
	default:
		return "unknown"
	}
}

// Event is the classified outcome of one receive: a result (From, Value),
// a log entry (From, Text), end-of-input, or timeout.
type Event struct {
	Kind  EventKind
	From  string
	Value any
	Text  string
	At    time.Time
}

// Receive waits up to wait for the next envelope matching the sink's
// correlation token and classifies it. Envelopes carrying other tokens are
// never observed here; they stay queued for whichever pipeline owns them.
// Exactly one wait period per call.
//
// Receive fails (rather than timing out) only on misuse: an invalid sink
// identity, or a sink whose address cannot be drained in this context.
func Receive(ctx context.Context, snk fitting.Fitting, wait time.Duration) (Event, error) {
	if err := snk.Valid(); err != nil {
		return Event{}, err
	}
	inbox, ok := snk.Addr.(fitting.Inbox)
	if !ok {
		return Event{}, errors.WrapInvalid(
			errors.ErrNotReceivable, "sink", "Receive", "address classification")
	}
	if wait <= 0 {
		wait = DefaultWait
	}

	env, ok := inbox.Next(ctx, snk.Token, wait)
	if !ok {
		return Event{Kind: EventTimeout}, nil
	}
	return classify(env), nil
}

func classify(env message.Envelope) Event {
	ev := Event{From: env.From, At: env.At}
	switch env.Kind {
	case message.KindResult:
		ev.Kind = EventResult
		ev.Value = env.Value
	case message.KindLog:
		ev.Kind = EventLog
		ev.Text = env.Text
	case message.KindEOI:
		ev.Kind = EventEOI
	}
	return ev
}
