package sink

import (
	"context"
	"time"

	"github.com/c360/flowpipe/fitting"
	"github.com/c360/flowpipe/message"
)

// Terminator reports why a collection stopped.
type Terminator int

// Collection terminators.
const (
	// TermEOI means the pipeline signalled end-of-input.
	TermEOI Terminator = iota
	// TermTimeout means one wait period elapsed with no matching
	// traffic. Whatever arrived before the timeout is still returned.
	TermTimeout
)

// String returns the string representation of Terminator
func (t Terminator) String() string {
	switch t {
	case TermEOI:
		return "eoi"
	case TermTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// StageResult is one accumulated result attributed to the stage that
// emitted it.
type StageResult struct {
	From  string
	Value any
}

// StageLog is one accumulated log entry.
type StageLog struct {
	From string
	Text string
	At   time.Time
}

// Outcome is what a collection produced. Logs are in chronological arrival
// order; that guarantee is part of the contract. Result order is NOT: no
// semantic meaning attaches to the order results cross the sink, and
// callers must not rely on the order this implementation happens to
// produce.
type Outcome struct {
	Terminator Terminator
	Results    []StageResult
	Logs       []StageLog
}

// CollectOption configures a collection.
type CollectOption func(*collectConfig)

type collectConfig struct {
	wait time.Duration
}

// WithWait sets the per-receive wait bound (default DefaultWait).
func WithWait(d time.Duration) CollectOption {
	return func(c *collectConfig) {
		if d > 0 {
			c.wait = d
		}
	}
}

// releaser lets Collect free a token's queue once its pipeline has
// delivered everything it ever will.
type releaser interface {
	Release(tok message.Token)
}

// release frees the sink token's queue on addresses that support it.
// End-of-input is the final envelope a pipeline sends, so nothing can
// arrive for the token afterwards; holding the queue open would grow the
// mailbox by one dead queue per completed pipeline.
func release(snk fitting.Fitting) {
	if r, ok := snk.Addr.(releaser); ok {
		r.Release(snk.Token)
	}
}

// Collect drains the sink until end-of-input or a timeout, accumulating
// results and logs. Partial accumulation up to a timeout is always
// returned, never discarded: a pipeline that produced one result and then
// went quiet yields (TermTimeout, that result, its logs).
//
// Collect fails only on the same misuse conditions as Receive.
func Collect(ctx context.Context, snk fitting.Fitting, opts ...CollectOption) (Outcome, error) {
	cfg := collectConfig{wait: DefaultWait}
	for _, opt := range opts {
		opt(&cfg)
	}

	out := Outcome{}
	for {
		ev, err := Receive(ctx, snk, cfg.wait)
		if err != nil {
			return Outcome{}, err
		}
		switch ev.Kind {
		case EventResult:
			out.Results = append(out.Results, StageResult{From: ev.From, Value: ev.Value})
		case EventLog:
			out.Logs = append(out.Logs, StageLog{From: ev.From, Text: ev.Text, At: ev.At})
		case EventEOI:
			out.Terminator = TermEOI
			release(snk)
			return out, nil
		case EventTimeout:
			out.Terminator = TermTimeout
			return out, nil
		}
	}
}
