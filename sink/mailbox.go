package sink

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/c360/flowpipe/errors"
	"github.com/c360/flowpipe/fitting"
	"github.com/c360/flowpipe/message"
)

// DefaultQueueSize bounds each token's delivery queue. Arrivals beyond the
// bound are dropped, consistent with best-effort delivery.
const DefaultQueueSize = 1024

// Mailbox is a caller's receiving context. Many concurrently running
// pipelines may deliver into one Mailbox; envelopes are dispatched into
// per-token queues so that one pipeline's receive never consumes another
// pipeline's traffic. Envelopes for tokens nobody has drained yet stay
// queued for whoever owns them.
//
// Mailbox implements both fitting.Address (the send side delivers into it)
// and fitting.Inbox (the owning context drains it).
type Mailbox struct {
	id        string
	queueSize int
	tokens    message.TokenSource
	logger    *slog.Logger

	mu     sync.Mutex
	queues map[message.Token]chan message.Envelope
	closed bool

	// Stats (atomic)
	delivered atomic.Int64
	dropped   atomic.Int64
}

// Option configures a Mailbox.
type Option func(*Mailbox)

// WithQueueSize overrides the per-token queue bound.
func WithQueueSize(n int) Option {
	return func(m *Mailbox) {
		if n > 0 {
			m.queueSize = n
		}
	}
}

// WithTokenSource overrides the correlation token generator. Tests use this
// for deterministic tokens.
func WithTokenSource(src message.TokenSource) Option {
	return func(m *Mailbox) {
		if src != nil {
			m.tokens = src
		}
	}
}

// WithLogger sets the slog logger used for drop diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mailbox) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMailbox creates an empty receiving context.
func NewMailbox(opts ...Option) *Mailbox {
	m := &Mailbox{
		id:        uuid.NewString(),
		queueSize: DefaultQueueSize,
		tokens:    message.NewToken,
		logger:    slog.Default(),
		queues:    make(map[message.Token]chan message.Envelope),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewFitting binds a fresh correlation token and returns a complete sink
// identity addressed at this mailbox. Each call yields a distinct token.
func (m *Mailbox) NewFitting() fitting.Fitting {
	tok := m.tokens()
	m.queue(tok)
	return fitting.Fitting{
		Addr:  m,
		Token: tok,
		Route: fitting.SinkRoute,
	}
}

// Complete fills in the missing pieces of a caller-constructed sink
// identity: a sentinel routing function and, when absent, a fresh token
// bound to this mailbox. Callers commonly build a sink from a bare address
// and expect the protocol to finish it.
func (m *Mailbox) Complete(f fitting.Fitting) fitting.Fitting {
	if f.Addr == nil {
		f.Addr = m
	}
	if !f.Token.Valid() {
		f.Token = m.tokens()
	}
	if f.Route == nil {
		f.Route = fitting.SinkRoute
	}
	m.queue(f.Token)
	return f
}

// queue returns the delivery queue for token, creating it on demand.
func (m *Mailbox) queue(tok message.Token) chan message.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.queues[tok]; ok {
		return q
	}
	q := make(chan message.Envelope, m.queueSize)
	m.queues[tok] = q
	return q
}

// Send dispatches one envelope into its token's queue. Best-effort: a full
// queue or a closed mailbox drops the envelope without error surfaced to
// the sender beyond the attempt itself.
func (m *Mailbox) Send(env message.Envelope) error {
	if err := env.Validate(); err != nil {
		m.dropped.Add(1)
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.dropped.Add(1)
		return errors.ErrShuttingDown
	}
	q, ok := m.queues[env.Token]
	if !ok {
		q = make(chan message.Envelope, m.queueSize)
		m.queues[env.Token] = q
	}
	m.mu.Unlock()

	select {
	case q <- env:
		m.delivered.Add(1)
		return nil
	default:
		m.dropped.Add(1)
		m.logger.Debug("mailbox queue full, dropping envelope",
			"mailbox", m.id, "token", env.Token, "kind", env.Kind)
		return errors.ErrQueueFull
	}
}

// Next waits up to wait for the next envelope bound to token. It consumes
// only that token's traffic; other tokens' queues are untouched. The second
// return is false when the wait elapsed (or ctx was cancelled) with no
// matching arrival. Exactly one wait period per call, no internal retries.
func (m *Mailbox) Next(
	ctx context.Context, tok message.Token, wait time.Duration,
) (message.Envelope, bool) {
	q := m.queue(tok)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case env := <-q:
		return env, true
	case <-timer.C:
		return message.Envelope{}, false
	case <-ctx.Done():
		return message.Envelope{}, false
	}
}

// Release drops the queue for a token once its pipeline is fully drained.
// Subsequent deliveries for the token re-park in a fresh queue.
func (m *Mailbox) Release(tok message.Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.queues, tok)
}

// Alive reports whether the mailbox still accepts deliveries.
func (m *Mailbox) Alive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Close marks the mailbox dead. Queued envelopes remain drainable; new
// deliveries are dropped.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// String identifies the mailbox in logs and fitting representations.
func (m *Mailbox) String() string {
	return "mailbox(" + m.id + ")"
}

// Stats reports delivery counters for observability.
func (m *Mailbox) Stats() (delivered, dropped int64) {
	return m.delivered.Load(), m.dropped.Load()
}

// Queues reports how many token queues are currently held. A mailbox
// serving a long-running process should hold one per in-flight pipeline,
// not one per pipeline ever run.
func (m *Mailbox) Queues() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues)
}
