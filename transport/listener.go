package transport

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/c360/flowpipe/errors"
	"github.com/c360/flowpipe/message"
	"github.com/c360/flowpipe/sink"
)

// Subscriber is the connection surface a listener needs to receive
// envelopes. *natsclient.Client satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) error
}

// Listener bridges a NATS delivery subject into a local mailbox so
// remote sink traffic is received through the same Inbox interface as
// in-process traffic. Malformed envelopes are dropped and counted.
type Listener struct {
	conn    Subscriber
	mailbox *sink.Mailbox
	subject string
	logger  *slog.Logger

	started  atomic.Bool
	received atomic.Int64
	dropped  atomic.Int64
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithListenerLogger sets the logger for drop diagnostics.
func WithListenerLogger(logger *slog.Logger) ListenerOption {
	return func(l *Listener) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewListener creates a listener that feeds the subject's traffic into
// the given mailbox.
func NewListener(conn Subscriber, mbox *sink.Mailbox, subject string, opts ...ListenerOption) (*Listener, error) {
	if conn == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidSink, "Listener", "NewListener", "nil connection")
	}
	if mbox == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidSink, "Listener", "NewListener", "nil mailbox")
	}
	if subject == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidSink, "Listener", "NewListener", "empty subject")
	}

	l := &Listener{
		conn:    conn,
		mailbox: mbox,
		subject: subject,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Start subscribes to the delivery subject. The subscription lives until
// the connection is closed.
func (l *Listener) Start(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Listener", "Start", "listener already started")
	}

	err := l.conn.Subscribe(ctx, l.subject, l.handle)
	if err != nil {
		l.started.Store(false)
		return errors.WrapTransient(err, "Listener", "Start", "subscribe to delivery subject")
	}

	l.logger.Debug("sink listener started", "subject", l.subject)
	return nil
}

// handle decodes an envelope and forwards it to the mailbox.
func (l *Listener) handle(_ context.Context, data []byte) {
	l.received.Add(1)

	env, err := message.Unmarshal(data)
	if err != nil {
		l.dropped.Add(1)
		l.logger.Debug("dropping malformed envelope", "subject", l.subject, "error", err)
		return
	}

	// Mailbox enforces token isolation; a full queue drops the envelope,
	// which matches the best-effort delivery contract.
	_ = l.mailbox.Send(env)
}

// Subject returns the delivery subject the listener is bound to.
func (l *Listener) Subject() string {
	return l.subject
}

// Stats returns receive and drop counts.
func (l *Listener) Stats() (received, dropped int64) {
	return l.received.Load(), l.dropped.Load()
}
