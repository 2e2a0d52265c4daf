// Package transport carries sink envelopes between pipeline nodes over NATS.
package transport

import (
	"context"
	"fmt"

	"github.com/c360/flowpipe/errors"
	"github.com/c360/flowpipe/message"
)

// SubjectPrefix is the root of all sink delivery subjects.
const SubjectPrefix = "flowpipe.sink"

// SinkSubject builds the delivery subject for a sink identifier.
func SinkSubject(id string) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, id)
}

// Publisher is the connection surface an address needs to send envelopes.
// *natsclient.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	IsHealthy() bool
}

// Address delivers envelopes to a remote sink by publishing them to a
// NATS subject. It implements fitting.Address; delivery is best-effort
// and the send side learns nothing about whether the owner consumed it.
type Address struct {
	subject string
	conn    Publisher
}

// NewAddress creates an address that publishes to the given subject.
func NewAddress(conn Publisher, subject string) (*Address, error) {
	if conn == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidSink, "Address", "NewAddress", "nil connection")
	}
	if subject == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidSink, "Address", "NewAddress", "empty subject")
	}
	return &Address{subject: subject, conn: conn}, nil
}

// Send marshals the envelope and publishes it. Publish failures are
// returned but callers delivering sink traffic are expected to ignore
// them; dropped envelopes are part of the delivery contract.
func (a *Address) Send(env message.Envelope) error {
	if err := env.Validate(); err != nil {
		return errors.Wrap(err, "Address", "Send", "envelope validation")
	}

	data, err := env.Marshal()
	if err != nil {
		return errors.WrapInvalid(err, "Address", "Send", "marshal envelope")
	}

	if err := a.conn.Publish(context.Background(), a.subject, data); err != nil {
		return errors.WrapTransient(err, "Address", "Send", "publish envelope")
	}

	return nil
}

// Alive reports whether the underlying connection is usable.
func (a *Address) Alive() bool {
	return a.conn.IsHealthy()
}

// String returns the delivery subject.
func (a *Address) String() string {
	return a.subject
}
