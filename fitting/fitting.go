// Package fitting defines the addressable identities that name the moving
// parts of a pipeline: the per-stage handle returned by exec, the sink
// handle that collects results, and the stage specification the caller
// submits. One Fitting identifies one stage's control endpoint.
package fitting

import (
	"context"
	"fmt"
	"time"

	"github.com/c360/flowpipe/errors"
	"github.com/c360/flowpipe/message"
)

// Address is an opaque handle to the process that should receive envelopes
// for a stage. Send is best-effort: delivery to an abandoned address is
// simply unreceived, and no acknowledgement exists at this layer.
type Address interface {
	// Send delivers one envelope. Implementations must not block
	// indefinitely; a full or closed destination drops the envelope.
	Send(env message.Envelope) error

	// Alive reports whether the address can still receive. Checked at
	// setup time only; delivery never re-checks.
	Alive() bool

	// String identifies the address for logs and wire representations.
	String() string
}

// Inbox is an Address that the owning context can drain locally. The sink's
// address must be an Inbox; intermediate stage addresses need not be.
type Inbox interface {
	Address

	// Next waits up to wait for the next envelope bound to token. The
	// second return is false when the wait elapsed with no matching
	// arrival. Envelopes bound to other tokens are never consumed here.
	Next(ctx context.Context, token message.Token, wait time.Duration) (message.Envelope, bool)
}

// Fitting identifies one pipeline stage's control endpoint: a delivery
// address, a correlation token unique to the pipeline instance, and the
// routing function the external ring layer uses to place inputs.
type Fitting struct {
	Addr  Address
	Token message.Token
	Route RoutingFn
}

// Valid enforces the identity invariant: a live address and a present
// token, checked at setup time rather than at delivery time.
func (f Fitting) Valid() error {
	if f.Addr == nil {
		return errors.WrapInvalid(errors.ErrNoSinkTarget, "Fitting", "Valid", "address presence")
	}
	if !f.Addr.Alive() {
		return errors.WrapInvalid(errors.ErrNoSinkTarget, "Fitting", "Valid", "address liveness")
	}
	if !f.Token.Valid() {
		return errors.WrapInvalid(errors.ErrTokenMissing, "Fitting", "Valid", "token presence")
	}
	return nil
}

func (f Fitting) String() string {
	addr := "<nil>"
	if f.Addr != nil {
		addr = f.Addr.String()
	}
	return fmt.Sprintf("fitting(%s token=%s)", addr, f.Token)
}
