package message

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360/flowpipe/errors"
)

// Kind identifies the delivery message variant.
type Kind string

// The three variants any stage or worker may deliver to a sink.
const (
	// KindResult carries one output value from a stage.
	KindResult Kind = "result"
	// KindLog carries one diagnostic log entry from a stage.
	KindLog Kind = "log"
	// KindEOI signals that no further results will arrive for this
	// pipeline instance.
	KindEOI Kind = "eoi"
)

// Valid reports whether k is one of the known variants.
func (k Kind) Valid() bool {
	switch k {
	case KindResult, KindLog, KindEOI:
		return true
	default:
		return false
	}
}

// Envelope is the wire unit of the sink delivery protocol. Every envelope
// carries the sink's correlation token and, for results and logs, the
// emitting stage's name. Envelopes are created at emission time, consumed
// exactly once in the sink's context, then discarded; nothing is persisted.
type Envelope struct {
	Kind  Kind      `json:"kind"`
	Token Token     `json:"token"`
	From  string    `json:"from,omitempty"`
	Value any       `json:"value,omitempty"`
	Text  string    `json:"text,omitempty"`
	At    time.Time `json:"at"`
}

// NewResult constructs a result envelope tagged with the sink's token.
func NewResult(token Token, from string, value any) Envelope {
	return Envelope{
		Kind:  KindResult,
		Token: token,
		From:  from,
		Value: value,
		At:    time.Now().UTC(),
	}
}

// NewLog constructs a log envelope tagged with the sink's token.
func NewLog(token Token, from, text string) Envelope {
	return Envelope{
		Kind:  KindLog,
		Token: token,
		From:  from,
		Text:  text,
		At:    time.Now().UTC(),
	}
}

// NewEOI constructs an end-of-input envelope for the sink's token.
func NewEOI(token Token) Envelope {
	return Envelope{
		Kind:  KindEOI,
		Token: token,
		At:    time.Now().UTC(),
	}
}

// Validate checks the envelope is well-formed for delivery.
func (e Envelope) Validate() error {
	if !e.Kind.Valid() {
		return errors.WrapInvalid(
			fmt.Errorf("unknown kind %q", e.Kind),
			"Envelope", "Validate", "kind check")
	}
	if !e.Token.Valid() {
		return errors.WrapInvalid(errors.ErrTokenMissing, "Envelope", "Validate", "token check")
	}
	return nil
}

// Marshal encodes the envelope to its JSON wire form for cross-node
// transports. Result values round-trip through encoding/json, so remote
// deliveries see map/slice/float shapes rather than original Go types.
func (e Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Envelope", "Marshal", "encode wire format")
	}
	return data, nil
}

// Unmarshal decodes an envelope from its JSON wire form and validates it.
func Unmarshal(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, errors.WrapInvalid(err, "Envelope", "Unmarshal", "decode wire format")
	}
	if err := e.Validate(); err != nil {
		return Envelope{}, err
	}
	return e, nil
}
