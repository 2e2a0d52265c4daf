package transport

import (
	"encoding/json"

	"github.com/c360/flowpipe/errors"
	"github.com/c360/flowpipe/fitting"
	"github.com/c360/flowpipe/message"
)

// WireFitting is the serializable form of a sink fitting. It travels
// with work distributed to remote stage workers, which resolve it
// against their own connection to obtain a sendable fitting.
type WireFitting struct {
	Subject string        `json:"subject"`
	Token   message.Token `json:"token"`
}

// Export captures a fitting's delivery coordinates for the wire. The
// fitting's address must be subject-based (its String form is the
// subject); in-process mailbox addresses cannot cross node boundaries.
func Export(f fitting.Fitting) (WireFitting, error) {
	if err := f.Valid(); err != nil {
		return WireFitting{}, errors.WrapInvalid(err, "WireFitting", "Export", "invalid fitting")
	}
	return WireFitting{
		Subject: f.Addr.String(),
		Token:   f.Token,
	}, nil
}

// Resolve turns the wire form back into a sendable fitting bound to the
// local connection.
func (w WireFitting) Resolve(conn Publisher) (fitting.Fitting, error) {
	if !w.Token.Valid() {
		return fitting.Fitting{}, errors.WrapInvalid(errors.ErrTokenMissing, "WireFitting", "Resolve", "missing token")
	}

	addr, err := NewAddress(conn, w.Subject)
	if err != nil {
		return fitting.Fitting{}, errors.Wrap(err, "WireFitting", "Resolve", "build address")
	}

	return fitting.Fitting{
		Addr:  addr,
		Token: w.Token,
		Route: fitting.SinkRoute,
	}, nil
}

// Marshal encodes the wire form as JSON.
func (w WireFitting) Marshal() ([]byte, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, errors.WrapInvalid(err, "WireFitting", "Marshal", "encode fitting")
	}
	return data, nil
}

// UnmarshalWireFitting decodes the JSON wire form.
func UnmarshalWireFitting(data []byte) (WireFitting, error) {
	var w WireFitting
	if err := json.Unmarshal(data, &w); err != nil {
		return WireFitting{}, errors.WrapInvalid(err, "WireFitting", "UnmarshalWireFitting", "decode fitting")
	}
	return w, nil
}
