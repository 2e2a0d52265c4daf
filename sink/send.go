package sink

import (
	"github.com/c360/flowpipe/fitting"
	"github.com/c360/flowpipe/message"
)

// The three send-side primitives are the only ways any stage or worker
// communicates with the caller. All are fire-and-forget: if the sink's
// address is no longer receiving, the envelope is simply unreceived. No
// acknowledgement exists and none of these surface delivery errors; an
// abandoned sink has no one to report to anyway.

// DeliverResult sends one output value to the sink, tagged with the sink's
// correlation token and the emitting stage's name.
func DeliverResult(from string, snk fitting.Fitting, value any) {
	if snk.Addr == nil {
		return
	}
	_ = snk.Addr.Send(message.NewResult(snk.Token, from, value))
}

// DeliverLog sends one log entry to the sink.
func DeliverLog(from string, snk fitting.Fitting, text string) {
	if snk.Addr == nil {
		return
	}
	_ = snk.Addr.Send(message.NewLog(snk.Token, from, text))
}

// SignalEndOfInput tells the sink that no further results will arrive for
// this pipeline instance. A well-behaved pipeline signals this from its
// terminal stage only after all upstream results have been sent.
func SignalEndOfInput(snk fitting.Fitting) {
	if snk.Addr == nil {
		return
	}
	_ = snk.Addr.Send(message.NewEOI(snk.Token))
}
