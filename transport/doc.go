// Package transport carries sink envelopes between pipeline nodes over
// NATS core pub/sub.
//
// A sink owned by one node is reachable from others through a delivery
// subject under "flowpipe.sink.". The send side is Address: it marshals
// envelopes to JSON and publishes them, implementing fitting.Address so
// remote stages deliver through the same interface as in-process ones.
// The receive side is Listener: it subscribes to the subject and feeds
// decoded envelopes into a local sink.Mailbox, so the owner receives
// remote traffic through the ordinary Inbox operations.
//
// Delivery is best-effort in both directions. Publishes that fail are
// dropped by convention, malformed envelopes are dropped by the listener,
// and a full mailbox queue drops like any local overload. Correlation
// tokens remain the only authority on which traffic belongs to which
// execution.
//
// WireFitting is the serializable form of a sink fitting for work handed
// to remote stage workers:
//
//	wf, err := transport.Export(snk)
//	data, _ := wf.Marshal()
//	// ... data travels to the worker ...
//	remote, err := wf.Resolve(conn)
//	sink.DeliverResult("stage-3", remote, value)
package transport
