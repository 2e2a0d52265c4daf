// Package sink implements the result-delivery protocol between a running
// pipeline and its caller.
//
// # Model
//
// Every pipeline instance is assigned exactly one sink: a fitting identity
// whose address is the caller's own receiving context (a Mailbox) and whose
// correlation token is unique to that instance. Stages and workers anywhere
// in the cluster push three kinds of traffic at the sink - results, log
// entries, and a terminal end-of-input signal - using the fire-and-forget
// send primitives. The caller drains them with Receive (single bounded
// wait) or Collect (loop until end-of-input or timeout).
//
// # Correlation
//
// A single Mailbox may serve many pipelines at once. Dispatch by token
// happens below Receive: traffic for a different pipeline sharing the same
// mailbox is never consumed, never discarded, and never observed by the
// wrong collector.
//
// # Ordering
//
// Log entries are returned in chronological arrival order. Result order is
// intentionally unspecified: outputs of a distributed pipeline carry no
// ordering semantics, and promising one here would constrain the routing
// and worker layers for no benefit.
package sink
