// Package pipestore persists pipeline definitions in NATS KV. A
// definition is pure data: an ordered stage list referencing behaviors by
// registered name, plus logging and tracing defaults. Definitions are
// schema-validated on every write, version-checked for optimistic
// concurrency, and compare-and-swapped on the KV revision so concurrent
// writers fail cleanly instead of clobbering each other.
//
// A stored definition becomes runnable through Specs, which resolves each
// stage's behavior against a registry, and Options, which translates the
// stored defaults into exec options.
package pipestore
