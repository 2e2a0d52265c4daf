// Package flowpipe provides the client-facing orchestration layer for
// distributed dataflow pipelines: pipeline specification and validation,
// option normalization, the sink delivery protocol that returns results
// to callers, and an in-process execution engine.
//
// # Architecture
//
// A pipeline is an ordered chain of stages. Each stage is described by a
// StageSpec (name, behavior, argument, routing function), validated up
// front, and executed over a keyed worker pool so items sharing a routing
// key are processed in order while distinct keys run concurrently.
//
//	┌─────────────────────────────────────┐
//	│         exec.Orchestrator           │  Validate specs, normalize
//	│   (Exec → validate → normalize)     │  options, delegate to builder
//	└─────────────────────────────────────┘
//	           ↓ builds via
//	┌─────────────────────────────────────┐
//	│          engine.Engine              │  Stage chains over keyed
//	│  (worker pools, EOI flush, abort)   │  worker pools
//	└─────────────────────────────────────┘
//	           ↓ delivers to
//	┌─────────────────────────────────────┐
//	│          sink.Mailbox               │  Per-token queues, bounded
//	│  (Receive, Collect, token routing)  │  waits, result collection
//	└─────────────────────────────────────┘
//
// Results flow back through the sink delivery protocol: every envelope
// carries the pipeline instance's correlation token, so many pipelines
// can share one receiving mailbox without crosstalk. Delivery is
// best-effort and fire-and-forget; an abandoned sink is simply never
// drained. Receiving is bounded-wait, and a timeout is an event rather
// than an error.
//
// The transport package extends the delivery protocol across NATS so
// remote stages can deliver into a node's local mailbox, and pipestore
// persists pipeline definitions in NATS KV with optimistic concurrency.
//
// # Package Layout
//
//   - message: correlation tokens and delivery envelopes
//   - fitting: addressable stage identities and the behavior contract
//   - exec: pipeline validation, option normalization, orchestration
//   - sink: the caller's receiving context and collection helpers
//   - engine: in-process execution over keyed worker pools
//   - registry: named behavior registration and resolution
//   - transport: NATS-backed envelope delivery between nodes
//   - pipestore: persisted pipeline definitions in NATS KV
//   - natsclient: managed NATS connection with circuit breaker and KV
//   - metric: Prometheus metrics registry and HTTP endpoint
//   - config: YAML configuration with environment overrides
package flowpipe
