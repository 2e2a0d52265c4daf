// Package engine runs pipelines in-process. It implements the
// exec.Builder contract: given a validated stage chain and normalized
// options, Build stands up one keyed worker pool per stage and returns
// the head fitting callers feed input through.
//
// Each stage routes its input by the stage's routing function, so items
// sharing a key are processed in order on one worker while distinct keys
// run concurrently. End-of-input flushes the chain head to tail: a
// stage's queue drains fully and its behavior's Done runs before the
// next stage begins draining, which is what lets reducing behaviors emit
// complete accumulations. The terminal flush is followed by the
// end-of-input signal to the sink, so every result strictly precedes it.
//
// The package also provides stock behaviors (PassThrough, Transform,
// Filter, Reduce) and RegisterBuiltins to expose them through a behavior
// registry.
package engine
