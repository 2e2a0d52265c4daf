// Package worker provides a generic, thread-safe keyed worker pool for
// concurrent task processing.
//
// # Overview
//
// The worker package implements a worker pool with:
//   - Generic type support for type-safe work processing
//   - Keyed routing: work items sharing a key are processed in order
//   - Bounded per-worker queues with backpressure (non-blocking submit)
//   - Context-aware cancellation and graceful shutdown
//   - Always-on statistics plus optional Prometheus metrics
//
// # Keyed Routing
//
// Unlike a single shared queue, each worker owns a private bounded queue.
// SubmitKeyed(key, work) routes all work sharing a key to the same worker,
// which yields a useful ordering property: items with equal keys are
// processed sequentially in submission order, while items with different
// keys run in parallel. This is how pipeline stages partition their input
// across workers without losing per-partition order.
//
//	pool := worker.NewPool[Item](
//	    4,    // workers
//	    256,  // per-worker queue size
//	    func(ctx context.Context, item Item) error {
//	        return process(ctx, item)
//	    },
//	)
//
//	if err := pool.Start(ctx); err != nil {
//	    return err
//	}
//	defer pool.Stop(5 * time.Second)
//
//	// All items with the same partition key process in order.
//	err := pool.SubmitKeyed(partitionKey(item), item)
//
// Submit(work) is the unkeyed form; it spreads work round-robin and makes
// no ordering promises.
//
// # Backpressure
//
// SubmitKeyed uses a non-blocking send. A full queue returns ErrQueueFull
// immediately rather than blocking the caller; dropped work is counted in
// both statistics and metrics. SubmitKeyedWait is the blocking variant for
// callers that prefer backpressure over drops.
//
// # Shutdown
//
// Stop(timeout) closes the work queues, lets workers drain accepted work,
// and waits up to the timeout for them to finish. ErrStopTimeout signals
// stuck workers. Cancelling the Start context aborts workers without
// draining.
//
// # Metrics
//
// With WithMetricsRegistry the pool registers queue depth, utilization,
// submitted/processed/failed/dropped counters, and a processing duration
// histogram under the supplied prefix:
//
//	pool := worker.NewPool[Item](
//	    4, 256, process,
//	    worker.WithMetricsRegistry[Item](registry, "stage_tokenize"),
//	)
//
// # Error Handling
//
// The pool uses plain sentinel errors rather than classified errors because
// pool failures are either programming errors (ErrPoolNotStarted,
// ErrPoolAlreadyStarted, ErrNilProcessor) or backpressure signals
// (ErrQueueFull, ErrStopTimeout). Processor functions may return classified
// errors; the pool counts failures but does not interpret them.
package worker
