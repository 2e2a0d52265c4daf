// Package natsclient provides a managed NATS connection with circuit
// breaker protection, health monitoring, and JetStream key-value access.
//
// # Overview
//
// The client wraps a NATS connection with:
//   - Circuit breaker: repeated connection failures open the circuit and
//     back off exponentially up to a configurable cap
//   - Health monitoring: periodic RTT checks keep status and core metrics
//     current
//   - Core pub/sub: Publish and Subscribe carry envelope traffic for
//     message transport between pipeline nodes
//   - JetStream KV: bucket management plus a KVStore wrapper with
//     compare-and-swap updates and automatic conflict retry
//
// # Basic Usage
//
//	client, err := natsclient.NewClient("nats://localhost:4222",
//	    natsclient.WithName("flowpipe-node"),
//	    natsclient.WithCircuitBreakerThreshold(5),
//	    natsclient.WithMetrics(registry),
//	)
//	if err != nil {
//	    return err
//	}
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(context.Background())
//
// # Circuit Breaker
//
// Connection failures are counted per round. Once the threshold is reached
// the circuit opens: further Connect and KV calls fail fast with
// ErrCircuitOpen, and a timer closes the circuit for a probe after the
// current backoff. Successful operations reset the failure count and
// backoff.
//
// # Key-Value Store
//
// KVStore layers CAS semantics over a JetStream KV bucket. UpdateWithRetry
// reads the current value and revision, applies a caller-supplied update
// function, and writes back with an optimistic revision check, retrying on
// conflicts with jittered exponential backoff:
//
//	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
//	    Bucket: "flowpipe_pipelines",
//	})
//	store := client.NewKVStore(bucket)
//
//	err = store.UpdateWithRetry(ctx, "word-count", func(current []byte) ([]byte, error) {
//	    return applyChange(current)
//	})
//
// # Testing
//
// TestClient starts a disposable NATS server in a container (JetStream and
// KV optional) and connects a Client to it:
//
//	tc := natsclient.NewTestClient(t, natsclient.WithKVBuckets("flowpipe_pipelines"))
//	store := tc.Client.NewKVStore(mustBucket(t, tc, "flowpipe_pipelines"))
//
// Cleanup is registered automatically with t.Cleanup.
package natsclient
