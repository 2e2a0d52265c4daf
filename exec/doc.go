// Package exec is the client-facing entry point for starting pipelines.
//
// A caller describes a linear chain of stages as []fitting.StageSpec,
// passes a loosely-typed Options bag, and receives back two identities:
// the entry stage (feed inputs here) and the sink (drain results here).
//
//	mbox := sink.NewMailbox()
//	orch, _ := exec.New(mbox, builder)
//	head, snk, err := orch.Exec(ctx, specs, exec.Options{Log: exec.LogSink})
//
// Setup is all-or-nothing: every descriptor is validated before the
// builder is invoked, options are canonicalized (sink resolved and
// completed, trace filter normalized to a set), and a failure at any step
// aborts with no stage left half-constructed. Construction itself belongs
// to the Builder collaborator; the engine package provides the in-process
// reference implementation.
package exec
