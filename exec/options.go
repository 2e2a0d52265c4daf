package exec

import (
	"fmt"

	"github.com/c360/flowpipe/errors"
	"github.com/c360/flowpipe/fitting"
	"github.com/c360/flowpipe/sink"
)

// LogMode selects where stage log entries go.
type LogMode int

// Log routing modes.
const (
	// LogNone disables stage logging.
	LogNone LogMode = iota
	// LogSink routes log entries to the pipeline's sink.
	LogSink
	// LogSystem routes log entries to the process-wide slog logger
	// instead of the sink.
	LogSystem
)

// String returns the string representation of LogMode
func (l LogMode) String() string {
	switch l {
	case LogNone:
		return "none"
	case LogSink:
		return "sink"
	case LogSystem:
		return "system"
	default:
		return "unknown"
	}
}

// traceAll is the type of the All sentinel.
type traceAll struct{}

// All is the trace option sentinel meaning "match every trace tag".
var All = traceAll{}

// TraceSpec is the canonical trace filter: disabled, match-all, or a finite
// tag set with O(1) membership tests.
type TraceSpec struct {
	all  bool
	tags map[string]struct{}
}

// TraceEverything returns the match-all spec.
func TraceEverything() TraceSpec {
	return TraceSpec{all: true}
}

// TraceTags returns a spec matching exactly the given tags. Duplicates
// collapse.
func TraceTags(tags ...string) TraceSpec {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return TraceSpec{tags: set}
}

// Enabled reports whether any tracing is active.
func (t TraceSpec) Enabled() bool {
	return t.all || len(t.tags) > 0
}

// MatchesAll reports whether the spec is the match-all sentinel.
func (t TraceSpec) MatchesAll() bool {
	return t.all
}

// Matches reports whether any of the given tags is traced.
func (t TraceSpec) Matches(tags ...string) bool {
	if t.all {
		return true
	}
	for _, tag := range tags {
		if _, ok := t.tags[tag]; ok {
			return true
		}
	}
	return false
}

// Tags returns the tag set (nil for match-all or disabled specs).
func (t TraceSpec) Tags() map[string]struct{} {
	return t.tags
}

// Options is the raw configuration bag a caller passes to Exec. Trace is
// loosely typed on purpose; Normalize canonicalizes it. Unrecognized
// configuration travels in Extra and is passed through opaquely to stage
// implementations as pipeline-wide configuration.
type Options struct {
	// Sink is an existing identity to deliver into, or nil to have a
	// fresh one synthesized against the caller's own mailbox.
	Sink *fitting.Fitting

	// Trace is All, a []string tag list, a map[string]struct{} or
	// map[string]bool set, an existing TraceSpec, or nil (disabled).
	// Anything else fails normalization.
	Trace any

	// Log selects where stage log entries are routed.
	Log LogMode

	// Extra is pipeline-wide configuration forwarded untouched.
	Extra map[string]any
}

// Normalized is the canonical form of Options with the sink identity fully
// resolved: live address, present correlation token, sentinel routing
// function.
type Normalized struct {
	Sink  fitting.Fitting
	Trace TraceSpec
	Log   LogMode
	Extra map[string]any
}

// Normalize resolves the sink and canonicalizes the trace filter. The only
// side effect is token allocation, a pure value construction.
func Normalize(mbox *sink.Mailbox, opts Options) (Normalized, error) {
	snk, err := resolveSink(mbox, opts.Sink)
	if err != nil {
		return Normalized{}, err
	}

	trace, err := resolveTrace(opts.Trace)
	if err != nil {
		return Normalized{}, err
	}

	return Normalized{
		Sink:  snk,
		Trace: trace,
		Log:   opts.Log,
		Extra: opts.Extra,
	}, nil
}

// resolveSink validates or synthesizes the sink identity. A supplied sink
// must at least carry an address; missing token and routing function are
// filled in rather than rejected, because callers commonly construct a sink
// from a bare address and expect the protocol to complete it.
func resolveSink(mbox *sink.Mailbox, supplied *fitting.Fitting) (fitting.Fitting, error) {
	if supplied == nil {
		return mbox.NewFitting(), nil
	}
	if supplied.Addr == nil {
		return fitting.Fitting{}, errors.WrapInvalid(
			errors.ErrInvalidSink, "exec", "Normalize", "sink address presence")
	}
	if !supplied.Addr.Alive() {
		return fitting.Fitting{}, errors.WrapInvalid(
			errors.ErrNoSinkTarget, "exec", "Normalize", "sink address liveness")
	}

	// Completion happens on the sink's own mailbox when it has one, so
	// the fresh token is drained where deliveries will land.
	if owner, ok := supplied.Addr.(*sink.Mailbox); ok {
		return owner.Complete(*supplied), nil
	}
	return mbox.Complete(*supplied), nil
}

// resolveTrace canonicalizes the loosely-typed trace value to a TraceSpec.
func resolveTrace(raw any) (TraceSpec, error) {
	switch v := raw.(type) {
	case nil:
		return TraceSpec{}, nil
	case traceAll:
		return TraceEverything(), nil
	case TraceSpec:
		return v, nil
	case []string:
		return TraceTags(v...), nil
	case map[string]struct{}:
		return TraceSpec{tags: v}, nil
	case map[string]bool:
		set := make(map[string]struct{}, len(v))
		for tag, on := range v {
			if on {
				set[tag] = struct{}{}
			}
		}
		return TraceSpec{tags: set}, nil
	default:
		return TraceSpec{}, errors.WrapInvalid(
			fmt.Errorf("%w: unsupported shape %T", errors.ErrInvalidTrace, raw),
			"exec", "Normalize", "trace canonicalization")
	}
}
