package fitting

import (
	"context"
	"fmt"

	"github.com/c360/flowpipe/errors"
)

// Emitter is how a behavior hands items and log entries onward. For
// intermediate stages Emit forwards to the next stage; for the terminal
// stage it delivers a result to the sink. Log routes per the pipeline's
// log option and may be filtered by its trace option.
type Emitter interface {
	Emit(ctx context.Context, item any) error
	Log(ctx context.Context, text string)
}

// Behavior is the worker contract a stage implementation satisfies.
// Process handles one input item; Done is called exactly once after
// end-of-input has drained the stage's queue, letting reducing behaviors
// flush accumulated state.
type Behavior interface {
	Process(ctx context.Context, arg, item any, out Emitter) error
	Done(ctx context.Context, arg any, out Emitter) error
}

// ArgValidator lets a behavior reject its free-form argument at validation
// time, before any stage is constructed.
type ArgValidator interface {
	ValidateArg(arg any) error
}

// StageSpec is one descriptor in an ordered pipeline specification: an
// opaque caller-chosen name (echoed on every result and log from the
// stage, not required to be unique), the behavior implementing it, a
// free-form argument, and the routing function for input placement.
// Immutable once passed to exec.
type StageSpec struct {
	Name  string
	Impl  Behavior
	Arg   any
	Route RoutingFn
}

// ValidateStage checks one descriptor is structurally well-formed. The
// orchestrator calls this once per descriptor before construction; the
// first failure aborts the whole exec with zero side effects.
func ValidateStage(spec StageSpec) error {
	if spec.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidStage, "StageSpec", "ValidateStage", "name presence")
	}
	if spec.Impl == nil {
		return errors.WrapInvalid(
			fmt.Errorf("stage %q: %w", spec.Name, errors.ErrInvalidStage),
			"StageSpec", "ValidateStage", "behavior presence")
	}
	if spec.Route == nil {
		return errors.WrapInvalid(
			fmt.Errorf("stage %q: %w", spec.Name, errors.ErrInvalidStage),
			"StageSpec", "ValidateStage", "routing function presence")
	}
	if v, ok := spec.Impl.(ArgValidator); ok {
		if err := v.ValidateArg(spec.Arg); err != nil {
			return errors.WrapInvalid(err, "StageSpec", "ValidateStage",
				fmt.Sprintf("stage %q argument", spec.Name))
		}
	}
	return nil
}
