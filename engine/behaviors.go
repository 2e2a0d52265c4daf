package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/c360/flowpipe/errors"
	"github.com/c360/flowpipe/fitting"
	"github.com/c360/flowpipe/registry"
)

// TransformFn maps one item to one output item.
type TransformFn func(ctx context.Context, item any) (any, error)

// FilterFn reports whether an item passes through.
type FilterFn func(item any) bool

// ReduceFn folds one item into the accumulator.
type ReduceFn func(acc, item any) (any, error)

// ReduceArg configures a Reduce stage: the starting accumulator and the
// fold function.
type ReduceArg struct {
	Initial any
	Fn      ReduceFn
}

// PassThrough forwards every item unchanged. Useful as a fan-out point or
// a routing boundary between differently-keyed stages.
type PassThrough struct{}

func (PassThrough) Process(ctx context.Context, _ any, item any, out fitting.Emitter) error {
	return out.Emit(ctx, item)
}

func (PassThrough) Done(context.Context, any, fitting.Emitter) error { return nil }

// Transform applies its TransformFn argument to each item.
type Transform struct{}

func (Transform) Process(ctx context.Context, arg, item any, out fitting.Emitter) error {
	fn, ok := arg.(TransformFn)
	if !ok {
		return errors.WrapInvalid(errors.ErrInvalidStage, "Transform", "Process", "argument type")
	}
	mapped, err := fn(ctx, item)
	if err != nil {
		return err
	}
	return out.Emit(ctx, mapped)
}

func (Transform) Done(context.Context, any, fitting.Emitter) error { return nil }

// ValidateArg rejects a non-TransformFn argument before any stage starts.
func (Transform) ValidateArg(arg any) error {
	if _, ok := arg.(TransformFn); !ok {
		return fmt.Errorf("%w: transform requires a TransformFn argument, got %T",
			errors.ErrInvalidStage, arg)
	}
	return nil
}

// Filter drops items its FilterFn argument rejects.
type Filter struct{}

func (Filter) Process(ctx context.Context, arg, item any, out fitting.Emitter) error {
	fn, ok := arg.(FilterFn)
	if !ok {
		return errors.WrapInvalid(errors.ErrInvalidStage, "Filter", "Process", "argument type")
	}
	if !fn(item) {
		return nil
	}
	return out.Emit(ctx, item)
}

func (Filter) Done(context.Context, any, fitting.Emitter) error { return nil }

func (Filter) ValidateArg(arg any) error {
	if _, ok := arg.(FilterFn); !ok {
		return fmt.Errorf("%w: filter requires a FilterFn argument, got %T",
			errors.ErrInvalidStage, arg)
	}
	return nil
}

// Reduce folds every item into an accumulator and emits the final value
// once on Done. The accumulator is shared across the stage's workers, so
// the fold function must be order-insensitive when routing spreads keys.
type Reduce struct {
	mu      sync.Mutex
	acc     any
	started bool
}

// NewReduce returns a fresh reducer. Each stage needs its own instance;
// the accumulator lives on the behavior, not the argument.
func NewReduce() *Reduce {
	return &Reduce{}
}

func (r *Reduce) Process(_ context.Context, arg, item any, _ fitting.Emitter) error {
	ra, ok := arg.(ReduceArg)
	if !ok {
		return errors.WrapInvalid(errors.ErrInvalidStage, "Reduce", "Process", "argument type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		r.acc = ra.Initial
		r.started = true
	}
	acc, err := ra.Fn(r.acc, item)
	if err != nil {
		return err
	}
	r.acc = acc
	return nil
}

func (r *Reduce) Done(ctx context.Context, arg any, out fitting.Emitter) error {
	ra, ok := arg.(ReduceArg)
	if !ok {
		return errors.WrapInvalid(errors.ErrInvalidStage, "Reduce", "Done", "argument type")
	}

	r.mu.Lock()
	acc := r.acc
	if !r.started {
		acc = ra.Initial
	}
	r.mu.Unlock()

	return out.Emit(ctx, acc)
}

func (r *Reduce) ValidateArg(arg any) error {
	ra, ok := arg.(ReduceArg)
	if !ok {
		return fmt.Errorf("%w: reduce requires a ReduceArg argument, got %T",
			errors.ErrInvalidStage, arg)
	}
	if ra.Fn == nil {
		return fmt.Errorf("%w: reduce requires a fold function", errors.ErrInvalidStage)
	}
	return nil
}

// RegisterBuiltins adds the engine's stock behaviors to a registry.
func RegisterBuiltins(r *registry.Registry) error {
	builtins := []*registry.Registration{
		{
			Name:        "passthrough",
			Description: "Forwards every item unchanged",
			Version:     "1.0.0",
			Factory:     func(any) (fitting.Behavior, error) { return PassThrough{}, nil },
		},
		{
			Name:        "transform",
			Description: "Applies a TransformFn to each item",
			Version:     "1.0.0",
			Factory:     func(any) (fitting.Behavior, error) { return Transform{}, nil },
		},
		{
			Name:        "filter",
			Description: "Drops items a FilterFn rejects",
			Version:     "1.0.0",
			Factory:     func(any) (fitting.Behavior, error) { return Filter{}, nil },
		},
		{
			Name:        "reduce",
			Description: "Folds items into an accumulator, emitted on end-of-input",
			Version:     "1.0.0",
			Factory:     func(any) (fitting.Behavior, error) { return NewReduce(), nil },
			Route:       fitting.ConstRoute(0),
		},
	}

	for _, reg := range builtins {
		if err := r.Register(reg); err != nil {
			return err
		}
	}
	return nil
}
