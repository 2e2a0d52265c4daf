package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowpipe/fitting"
	"github.com/c360/flowpipe/registry"
)

// captureEmitter records emitted items and log entries.
type captureEmitter struct {
	items []any
	logs  []string
}

func (c *captureEmitter) Emit(_ context.Context, item any) error {
	c.items = append(c.items, item)
	return nil
}

func (c *captureEmitter) Log(_ context.Context, text string) {
	c.logs = append(c.logs, text)
}

func TestPassThrough(t *testing.T) {
	out := &captureEmitter{}
	b := PassThrough{}

	require.NoError(t, b.Process(context.Background(), nil, 42, out))
	require.NoError(t, b.Done(context.Background(), nil, out))
	assert.Equal(t, []any{42}, out.items)
}

func TestTransform(t *testing.T) {
	out := &captureEmitter{}
	b := Transform{}
	double := TransformFn(func(_ context.Context, item any) (any, error) {
		return item.(int) * 2, nil
	})

	require.NoError(t, b.Process(context.Background(), double, 21, out))
	assert.Equal(t, []any{42}, out.items)

	assert.Error(t, b.Process(context.Background(), "not a fn", 1, out))
	assert.NoError(t, b.ValidateArg(double))
	assert.Error(t, b.ValidateArg(nil))
	assert.Error(t, b.ValidateArg("nope"))
}

func TestFilter(t *testing.T) {
	out := &captureEmitter{}
	b := Filter{}
	positive := FilterFn(func(item any) bool { return item.(int) > 0 })

	require.NoError(t, b.Process(context.Background(), positive, 5, out))
	require.NoError(t, b.Process(context.Background(), positive, -5, out))
	assert.Equal(t, []any{5}, out.items)

	assert.NoError(t, b.ValidateArg(positive))
	assert.Error(t, b.ValidateArg(42))
}

func TestReduce(t *testing.T) {
	out := &captureEmitter{}
	r := NewReduce()
	arg := ReduceArg{
		Initial: 10,
		Fn:      func(acc, item any) (any, error) { return acc.(int) + item.(int), nil },
	}

	ctx := context.Background()
	require.NoError(t, r.Process(ctx, arg, 1, out))
	require.NoError(t, r.Process(ctx, arg, 2, out))
	assert.Empty(t, out.items, "reduce must not emit before Done")

	require.NoError(t, r.Done(ctx, arg, out))
	assert.Equal(t, []any{13}, out.items)
}

func TestReduce_EmptyInputEmitsInitial(t *testing.T) {
	out := &captureEmitter{}
	r := NewReduce()
	arg := ReduceArg{
		Initial: "empty",
		Fn:      func(acc, _ any) (any, error) { return acc, nil },
	}

	require.NoError(t, r.Done(context.Background(), arg, out))
	assert.Equal(t, []any{"empty"}, out.items)
}

func TestReduce_ValidateArg(t *testing.T) {
	r := NewReduce()

	assert.Error(t, r.ValidateArg(nil))
	assert.Error(t, r.ValidateArg(ReduceArg{}))
	assert.NoError(t, r.ValidateArg(ReduceArg{
		Fn: func(acc, _ any) (any, error) { return acc, nil },
	}))
}

func TestRegisterBuiltins(t *testing.T) {
	reg := registry.NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))

	names := reg.ListBehaviors()
	assert.Contains(t, names, "passthrough")
	assert.Contains(t, names, "transform")
	assert.Contains(t, names, "filter")
	assert.Contains(t, names, "reduce")

	// Resolved behaviors satisfy the stage contract
	b, err := reg.Resolve("passthrough", nil)
	require.NoError(t, err)
	var _ fitting.Behavior = b

	// Registering twice conflicts
	assert.Error(t, RegisterBuiltins(reg))
}

func TestRegistrySpec_BuildsRunnableStage(t *testing.T) {
	reg := registry.NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))

	spec, err := reg.Spec("passthrough", nil)
	require.NoError(t, err)
	assert.Equal(t, "passthrough", spec.Name)
	require.NotNil(t, spec.Route)
	require.NoError(t, fitting.ValidateStage(spec))
}
