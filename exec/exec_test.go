package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowpipe/fitting"
	"github.com/c360/flowpipe/message"
	"github.com/c360/flowpipe/sink"
)

// nopBehavior satisfies fitting.Behavior for orchestration tests.
type nopBehavior struct{}

func (nopBehavior) Process(context.Context, any, any, fitting.Emitter) error { return nil }
func (nopBehavior) Done(context.Context, any, fitting.Emitter) error         { return nil }

func validSpecs() []fitting.StageSpec {
	return []fitting.StageSpec{
		{Name: "first", Impl: nopBehavior{}, Route: fitting.HashRoute()},
		{Name: "second", Impl: nopBehavior{}, Route: fitting.HashRoute()},
	}
}

// recordingBuilder captures what the orchestrator hands it.
type recordingBuilder struct {
	called bool
	specs  []fitting.StageSpec
	opts   Normalized
	err    error
}

func (b *recordingBuilder) Build(
	_ context.Context, specs []fitting.StageSpec, opts Normalized,
) (fitting.Fitting, error) {
	b.called = true
	b.specs = specs
	b.opts = opts
	if b.err != nil {
		return fitting.Fitting{}, b.err
	}
	return fitting.Fitting{
		Addr:  opts.Sink.Addr,
		Token: opts.Sink.Token,
		Route: specs[0].Route,
	}, nil
}

func newOrchestrator(t *testing.T) (*Orchestrator, *recordingBuilder, *sink.Mailbox) {
	t.Helper()
	mbox := sink.NewMailbox()
	t.Cleanup(mbox.Close)

	builder := &recordingBuilder{}
	orch, err := New(mbox, builder)
	require.NoError(t, err)
	return orch, builder, mbox
}

func TestNew_Validation(t *testing.T) {
	mbox := sink.NewMailbox()
	defer mbox.Close()

	_, err := New(nil, &recordingBuilder{})
	assert.Error(t, err)

	_, err = New(mbox, nil)
	assert.Error(t, err)
}

func TestExec_SynthesizesSink(t *testing.T) {
	orch, builder, mbox := newOrchestrator(t)

	head, snk, err := orch.Exec(context.Background(), validSpecs(), Options{})
	require.NoError(t, err)
	require.True(t, builder.called)

	require.NoError(t, snk.Valid())
	assert.Same(t, mbox, snk.Addr)
	assert.Equal(t, snk.Token, head.Token)

	// Each exec gets a fresh token
	_, snk2, err := orch.Exec(context.Background(), validSpecs(), Options{})
	require.NoError(t, err)
	assert.NotEqual(t, snk.Token, snk2.Token)
}

func TestExec_SinkTokensPairwiseDistinct(t *testing.T) {
	orch, _, mbox := newOrchestrator(t)

	seen := make(map[message.Token]bool, 1000)
	for i := 0; i < 1000; i++ {
		_, snk, err := orch.Exec(context.Background(), validSpecs(), Options{})
		require.NoError(t, err)
		require.Same(t, mbox, snk.Addr)
		require.False(t, seen[snk.Token], "token reuse across instantiations")
		seen[snk.Token] = true
	}
}

func TestExec_ValidationShortCircuits(t *testing.T) {
	orch, builder, _ := newOrchestrator(t)

	specs := validSpecs()
	specs[1].Impl = nil

	_, _, err := orch.Exec(context.Background(), specs, Options{})
	assert.Error(t, err)
	assert.False(t, builder.called, "builder must not run after a validation failure")
}

func TestExec_EmptySpecification(t *testing.T) {
	orch, builder, _ := newOrchestrator(t)

	_, _, err := orch.Exec(context.Background(), nil, Options{})
	assert.Error(t, err)
	assert.False(t, builder.called)
}

func TestExec_BuildFailure(t *testing.T) {
	orch, builder, _ := newOrchestrator(t)
	builder.err = assert.AnError

	_, _, err := orch.Exec(context.Background(), validSpecs(), Options{})
	assert.Error(t, err)
}

func TestExec_SuppliedSinkCompleted(t *testing.T) {
	orch, builder, mbox := newOrchestrator(t)

	// A bare-address sink gets token and routing filled in
	supplied := fitting.Fitting{Addr: mbox}
	_, snk, err := orch.Exec(context.Background(), validSpecs(), Options{Sink: &supplied})
	require.NoError(t, err)
	require.NoError(t, snk.Valid())
	assert.True(t, snk.Token.Valid())
	assert.NotNil(t, snk.Route)
	assert.Equal(t, snk.Token, builder.opts.Sink.Token)
}

func TestExec_SuppliedSinkMissingAddress(t *testing.T) {
	orch, _, _ := newOrchestrator(t)

	supplied := fitting.Fitting{Token: message.NewToken()}
	_, _, err := orch.Exec(context.Background(), validSpecs(), Options{Sink: &supplied})
	assert.Error(t, err)
}

func TestNormalize_TraceShapes(t *testing.T) {
	mbox := sink.NewMailbox()
	defer mbox.Close()

	tests := []struct {
		name     string
		trace    any
		wantErr  bool
		check    func(t *testing.T, spec TraceSpec)
	}{
		{
			name:  "nil disables tracing",
			trace: nil,
			check: func(t *testing.T, spec TraceSpec) {
				assert.False(t, spec.Enabled())
			},
		},
		{
			name:  "All matches everything",
			trace: All,
			check: func(t *testing.T, spec TraceSpec) {
				assert.True(t, spec.MatchesAll())
				assert.True(t, spec.Matches("anything"))
			},
		},
		{
			name:  "string slice becomes tag set",
			trace: []string{"detail", "timing", "detail"},
			check: func(t *testing.T, spec TraceSpec) {
				assert.True(t, spec.Matches("detail"))
				assert.True(t, spec.Matches("timing"))
				assert.False(t, spec.Matches("other"))
				assert.Len(t, spec.Tags(), 2)
			},
		},
		{
			name:  "struct set passes through",
			trace: map[string]struct{}{"a": {}},
			check: func(t *testing.T, spec TraceSpec) {
				assert.True(t, spec.Matches("a"))
			},
		},
		{
			name:  "bool map keeps only true tags",
			trace: map[string]bool{"keep": true, "drop": false},
			check: func(t *testing.T, spec TraceSpec) {
				assert.True(t, spec.Matches("keep"))
				assert.False(t, spec.Matches("drop"))
			},
		},
		{
			name:  "existing spec passes through",
			trace: TraceTags("x"),
			check: func(t *testing.T, spec TraceSpec) {
				assert.True(t, spec.Matches("x"))
			},
		},
		{
			name:    "unsupported shape rejected",
			trace:   42,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			norm, err := Normalize(mbox, Options{Trace: tt.trace})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, norm.Trace)
		})
	}
}

func TestNormalize_ExtraPassesThrough(t *testing.T) {
	mbox := sink.NewMailbox()
	defer mbox.Close()

	extra := map[string]any{"name": "wordcount", "custom": 7}
	norm, err := Normalize(mbox, Options{Extra: extra, Log: LogSink})
	require.NoError(t, err)
	assert.Equal(t, extra, norm.Extra)
	assert.Equal(t, LogSink, norm.Log)
}

func TestLogMode_String(t *testing.T) {
	assert.Equal(t, "none", LogNone.String())
	assert.Equal(t, "sink", LogSink.String())
	assert.Equal(t, "system", LogSystem.String())
	assert.Equal(t, "unknown", LogMode(99).String())
}
