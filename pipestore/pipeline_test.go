package pipestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowpipe/engine"
	"github.com/c360/flowpipe/exec"
	"github.com/c360/flowpipe/registry"
	"github.com/c360/flowpipe/sink"
)

func validPipeline() *Pipeline {
	return &Pipeline{
		ID:   "wordcount-v1",
		Name: "wordcount",
		Stages: []StageDef{
			{Name: "tokenize", Behavior: "passthrough"},
			{Name: "count", Behavior: "reduce"},
		},
	}
}

func TestPipeline_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Pipeline)
		wantErr bool
	}{
		{
			name:   "valid definition",
			mutate: func(*Pipeline) {},
		},
		{
			name:    "missing id",
			mutate:  func(p *Pipeline) { p.ID = "" },
			wantErr: true,
		},
		{
			name:    "missing name",
			mutate:  func(p *Pipeline) { p.Name = "" },
			wantErr: true,
		},
		{
			name:    "no stages",
			mutate:  func(p *Pipeline) { p.Stages = nil },
			wantErr: true,
		},
		{
			name:    "stage without behavior",
			mutate:  func(p *Pipeline) { p.Stages[0].Behavior = "" },
			wantErr: true,
		},
		{
			name:    "stage without name",
			mutate:  func(p *Pipeline) { p.Stages[0].Name = "" },
			wantErr: true,
		},
		{
			name:    "behavior name with invalid characters",
			mutate:  func(p *Pipeline) { p.Stages[0].Behavior = "no spaces allowed" },
			wantErr: true,
		},
		{
			name:    "unknown log mode",
			mutate:  func(p *Pipeline) { p.Log = "verbose" },
			wantErr: true,
		},
		{
			name:   "log sink is valid",
			mutate: func(p *Pipeline) { p.Log = "sink" },
		},
		{
			name:   "trace tags are valid",
			mutate: func(p *Pipeline) { p.Trace = []string{"detail"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPipeline()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPipeline_Specs(t *testing.T) {
	reg := registry.NewRegistry()
	require.NoError(t, engine.RegisterBuiltins(reg))

	p := validPipeline()
	specs, err := p.Specs(reg)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	// Stage names come from the definition, not the behavior registry
	assert.Equal(t, "tokenize", specs[0].Name)
	assert.Equal(t, "count", specs[1].Name)
	assert.NotNil(t, specs[0].Route)
}

func TestPipeline_SpecsUnknownBehavior(t *testing.T) {
	reg := registry.NewRegistry()
	require.NoError(t, engine.RegisterBuiltins(reg))

	p := validPipeline()
	p.Stages[0].Behavior = "does-not-exist"

	_, err := p.Specs(reg)
	assert.Error(t, err)
}

func TestPipeline_SpecsNilRegistry(t *testing.T) {
	_, err := validPipeline().Specs(nil)
	assert.Error(t, err)
}

func TestPipeline_Options(t *testing.T) {
	p := validPipeline()
	p.Log = "sink"
	p.Trace = []string{"detail", "timing"}

	opts := p.Options()
	assert.Equal(t, exec.LogSink, opts.Log)
	assert.Equal(t, []string{"detail", "timing"}, opts.Trace)
	assert.Equal(t, "wordcount", opts.Extra["name"])

	norm, err := exec.Normalize(newTestMailbox(t), opts)
	require.NoError(t, err)
	assert.True(t, norm.Trace.Matches("detail"))
	assert.False(t, norm.Trace.Matches("other"))
}

func TestPipeline_OptionsDefaults(t *testing.T) {
	opts := validPipeline().Options()
	assert.Equal(t, exec.LogNone, opts.Log)
	assert.Nil(t, opts.Trace)
}

func newTestMailbox(t *testing.T) *sink.Mailbox {
	t.Helper()
	mbox := sink.NewMailbox()
	t.Cleanup(mbox.Close)
	return mbox
}
