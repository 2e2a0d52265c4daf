package pipestore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/flowpipe/errors"
	"github.com/c360/flowpipe/exec"
	"github.com/c360/flowpipe/fitting"
	"github.com/c360/flowpipe/registry"
)

// Pipeline is a stored pipeline definition: an ordered stage list plus the
// option defaults a caller gets when materializing it. Definitions are
// data; they reference behaviors by registered name and carry free-form
// arguments, so a stored pipeline survives process restarts.
type Pipeline struct {
	// Identity
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Version for optimistic concurrency control
	Version int64 `json:"version"`

	// Stages in execution order
	Stages []StageDef `json:"stages"`

	// Option defaults applied at materialization
	Log   string   `json:"log,omitempty"`
	Trace []string `json:"trace,omitempty"`

	// Audit
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by,omitempty"`
}

// StageDef names one stage: the registered behavior implementing it and
// its free-form argument.
type StageDef struct {
	Name     string         `json:"name"`
	Behavior string         `json:"behavior"`
	Arg      map[string]any `json:"arg,omitempty"`
}

// pipelineSchema is the structural contract stored definitions must meet
// before any behavior-level validation runs.
const pipelineSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "name", "stages"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "version": {"type": "integer", "minimum": 0},
    "stages": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "behavior"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "behavior": {"type": "string", "minLength": 1},
          "arg": {"type": "object"}
        }
      }
    },
    "log": {"type": "string", "enum": ["", "none", "sink", "system"]},
    "trace": {"type": "array", "items": {"type": "string"}}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(pipelineSchema)

// Validate checks the definition against the pipeline schema and the
// behavior naming rules. It does not resolve behaviors; a definition may
// validly reference a behavior registered only on worker nodes.
func (p *Pipeline) Validate() error {
	data, err := json.Marshal(p)
	if err != nil {
		return errors.WrapFatal(err, "pipestore", "Validate", "marshal definition")
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return errors.WrapFatal(err, "pipestore", "Validate", "run schema validation")
	}
	if !result.Valid() {
		errs := result.Errors()
		return errors.WrapInvalid(
			fmt.Errorf("definition violates schema: %s", errs[0].String()),
			"pipestore", "Validate", "schema validation")
	}

	for _, stage := range p.Stages {
		if err := registry.ValidateBehaviorName(stage.Behavior); err != nil {
			return errors.WrapInvalid(err, "pipestore", "Validate",
				fmt.Sprintf("stage %q behavior name", stage.Name))
		}
	}
	return nil
}

// Specs materializes the definition into runnable stage specs by resolving
// each behavior through the registry. The registry's own stage validation
// applies, so an undeployed behavior or a bad argument fails here rather
// than at exec time.
func (p *Pipeline) Specs(reg *registry.Registry) ([]fitting.StageSpec, error) {
	if reg == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "pipestore", "Specs", "registry presence")
	}

	specs := make([]fitting.StageSpec, 0, len(p.Stages))
	for _, def := range p.Stages {
		spec, err := reg.Spec(def.Behavior, argValue(def.Arg))
		if err != nil {
			return nil, errors.Wrap(err, "pipestore", "Specs",
				fmt.Sprintf("resolve stage %q", def.Name))
		}
		spec.Name = def.Name
		specs = append(specs, spec)
	}
	return specs, nil
}

// Options returns the exec options the definition's defaults describe.
func (p *Pipeline) Options() exec.Options {
	opts := exec.Options{
		Extra: map[string]any{"name": p.Name},
	}
	switch p.Log {
	case "sink":
		opts.Log = exec.LogSink
	case "system":
		opts.Log = exec.LogSystem
	}
	if len(p.Trace) > 0 {
		opts.Trace = p.Trace
	}
	return opts
}

// argValue maps an absent argument object to nil rather than an empty map,
// so behaviors that validate argument presence see what the author wrote.
func argValue(arg map[string]any) any {
	if len(arg) == 0 {
		return nil
	}
	return arg
}
