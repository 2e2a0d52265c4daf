package exec

import (
	"context"
	"log/slog"

	"github.com/c360/flowpipe/errors"
	"github.com/c360/flowpipe/fitting"
	"github.com/c360/flowpipe/sink"
)

// StageValidator checks one stage descriptor before construction. The
// default is fitting.ValidateStage; tests and embedders may substitute
// their own.
type StageValidator func(fitting.StageSpec) error

// Builder is the external collaborator that instantiates and supervises
// the chain of stage control processes. Build must be atomic from this
// package's perspective: either the full chain exists and the entry
// stage's identity is returned, or nothing of it remains.
type Builder interface {
	Build(ctx context.Context, specs []fitting.StageSpec, opts Normalized) (fitting.Fitting, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, specs []fitting.StageSpec, opts Normalized) (fitting.Fitting, error)

// Build implements Builder.
func (f BuilderFunc) Build(
	ctx context.Context, specs []fitting.StageSpec, opts Normalized,
) (fitting.Fitting, error) {
	return f(ctx, specs, opts)
}

// Orchestrator validates pipeline specifications, normalizes options, and
// delegates construction to a Builder. It holds the caller's mailbox so
// sinks can be synthesized against the caller's own receiving context.
type Orchestrator struct {
	mailbox  *sink.Mailbox
	builder  Builder
	validate StageValidator
	logger   *slog.Logger
	metrics  *execMetrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStageValidator overrides the default stage validator.
func WithStageValidator(v StageValidator) Option {
	return func(o *Orchestrator) {
		if v != nil {
			o.validate = v
		}
	}
}

// WithLogger sets the orchestrator's slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an orchestrator bound to the caller's mailbox and builder.
func New(mailbox *sink.Mailbox, builder Builder, opts ...Option) (*Orchestrator, error) {
	if mailbox == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Orchestrator", "New", "mailbox presence")
	}
	if builder == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Orchestrator", "New", "builder presence")
	}
	o := &Orchestrator{
		mailbox:  mailbox,
		builder:  builder,
		validate: fitting.ValidateStage,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Mailbox returns the receiving context sinks are synthesized against.
func (o *Orchestrator) Mailbox() *sink.Mailbox {
	return o.mailbox
}

// Exec validates every stage descriptor, normalizes options, and delegates
// to the builder. On success the full chain of stage control processes
// exists and accepts input addressed to head; on failure at any step
// nothing remains running and no partial pipeline is ever started. The
// first invalid descriptor aborts the call before the builder is invoked.
func (o *Orchestrator) Exec(
	ctx context.Context, specs []fitting.StageSpec, options Options,
) (head, snk fitting.Fitting, err error) {
	if len(specs) == 0 {
		return fitting.Fitting{}, fitting.Fitting{}, errors.WrapInvalid(
			errors.ErrInvalidStage, "Orchestrator", "Exec", "empty specification")
	}

	for _, spec := range specs {
		if err := o.validate(spec); err != nil {
			o.metrics.recordSetupFailure("validation")
			return fitting.Fitting{}, fitting.Fitting{}, err
		}
	}

	norm, err := Normalize(o.mailbox, options)
	if err != nil {
		o.metrics.recordSetupFailure("options")
		return fitting.Fitting{}, fitting.Fitting{}, err
	}

	head, err = o.builder.Build(ctx, specs, norm)
	if err != nil {
		o.metrics.recordSetupFailure("build")
		return fitting.Fitting{}, fitting.Fitting{}, errors.Wrap(err, "Orchestrator", "Exec", "build pipeline")
	}

	o.metrics.recordStarted(len(specs))
	o.logger.Debug("pipeline started",
		"stages", len(specs),
		"head", head.String(),
		"sink_token", norm.Sink.Token)

	return head, norm.Sink, nil
}
