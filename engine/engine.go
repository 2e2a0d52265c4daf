package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/flowpipe/errors"
	"github.com/c360/flowpipe/exec"
	"github.com/c360/flowpipe/fitting"
	"github.com/c360/flowpipe/metric"
)

// Config sizes the worker pools backing each stage.
type Config struct {
	// WorkersPerStage is the worker count per stage pool.
	WorkersPerStage int
	// QueueSize is the per-worker queue capacity.
	QueueSize int
	// DrainTimeout bounds how long end-of-input waits per stage.
	DrainTimeout time.Duration

	metricsRegistry *metric.MetricsRegistry
}

// DefaultConfig returns a config suitable for moderate in-process loads.
func DefaultConfig() Config {
	return Config{
		WorkersPerStage: 4,
		QueueSize:       256,
		DrainTimeout:    30 * time.Second,
	}
}

// Engine builds and supervises in-process pipelines. It satisfies
// exec.Builder, so an exec.Orchestrator can delegate construction to it
// directly.
type Engine struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metric.Metrics

	mu        sync.Mutex
	pipelines map[*Pipeline]struct{}
	closed    bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics wires pipeline and stage metrics into the platform registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(e *Engine) {
		if registry != nil {
			e.cfg.metricsRegistry = registry
			e.metrics = registry.CoreMetrics()
		}
	}
}

// New creates an engine with the given pool sizing.
func New(cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.WorkersPerStage <= 0 {
		cfg.WorkersPerStage = def.WorkersPerStage
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = def.DrainTimeout
	}

	e := &Engine{
		cfg:       cfg,
		logger:    slog.Default(),
		pipelines: make(map[*Pipeline]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build constructs the full stage chain and starts every pool, or leaves
// nothing running. The returned fitting addresses the head stage; input
// sent to it flows through every stage to the sink named in opts.
func (e *Engine) Build(
	ctx context.Context, specs []fitting.StageSpec, opts exec.Normalized,
) (fitting.Fitting, error) {
	if len(specs) == 0 {
		return fitting.Fitting{}, errors.WrapInvalid(
			errors.ErrInvalidStage, "Engine", "Build", "no stages")
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fitting.Fitting{}, errors.WrapInvalid(
			errors.ErrNotReceivable, "Engine", "Build", "engine closed")
	}
	e.mu.Unlock()

	name := pipelineName(opts.Extra)

	p := &Pipeline{
		name:         name,
		snk:          opts.Sink,
		logger:       e.logger,
		metrics:      e.metrics,
		drainTimeout: e.cfg.DrainTimeout,
		onEnd:        e.forget,
	}

	stages := make([]*stage, len(specs))
	for i, spec := range specs {
		stages[i] = newStage(e.cfg, spec, name, opts, e.logger, e.metrics)
	}
	for i := 0; i < len(stages)-1; i++ {
		stages[i].next = stages[i+1]
	}
	p.stages = stages
	p.head = stages[0]

	for i, s := range stages {
		if err := s.pool.Start(ctx); err != nil {
			for _, started := range stages[:i] {
				_ = started.pool.Stop(e.cfg.DrainTimeout)
			}
			return fitting.Fitting{}, errors.Wrap(err, "Engine", "Build",
				fmt.Sprintf("start stage %q", s.spec.Name))
		}
	}
	p.accepting.Store(true)

	e.mu.Lock()
	e.pipelines[p] = struct{}{}
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordPipelineStatus(name, 1)
	}
	e.logger.Debug("pipeline built",
		"pipeline", name, "stages", len(specs), "token", opts.Sink.Token)

	return p.Head(), nil
}

// Pipelines returns the currently running pipelines.
func (e *Engine) Pipelines() []*Pipeline {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Pipeline, 0, len(e.pipelines))
	for p := range e.pipelines {
		out = append(out, p)
	}
	return out
}

// Shutdown flushes every running pipeline concurrently and refuses new
// builds. Each pipeline gets a full EOI flush; use ctx to bound the wait.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	running := make([]*Pipeline, 0, len(e.pipelines))
	for p := range e.pipelines {
		running = append(running, p)
	}
	e.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range running {
		p := p
		g.Go(func() error {
			return p.EOI(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "Engine", "Shutdown", "flush pipelines")
	}
	return nil
}

// forget drops the engine's reference when a pipeline ends.
func (e *Engine) forget(p *Pipeline) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pipelines, p)
}

// pipelineName reads the caller-supplied label out of the option bag.
func pipelineName(extra map[string]any) string {
	if name, ok := extra["name"].(string); ok && name != "" {
		return name
	}
	return "pipeline"
}
