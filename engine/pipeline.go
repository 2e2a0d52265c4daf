package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/flowpipe/errors"
	"github.com/c360/flowpipe/fitting"
	"github.com/c360/flowpipe/message"
	"github.com/c360/flowpipe/metric"
	"github.com/c360/flowpipe/sink"
)

// Pipeline is one running chain of stages. Input enters at the head,
// flows stage to stage per each stage's routing function, and results
// land at the sink. A pipeline ends exactly once, by EOI or Abort.
type Pipeline struct {
	name   string
	head   *stage
	stages []*stage
	snk    fitting.Fitting

	logger  *slog.Logger
	metrics *metric.Metrics

	drainTimeout time.Duration

	accepting atomic.Bool
	endOnce   sync.Once
	endErr    error

	// onEnd lets the engine drop its reference when the pipeline ends.
	onEnd func(*Pipeline)
}

// Name returns the pipeline's label as used in logs and metrics.
func (p *Pipeline) Name() string {
	return p.name
}

// Token returns the correlation token results are tagged with.
func (p *Pipeline) Token() message.Token {
	return p.snk.Token
}

// Sink returns the fitting results and logs are delivered to.
func (p *Pipeline) Sink() fitting.Fitting {
	return p.snk
}

// Head returns the fitting external senders use to feed the pipeline.
func (p *Pipeline) Head() fitting.Fitting {
	return fitting.Fitting{
		Addr:  stageAddress{p: p},
		Token: p.snk.Token,
		Route: p.head.spec.Route,
	}
}

// Accepting reports whether the pipeline still takes input.
func (p *Pipeline) Accepting() bool {
	return p.accepting.Load()
}

// Send feeds one item into the head stage, blocking for queue space.
func (p *Pipeline) Send(ctx context.Context, item any) error {
	if !p.accepting.Load() {
		return errors.WrapInvalid(errors.ErrNotReceivable, "Pipeline", "Send", p.name)
	}
	return p.head.enqueue(ctx, item)
}

// EOI ends the pipeline's input and flushes it head to tail: each stage's
// queue drains fully, its behavior's Done runs, and only then does the
// next stage begin its own drain. The terminal stage's flush is followed
// by the end-of-input signal to the sink, so every result precedes it.
func (p *Pipeline) EOI(ctx context.Context) error {
	p.endOnce.Do(func() {
		p.endErr = p.flush(ctx)
		p.end()
	})
	return p.endErr
}

func (p *Pipeline) flush(ctx context.Context) error {
	p.accepting.Store(false)

	for _, s := range p.stages {
		if err := s.drain(p.drainTimeout); err != nil {
			return err
		}
		if err := s.finish(ctx); err != nil {
			return err
		}
	}

	sink.SignalEndOfInput(p.snk)
	if p.metrics != nil {
		p.metrics.RecordEOISignal()
	}
	p.logger.Debug("pipeline flushed", "pipeline", p.name, "token", p.snk.Token)
	return nil
}

// Abort tears the pipeline down without flushing behaviors and without
// signalling end-of-input. Queued items are still processed; Done never
// runs. Stages stop concurrently since ordering no longer matters.
func (p *Pipeline) Abort() error {
	var abortErr error
	p.endOnce.Do(func() {
		p.accepting.Store(false)

		var g errgroup.Group
		for _, s := range p.stages {
			s := s
			g.Go(func() error {
				return s.drain(p.drainTimeout)
			})
		}
		abortErr = g.Wait()
		p.endErr = errors.ErrNotReceivable
		p.end()
		p.logger.Debug("pipeline aborted", "pipeline", p.name)
	})
	return abortErr
}

func (p *Pipeline) end() {
	if p.metrics != nil {
		p.metrics.RecordPipelineStatus(p.name, 0)
	}
	if p.onEnd != nil {
		p.onEnd(p)
	}
}

// Stats aggregates the worker pool statistics across the stages.
type PipelineStats struct {
	Stages    int
	Submitted int64
	Processed int64
	Failed    int64
	Dropped   int64
}

func (p *Pipeline) Stats() PipelineStats {
	stats := PipelineStats{Stages: len(p.stages)}
	for _, s := range p.stages {
		ps := s.pool.Stats()
		stats.Submitted += ps.Submitted
		stats.Processed += ps.Processed
		stats.Failed += ps.Failed
		stats.Dropped += ps.Dropped
	}
	return stats
}
