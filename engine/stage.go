package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/flowpipe/errors"
	"github.com/c360/flowpipe/exec"
	"github.com/c360/flowpipe/fitting"
	"github.com/c360/flowpipe/message"
	"github.com/c360/flowpipe/metric"
	"github.com/c360/flowpipe/pkg/worker"
	"github.com/c360/flowpipe/sink"
)

// stageWork is one queued input item for a stage's worker pool.
type stageWork struct {
	item any
}

// stage runs one behavior over a keyed worker pool. Items sharing a routing
// key are processed in submission order; items with different keys run
// concurrently across workers.
type stage struct {
	spec     fitting.StageSpec
	pool     *worker.Pool[stageWork]
	next     *stage
	pipeline string
	snk      fitting.Fitting
	logMode  exec.LogMode
	trace    exec.TraceSpec
	logger   *slog.Logger
	metrics  *metric.Metrics

	// accepting gates enqueue against the end-of-input barrier. Once
	// cleared, inflight submits finish and the pool drains before Done.
	accepting atomic.Bool
	inflight  sync.WaitGroup
}

func newStage(
	cfg Config,
	spec fitting.StageSpec,
	pipeline string,
	norm exec.Normalized,
	logger *slog.Logger,
	metrics *metric.Metrics,
) *stage {
	s := &stage{
		spec:     spec,
		pipeline: pipeline,
		snk:      norm.Sink,
		logMode:  norm.Log,
		trace:    norm.Trace,
		logger:   logger,
		metrics:  metrics,
	}
	s.accepting.Store(true)

	var opts []worker.Option[stageWork]
	if cfg.metricsRegistry != nil {
		opts = append(opts, worker.WithMetricsRegistry[stageWork](
			cfg.metricsRegistry, pipeline+"_"+spec.Name))
	}
	s.pool = worker.NewPool(cfg.WorkersPerStage, cfg.QueueSize, s.process, opts...)
	return s
}

// enqueue routes one item into the stage's pool, blocking for queue space.
// The inflight group keeps the submit from racing the end-of-input drain.
func (s *stage) enqueue(ctx context.Context, item any) error {
	s.inflight.Add(1)
	defer s.inflight.Done()

	if !s.accepting.Load() {
		return errors.WrapInvalid(errors.ErrNotReceivable, "stage", "enqueue", s.spec.Name)
	}

	key := s.spec.Route(item)
	if err := s.pool.SubmitKeyedWait(ctx, key, stageWork{item: item}); err != nil {
		return errors.WrapTransient(err, "stage", "enqueue", s.spec.Name)
	}
	if s.metrics != nil {
		s.metrics.RecordItemsReceived(s.pipeline, s.spec.Name, 1)
	}
	return nil
}

// process is the pool's worker function: one behavior invocation per item.
// Behavior errors are logged and counted, never fatal to the stage; a
// pipeline keeps flowing past individual bad items.
func (s *stage) process(ctx context.Context, w stageWork) error {
	start := time.Now()
	err := s.spec.Impl.Process(ctx, s.spec.Arg, w.item, s.emitter())
	if s.metrics != nil {
		s.metrics.ObserveProcessingDuration(s.pipeline, s.spec.Name, time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordError(s.pipeline, "process")
		}
		s.logger.Warn("stage processing failed",
			"pipeline", s.pipeline, "stage", s.spec.Name, "error", err)
	}
	return err
}

// drain closes the input gate, waits for inflight submits, and empties the
// pool. After drain returns, Done may observe the behavior's final state.
func (s *stage) drain(timeout time.Duration) error {
	s.accepting.Store(false)
	s.inflight.Wait()
	if err := s.pool.Stop(timeout); err != nil {
		return errors.WrapTransient(err, "stage", "drain", s.spec.Name)
	}
	return nil
}

// finish runs the behavior's Done flush into the stage's emitter.
func (s *stage) finish(ctx context.Context) error {
	if err := s.spec.Impl.Done(ctx, s.spec.Arg, s.emitter()); err != nil {
		if s.metrics != nil {
			s.metrics.RecordError(s.pipeline, "done")
		}
		return errors.Wrap(err, "stage", "finish", s.spec.Name)
	}
	return nil
}

func (s *stage) emitter() *stageEmitter {
	return &stageEmitter{stage: s}
}

// stageEmitter hands a behavior's output onward: to the next stage's queue
// for intermediate stages, to the sink for the terminal stage. Logs route
// per the pipeline's log mode; trace entries are additionally filtered by
// the trace spec.
type stageEmitter struct {
	stage *stage
}

func (e *stageEmitter) Emit(ctx context.Context, item any) error {
	s := e.stage
	if s.next != nil {
		return s.next.enqueue(ctx, item)
	}
	sink.DeliverResult(s.spec.Name, s.snk, item)
	if s.metrics != nil {
		s.metrics.RecordResultDelivered(s.pipeline, s.spec.Name)
	}
	return nil
}

func (e *stageEmitter) Log(ctx context.Context, text string) {
	s := e.stage
	switch s.logMode {
	case exec.LogSink:
		sink.DeliverLog(s.spec.Name, s.snk, text)
		if s.metrics != nil {
			s.metrics.RecordLogDelivered(s.pipeline, s.spec.Name)
		}
	case exec.LogSystem:
		s.logger.Info(text, "pipeline", s.pipeline, "stage", s.spec.Name)
	}
}

// Trace emits a log entry only when one of its tags matches the pipeline's
// trace filter. With tracing disabled every Trace call is a no-op.
func (e *stageEmitter) Trace(ctx context.Context, text string, tags ...string) {
	if !e.stage.trace.Matches(tags...) {
		return
	}
	e.Log(ctx, text)
}

// stageAddress adapts a pipeline head to fitting.Address so external
// senders can feed items and signal end-of-input through the same envelope
// surface the sink uses.
type stageAddress struct {
	p *Pipeline
}

func (a stageAddress) Send(env message.Envelope) error {
	switch env.Kind {
	case message.KindResult:
		return a.p.Send(context.Background(), env.Value)
	case message.KindEOI:
		go func() { _ = a.p.EOI(context.Background()) }()
		return nil
	case message.KindLog:
		a.p.head.emitter().Log(context.Background(), env.Text)
		return nil
	default:
		return errors.WrapInvalid(errors.ErrInvalidStage, "stageAddress", "Send", "envelope kind")
	}
}

func (a stageAddress) Alive() bool {
	return a.p.Accepting()
}

func (a stageAddress) String() string {
	return "pipeline(" + a.p.name + ")"
}
