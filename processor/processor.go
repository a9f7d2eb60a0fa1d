// Package processor wraps the streaming engine in a single dedicated
// consumer goroutine reachable through bounded channels.
//
// Exactly one goroutine owns the engine and its patient-memory map; no
// external code ever touches engine state directly. Producers block on
// Submit when the bounded input channel is full, which is the system's
// backpressure mechanism: a slow consumer throttles producers instead of
// growing memory without bound. Updates are processed strictly in
// submission order and results are emitted in the same order.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KeSeaman/deep-causality/config"
	"github.com/KeSeaman/deep-causality/engine"
	"github.com/KeSeaman/deep-causality/errors"
	"github.com/KeSeaman/deep-causality/metric"
	"github.com/KeSeaman/deep-causality/types"
)

// Result pairs the optional inference result of one processed update with
// the alerts it produced. Inference is nil when guardrails blocked the
// evaluation.
type Result struct {
	Inference *types.InferenceResult
	Alerts    []types.Alert
}

// ChannelProcessor runs a StreamingEngine inside an isolated consumer task.
// Lifecycle follows Initialize / Start(ctx) / Stop(timeout).
type ChannelProcessor struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *metric.MetricsRegistry

	// engine is owned by the consumer goroutine once Start returns
	engine *engine.StreamingEngine

	input    chan types.VitalUpdate
	output   chan Result
	shutdown chan struct{}

	initialized  atomic.Bool
	running      atomic.Bool
	inflight     atomic.Int64
	shutdownOnce sync.Once
	wg           sync.WaitGroup

	metrics *processorMetrics
}

// New creates a channel processor for the given configuration. Initialize
// must be called before Start.
func New(cfg config.Config, logger *slog.Logger, registry *metric.MetricsRegistry) *ChannelProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelProcessor{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
	}
}

// Initialize validates configuration and builds the engine and bounded
// channels. No goroutines are started.
func (p *ChannelProcessor) Initialize() error {
	if p.initialized.Load() {
		return errors.WrapInvalid(errors.ErrAlreadyStarted,
			"ChannelProcessor", "Initialize", "already initialized")
	}

	eng, err := engine.New(p.cfg, p.logger, p.registry)
	if err != nil {
		return errors.Wrap(err, "ChannelProcessor", "Initialize", "engine creation")
	}

	metrics, err := newProcessorMetrics(p.registry)
	if err != nil {
		p.logger.Error("Failed to initialize processor metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	p.engine = eng
	p.metrics = metrics
	p.input = make(chan types.VitalUpdate, p.cfg.InputBufferSize)
	p.output = make(chan Result, p.cfg.OutputBufferSize)
	p.shutdown = make(chan struct{})
	p.initialized.Store(true)
	return nil
}

// Start launches the consumer goroutine. The context bounds the consumer's
// lifetime: cancellation drains buffered updates and terminates the task.
func (p *ChannelProcessor) Start(ctx context.Context) error {
	if !p.initialized.Load() {
		return errors.WrapInvalid(errors.ErrNotStarted,
			"ChannelProcessor", "Start", "not initialized")
	}
	if !p.running.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrAlreadyStarted,
			"ChannelProcessor", "Start", "already running")
	}

	p.wg.Add(1)
	go p.consume(ctx)

	p.logger.Info("Channel processor started",
		"input_buffer", p.cfg.InputBufferSize,
		"output_buffer", p.cfg.OutputBufferSize)
	return nil
}

// Stop signals shutdown and waits for the consumer to drain buffered
// updates and exit. Returns an error when draining exceeds the timeout.
func (p *ChannelProcessor) Stop(timeout time.Duration) error {
	if !p.running.Load() {
		return errors.WrapInvalid(errors.ErrNotStarted,
			"ChannelProcessor", "Stop", "not running")
	}

	p.shutdownOnce.Do(func() { close(p.shutdown) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.running.Store(false)
		p.logger.Info("Channel processor stopped")
		return nil
	case <-time.After(timeout):
		return errors.WrapTransient(
			fmt.Errorf("%w: consumer did not drain within %s", errors.ErrShuttingDown, timeout),
			"ChannelProcessor", "Stop", "graceful shutdown")
	}
}

// stopped reports whether shutdown has been signalled. A never-initialized
// processor has a nil shutdown channel, which selects as not stopped.
func (p *ChannelProcessor) stopped() bool {
	if !p.initialized.Load() {
		return false
	}
	select {
	case <-p.shutdown:
		return true
	default:
		return false
	}
}

// Submit enqueues an update for processing, blocking while the bounded
// input channel is full. It fails with ErrProcessorStopped after shutdown
// and with the context error on cancellation.
func (p *ChannelProcessor) Submit(ctx context.Context, update types.VitalUpdate) error {
	if p.stopped() {
		return errors.WrapInvalid(errors.ErrProcessorStopped,
			"ChannelProcessor", "Submit", "enqueue update")
	}
	if !p.running.Load() {
		return errors.WrapInvalid(errors.ErrNotStarted,
			"ChannelProcessor", "Submit", "processor not running")
	}

	// The in-flight count keeps drain alive until a producer that already
	// passed the shutdown check has either handed off its update or failed
	p.inflight.Add(1)
	defer p.inflight.Add(-1)

	select {
	case <-p.shutdown:
		return errors.WrapInvalid(errors.ErrProcessorStopped,
			"ChannelProcessor", "Submit", "enqueue update")
	default:
	}

	select {
	case p.input <- update:
		p.metrics.recordSubmitted(len(p.input), p.cfg.InputBufferSize)
		return nil
	case <-p.shutdown:
		return errors.WrapInvalid(errors.ErrProcessorStopped,
			"ChannelProcessor", "Submit", "enqueue update")
	case <-ctx.Done():
		return errors.WrapTransient(ctx.Err(),
			"ChannelProcessor", "Submit", "enqueue update")
	}
}

// TrySubmit enqueues an update without blocking, failing with ErrQueueFull
// when the bounded input channel is full. For producers that prefer dropping
// an update to waiting out backpressure.
func (p *ChannelProcessor) TrySubmit(update types.VitalUpdate) error {
	if p.stopped() {
		return errors.WrapInvalid(errors.ErrProcessorStopped,
			"ChannelProcessor", "TrySubmit", "enqueue update")
	}
	if !p.running.Load() {
		return errors.WrapInvalid(errors.ErrNotStarted,
			"ChannelProcessor", "TrySubmit", "processor not running")
	}

	p.inflight.Add(1)
	defer p.inflight.Add(-1)

	select {
	case p.input <- update:
		p.metrics.recordSubmitted(len(p.input), p.cfg.InputBufferSize)
		return nil
	case <-p.shutdown:
		return errors.WrapInvalid(errors.ErrProcessorStopped,
			"ChannelProcessor", "TrySubmit", "enqueue update")
	default:
		return errors.WrapTransient(errors.ErrQueueFull,
			"ChannelProcessor", "TrySubmit", "enqueue update")
	}
}

// Results returns the bounded output channel. It is closed after the
// consumer drains and terminates.
func (p *ChannelProcessor) Results() <-chan Result {
	return p.output
}

// consume is the single long-lived consumer task. Each update is processed
// to completion before the next begins; a per-update engine error is logged
// with correlating context and never terminates the task.
func (p *ChannelProcessor) consume(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.output)

	for {
		select {
		case update := <-p.input:
			p.handle(ctx, update)
		case <-p.shutdown:
			p.drain(ctx)
			return
		case <-ctx.Done():
			p.drain(ctx)
			return
		}
	}
}

// drain processes updates buffered at shutdown. It terminates only once the
// channel is empty and no producer is mid-Submit: a producer that passed the
// shutdown check before it was signalled may still complete its send, and an
// accepted update must never be dropped.
func (p *ChannelProcessor) drain(ctx context.Context) {
	for {
		select {
		case update := <-p.input:
			p.handle(ctx, update)
		default:
			if p.inflight.Load() == 0 {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}
}

func (p *ChannelProcessor) handle(ctx context.Context, update types.VitalUpdate) {
	inference, alerts, err := p.engine.Process(update)
	if err != nil {
		// Fatal to this update only. Rejected input is expected noise and
		// logs at warning; anything else is an engine defect.
		p.metrics.recordError()
		logFn := p.logger.Error
		if errors.IsInvalid(err) {
			logFn = p.logger.Warn
		}
		logFn("Update processing failed",
			"patient_id", update.PatientID,
			"timestamp", update.Timestamp,
			"error", err)
		return
	}

	result := Result{Inference: inference, Alerts: alerts}

	select {
	case p.output <- result:
		p.metrics.recordResult(len(alerts))
	case <-ctx.Done():
		p.logger.Warn("Result dropped during shutdown",
			"patient_id", update.PatientID,
			"timestamp", update.Timestamp)
	}
}
