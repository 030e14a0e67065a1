// Package orchestrator drives a stateful diffusion engine over a whole video:
// it configures the engine, warms its pipeline up on the first frame, streams
// every frame through it once and drops the outputs that the pipeline delay
// shifted out of alignment.
package orchestrator

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vid2vid/engine"
	"vid2vid/models"
)

// Metrics counts the engine calls of one run.
type Metrics struct {
	PrimingCalls   int
	FlushCalls     int
	StreamingCalls int
	EngineCalls    int // Sum of the three above

	FramesIn      int
	FramesOut     int
	TrimmedFrames int

	WarmupDuration time.Duration
	StreamDuration time.Duration
}

// Option configures a StreamOrchestrator.
type Option func(*StreamOrchestrator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *StreamOrchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// StreamOrchestrator runs one video through one engine. It is single-use and
// not safe for concurrent use; every engine call happens on the caller's
// goroutine.
type StreamOrchestrator struct {
	engine *engine.Guard
	logger *slog.Logger

	onProgress models.ProgressCallback

	state   State
	cfg     engine.Config
	latency PipelineLatency
	dims    models.Dimensions // Authoritative output size from the priming call

	outputs []*models.Frame
	calls   int
	metrics Metrics
}

// New creates an orchestrator that exclusively owns e.
func New(e engine.Engine, opts ...Option) *StreamOrchestrator {
	o := &StreamOrchestrator{
		engine: engine.NewGuard(e),
		logger: slog.Default(),
		state:  StateUnconfigured,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetProgressCallback sets a callback for warmup and streaming progress.
func (o *StreamOrchestrator) SetProgressCallback(callback models.ProgressCallback) {
	o.onProgress = callback
}

// State returns the current lifecycle state.
func (o *StreamOrchestrator) State() State {
	return o.state
}

// Latency returns the pipeline latency read from the engine at configuration.
func (o *StreamOrchestrator) Latency() PipelineLatency {
	return o.latency
}

// OutputDimensions returns the size of the engine's priming output. It is zero
// before WarmUp.
func (o *StreamOrchestrator) OutputDimensions() models.Dimensions {
	return o.dims
}

// Metrics returns a snapshot of the call counters.
func (o *StreamOrchestrator) Metrics() Metrics {
	return o.metrics
}

// Run configures the engine, warms it up on the first frame, streams every
// frame and returns the trimmed output. Empty input fails with
// models.ErrEmptyInput before any engine call.
func (o *StreamOrchestrator) Run(cfg engine.Config, prompt string, steps int, video *models.VideoBuffer) (*models.VideoBuffer, error) {
	if video == nil || video.Len() == 0 {
		o.state = StateFailed
		return nil, fmt.Errorf("%w: video has no frames", models.ErrEmptyInput)
	}
	if err := video.Validate(); err != nil {
		o.state = StateFailed
		return nil, err
	}

	if err := o.Configure(cfg, prompt, steps); err != nil {
		return nil, err
	}
	if err := o.WarmUp(video.Frames[0]); err != nil {
		return nil, err
	}
	if err := o.Stream(video.Frames); err != nil {
		return nil, err
	}
	return o.Drain(video.FrameRate)
}

// Configure prepares the engine exactly once and reads its pipeline latency.
func (o *StreamOrchestrator) Configure(cfg engine.Config, prompt string, steps int) error {
	if err := o.enter(StateConfiguring); err != nil {
		return err
	}

	o.cfg = cfg.Clone()
	if err := o.engine.Configure(o.cfg, prompt, steps); err != nil {
		return o.fail(&models.FrameError{Phase: models.PhaseConfigure, Err: err})
	}

	batch := o.engine.BatchSize()
	if batch < 0 {
		return o.fail(&models.FrameError{
			Phase: models.PhaseConfigure,
			Err:   fmt.Errorf("%w: engine reported batch size %d", models.ErrValueConstraint, batch),
		})
	}
	o.latency = PipelineLatency(batch)

	o.logger.Info("orchestrator: engine configured",
		"model", o.cfg.ModelID,
		"requested", o.cfg.Dimensions.String(),
		"latency", int(o.latency),
		"steps", steps)
	return nil
}

// WarmUp primes the engine with first, then flushes the pipeline with one call
// per unit of latency on the same frame. Every warmup output is discarded; only
// the priming output's dimensions are kept.
func (o *StreamOrchestrator) WarmUp(first *models.Frame) error {
	if first == nil {
		return fmt.Errorf("%w: no frame to warm up on", models.ErrEmptyInput)
	}
	if err := o.enter(StateWarmingUp); err != nil {
		return err
	}

	start := time.Now()
	progress := models.NewProgress(int64(o.latency.WarmupCalls()))
	progress.State = models.ProgressStateWarmingUp

	primed, err := o.call(models.PhasePriming, 0, first)
	if err != nil {
		return o.fail(err)
	}
	o.dims = primed.Dimensions()
	o.metrics.PrimingCalls++
	o.report(progress, 1)

	o.logger.Info("orchestrator: warmup primed", "output", o.dims.String(), "flush_calls", int(o.latency))

	for i := 0; i < int(o.latency); i++ {
		if _, err := o.call(models.PhaseFlush, 0, first); err != nil {
			return o.fail(err)
		}
		o.metrics.FlushCalls++
		o.report(progress, int64(i+2))
	}

	o.metrics.WarmupDuration = time.Since(start)
	o.logger.Info("orchestrator: warmup complete",
		"calls", o.metrics.PrimingCalls+o.metrics.FlushCalls,
		"duration", o.metrics.WarmupDuration)
	return nil
}

// Stream makes exactly one engine call per frame, in order, and records each
// output at the frame's index.
func (o *StreamOrchestrator) Stream(frames []*models.Frame) error {
	if len(frames) == 0 {
		return fmt.Errorf("%w: no frames to stream", models.ErrEmptyInput)
	}
	if err := o.enter(StateStreaming); err != nil {
		return err
	}

	start := time.Now()
	progress := models.NewProgress(int64(len(frames)))
	progress.State = models.ProgressStateStreaming

	o.outputs = make([]*models.Frame, 0, len(frames))
	o.metrics.FramesIn = len(frames)

	for i, frame := range frames {
		out, err := o.call(models.PhaseStreaming, i, frame)
		if err != nil {
			return o.fail(err)
		}
		o.outputs = append(o.outputs, out)
		o.metrics.StreamingCalls++
		o.report(progress, int64(i+1))
	}

	o.metrics.StreamDuration = time.Since(start)
	o.logger.Info("orchestrator: streaming complete",
		"frames", len(frames),
		"duration", o.metrics.StreamDuration)
	return nil
}

// Drain drops the first latency outputs and assembles the rest into the output
// video at frameRate. When the input was no longer than the latency the result
// is a valid, empty video.
func (o *StreamOrchestrator) Drain(frameRate float64) (*models.VideoBuffer, error) {
	if err := o.enter(StateDraining); err != nil {
		return nil, err
	}

	trimmed := Trim(o.outputs, o.latency)
	o.outputs = nil

	video, err := models.NewVideoBuffer(trimmed, frameRate, o.dims)
	if err != nil {
		return nil, o.fail(err)
	}

	o.metrics.FramesOut = len(trimmed)
	o.metrics.TrimmedFrames = o.metrics.StreamingCalls - len(trimmed)
	o.state = StateComplete

	if len(trimmed) == 0 {
		o.logger.Warn("orchestrator: input not longer than pipeline latency, output is empty",
			"frames_in", o.metrics.FramesIn,
			"latency", int(o.latency))
	}
	o.logger.Info("orchestrator: drained",
		"frames_out", len(trimmed),
		"trimmed", o.metrics.TrimmedFrames,
		"engine_calls", o.metrics.EngineCalls)
	return video, nil
}

// Close releases the engine.
func (o *StreamOrchestrator) Close() error {
	o.outputs = nil
	return o.engine.Close()
}

// call makes one engine call and checks its output against the run's
// authoritative dimensions. Failures come back as *models.FrameError.
func (o *StreamOrchestrator) call(phase models.Phase, index int, frame *models.Frame) (*models.Frame, error) {
	o.calls++
	o.metrics.EngineCalls = o.calls

	frameErr := func(err error) error {
		return &models.FrameError{Phase: phase, Index: index, Call: o.calls, Err: err}
	}

	out, err := o.engine.Infer(frame)
	if err != nil {
		return nil, frameErr(err)
	}
	if out == nil {
		return nil, frameErr(errors.New("engine returned no frame"))
	}
	if err := out.Validate(); err != nil {
		return nil, frameErr(err)
	}
	if phase != models.PhasePriming && out.Dimensions() != o.dims {
		return nil, frameErr(fmt.Errorf("%w: output is %s, priming output was %s",
			models.ErrValueConstraint, out.Dimensions(), o.dims))
	}

	o.logger.Debug("orchestrator: engine call", "phase", phase, "call", o.calls, "frame", index)
	return out, nil
}

// enter moves to next if the orchestrator is in next's predecessor state.
func (o *StreamOrchestrator) enter(next State) error {
	if want := predecessor[next]; o.state != want {
		return fmt.Errorf("%w: cannot enter %s from %s", models.ErrPrecedence, next, o.state)
	}
	o.state = next
	return nil
}

// fail moves to StateFailed and discards any collected output.
func (o *StreamOrchestrator) fail(err error) error {
	o.state = StateFailed
	o.outputs = nil
	o.logger.Error("orchestrator: run failed", "error", err, "engine_calls", o.calls)
	return err
}

func (o *StreamOrchestrator) report(progress *models.Progress, done int64) {
	if o.onProgress == nil {
		return
	}
	progress.Advance(done)
	o.onProgress(progress)
}
