package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/schollz/progressbar/v3"

	"vid2vid/config"
	"vid2vid/engine"
	"vid2vid/ffmpeg"
	"vid2vid/ffprobe"
	"vid2vid/internal/timeutil"
	"vid2vid/models"
	"vid2vid/orchestrator"
	"vid2vid/scaler"
)

func main() {
	// Step 1: Load configuration (CLI flags > config file > defaults)
	cfg, err := config.LoadConfig()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	logger := newLogger(cfg.Verbose).With("run_id", runID)
	slog.SetDefault(logger)

	// Step 2: Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 3: Handle save-config and dry-run modes
	if cfg.SaveConfig != "" {
		if err := config.SaveConfigFile(cfg, cfg.SaveConfig); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Configuration written to %s\n", cfg.SaveConfig)
		return
	}
	if cfg.DryRun {
		dryRun(ctx, cfg, logger)
		return
	}

	// Step 4: Register signal handlers (Ctrl+C, SIGTERM). They stop the
	// ffmpeg subprocesses; engine calls always run to the end of their phase.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\n⚠️  Interrupt received, cleaning up...")
		cancel()
	}()

	// Step 5: Run the pipeline
	result := newPipeline(cfg, runID, logger).run(ctx, cfg)
	if !result.Success {
		if errors.Is(ctx.Err(), context.Canceled) {
			fmt.Println("\n⚠️  Run cancelled by user")
			os.Exit(130) // Standard exit code for SIGINT
		}
		fmt.Fprintf(os.Stderr, "\n❌ Pipeline error: %v\n", result.Error)
		os.Exit(1)
	}

	fmt.Println("\n✅ Run completed successfully!")
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	}))
}

// videoSource decodes the input file into frames.
type videoSource interface {
	Decode(ctx context.Context, path string) (*models.VideoBuffer, error)
}

// videoSink encodes frames into the output file.
type videoSink interface {
	SetProgressCallback(callback models.ProgressCallback)
	Encode(ctx context.Context, video *models.VideoBuffer, path string) (string, error)
}

// pipeline runs decode → stylize → encode for one input.
type pipeline struct {
	runID  string
	source videoSource
	sink   videoSink
	logger *slog.Logger
}

// newPipeline wires the ffmpeg source and sink for cfg.
func newPipeline(cfg *config.Config, runID string, logger *slog.Logger) *pipeline {
	source := ffmpeg.NewSource(logger)
	source.MaxFrames = cfg.MaxFrames
	return &pipeline{
		runID:  runID,
		source: source,
		sink:   ffmpeg.NewSink(cfg.EncodeSettings(), logger),
		logger: logger,
	}
}

// run decodes, stylizes and encodes one video and reports the outcome. Any
// failure stops the run before the next phase; nothing is encoded after a
// failed decode or engine call.
func (p *pipeline) run(ctx context.Context, cfg *config.Config) *models.RunResult {
	runID, logger := p.runID, p.logger
	fail := func(err error) *models.RunResult {
		logger.Error("pipeline: run failed", "error", err)
		rr, _ := models.NewRunResultFailure(runID, err)
		return rr
	}

	startTime := time.Now()

	fmt.Println("╔════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                   VID2VID - PIPELINE START                     ║")
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
	fmt.Printf("Run:     %s\n", runID)
	fmt.Printf("Input:   %s\n", cfg.Input)
	fmt.Printf("Output:  %s\n", cfg.Output)
	fmt.Printf("Backend: %s\n", cfg.Backend)
	fmt.Println()

	// PHASE 1: Decode
	fmt.Println("📥 Phase 1: Decode")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	video, err := p.source.Decode(ctx, cfg.Input)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("  Frames:     %d\n", video.Len())
	fmt.Printf("  Size:       %s\n", video.Dimensions)
	fmt.Printf("  Frame rate: %.3f fps\n", video.FrameRate)
	fmt.Printf("  Duration:   %s\n", timeutil.FormatSeconds(video.Duration()))
	fmt.Println()

	// PHASE 2: Engine setup
	fmt.Println("⚙️  Phase 2: Engine Setup")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	target, err := scaler.TargetDimensions(video.Dimensions, cfg.Scale)
	if err != nil {
		return fail(err)
	}
	eng, err := engine.New(cfg.Backend, logger)
	if err != nil {
		return fail(err)
	}
	orch := orchestrator.New(eng, orchestrator.WithLogger(logger))
	defer orch.Close()

	engineCfg := cfg.EngineSettings(target)
	fmt.Printf("  Model:      %s\n", engineCfg.ModelID)
	fmt.Printf("  Target:     %s (scale %.2f)\n", target, cfg.Scale)
	fmt.Printf("  Batch size: %d\n", engineCfg.BatchSize())
	fmt.Println()

	// PHASE 3: Warmup and streaming
	fmt.Println("🎬 Phase 3: Stylize")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	bars := newPhaseBars(video.FrameRate)
	orch.SetProgressCallback(bars.update)
	output, err := orch.Run(engineCfg, cfg.Prompt, cfg.Engine.InferenceSteps, video)
	bars.finish()
	if err != nil {
		return fail(err)
	}

	metrics := orch.Metrics()
	fmt.Printf("  ✓ Warmup:    %d calls in %.2fs\n", metrics.PrimingCalls+metrics.FlushCalls, metrics.WarmupDuration.Seconds())
	fmt.Printf("  ✓ Streaming: %d frames in %.2fs\n", metrics.StreamingCalls, metrics.StreamDuration.Seconds())
	fmt.Printf("  ✓ Trimmed:   %d frames (latency %d)\n", metrics.TrimmedFrames, orch.Latency())
	fmt.Println()

	// PHASE 4: Encode
	fmt.Println("📤 Phase 4: Encode")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	p.sink.SetProgressCallback(func(pr *models.Progress) {
		fmt.Printf("\r  frame=%d/%d fps=%.1f time=%s speed=%.2fx size=%s",
			pr.Frame, pr.TotalFrames, pr.FPS, pr.CurrentTime, pr.Speed, pr.Size)
		os.Stdout.Sync()
	})
	path, err := p.sink.Encode(ctx, output, cfg.Output)
	fmt.Println()
	if err != nil {
		return fail(err)
	}

	result, err := models.NewRunResultSuccess(runID, path, metrics.FramesIn, metrics.FramesOut, metrics.EngineCalls, output.FrameRate)
	if err != nil {
		return fail(err)
	}
	printReport(result, output, time.Since(startTime))
	return result
}

// phaseBars renders one progress bar per orchestrator phase.
type phaseBars struct {
	frameRate float64
	state     models.ProgressState
	bar       *progressbar.ProgressBar
}

func newPhaseBars(frameRate float64) *phaseBars {
	return &phaseBars{frameRate: frameRate}
}

func (b *phaseBars) update(p *models.Progress) {
	if b.bar == nil || p.State != b.state {
		b.finish()
		b.state = p.State
		b.bar = progressbar.NewOptions64(p.TotalFrames,
			progressbar.OptionSetDescription("  "+string(p.State)),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("frames"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	if p.State == models.ProgressStateStreaming {
		b.bar.Describe(fmt.Sprintf("  streaming %s", timeutil.FormatFrame(int(p.Frame), b.frameRate)))
	}
	_ = b.bar.Set64(p.Frame)
}

func (b *phaseBars) finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
		fmt.Fprintln(os.Stderr)
		b.bar = nil
	}
}

func printReport(result *models.RunResult, output *models.VideoBuffer, elapsed time.Duration) {
	outputSize := int64(0)
	if info, err := os.Stat(result.OutputPath); err == nil {
		outputSize = info.Size()
	}

	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("                     ✅ SUCCESS!")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Output:       %s\n", result.OutputPath)
	fmt.Printf("  Size:         %.2f MB\n", float64(outputSize)/(1024*1024))
	fmt.Printf("  Dimensions:   %s\n", output.Dimensions)
	fmt.Printf("  Duration:     %s\n", timeutil.FormatSeconds(output.Duration()))
	fmt.Printf("  Frames:       %d in, %d out\n", result.FramesIn, result.FramesOut)
	fmt.Printf("  Engine calls: %d\n", result.EngineCalls)
	fmt.Printf("  Total time:   %.2fs\n", elapsed.Seconds())
	if secs := elapsed.Seconds(); secs > 0 {
		fmt.Printf("  Throughput:   %.2f frames/s\n", float64(result.FramesIn)/secs)
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// dryRun prints the effective configuration and the ffmpeg commands a run
// would execute.
func dryRun(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("                      DRY RUN MODE")
	fmt.Println("═══════════════════════════════════════════════════════════")
	cfg.PrintConfig(os.Stdout)

	source := ffmpeg.NewSource(logger)
	source.MaxFrames = cfg.MaxFrames
	if line, err := source.Command(cfg.Input).DryRun(); err == nil {
		fmt.Printf("\nDecode: %s\n", line)
	}

	probe, err := ffprobe.ProbeWith(ctx, source.FFprobePath, cfg.Input)
	if err != nil {
		logger.Warn("dry-run: probe failed, encode command unavailable", "error", err)
		return
	}
	info, err := probe.VideoInfo()
	if err != nil {
		logger.Warn("dry-run: no usable video stream", "error", err)
		return
	}
	target, err := scaler.TargetDimensions(info.Dimensions, cfg.Scale)
	if err != nil {
		logger.Warn("dry-run: invalid target size", "error", err)
		return
	}

	// Output size is chosen by the engine; the passthrough alignment is shown
	placeholder := &models.VideoBuffer{FrameRate: info.FrameRate, Dimensions: engine.AlignDimensions(target)}
	sink := ffmpeg.NewSink(cfg.EncodeSettings(), logger)
	if line, err := sink.Command(placeholder, cfg.Output).DryRun(); err == nil {
		fmt.Printf("Encode: %s\n", line)
	}
	fmt.Printf("\nEngine calls: %d for %d source frames\n",
		orchestrator.PipelineLatency(cfg.EngineSettings(target).BatchSize()).TotalCalls(info.FrameCount), info.FrameCount)
	fmt.Println("\n✓ Configuration is valid. No frames will be processed.")
}
