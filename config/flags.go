package config

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// MergeFromArgs parses args as command-line flags and overrides config values.
// Only flags that were given change the config.
func (c *Config) MergeFromArgs(args []string) error {
	fs := flag.NewFlagSet("vid2vid", flag.ContinueOnError)
	fs.Usage = printUsage

	// Required fields
	input := fs.String("input", "", "Input video file path (required)")
	output := fs.String("output", "", "Output video file path (default: from config)")

	// Config file override (handled by LoadConfig before this function is called)
	_ = fs.String("config", "", "Path to config file (default: search standard locations)")

	// Run settings
	prompt := fs.String("prompt", "", "Style prompt (default: from config)")
	scale := fs.Float64("scale", 0, "Output size relative to the source (default: from config)")
	backend := fs.String("backend", "", "Engine backend (default: from config)")
	maxFrames := fs.Int("max-frames", -1, "Only process the first N frames (0 = all)")

	// Engine settings
	model := fs.String("model", "", "Model id (default: from config)")
	lora := map[string]float64{}
	fs.Func("lora", "LoRA adapter as name=weight, repeatable", func(value string) error {
		name, weight, err := parseLora(value)
		if err != nil {
			return err
		}
		lora[name] = weight
		return nil
	})
	acceleration := fs.String("acceleration", "", "Acceleration: none, xformers, tensorrt (default: from config)")
	denoisingBatch := fs.Bool("denoising-batch", false, "Denoise all timesteps in one batch")
	noDenoisingBatch := fs.Bool("no-denoising-batch", false, "Denoise one timestep per call")
	similarFilter := fs.Bool("similar-filter", false, "Skip frames similar to the previous one")
	noSimilarFilter := fs.Bool("no-similar-filter", false, "Process every frame")
	similarThreshold := fs.Float64("similar-threshold", 0, "Similar image filter threshold in (0, 1] (default: from config)")
	seed := fs.Int64("seed", 0, "Random seed, -1 = random (default: from config)")
	steps := fs.Int("steps", -1, "Number of inference steps (default: from config)")
	tIndex := fs.String("t-index", "", "Comma-separated denoising timestep indices, e.g. 35,45 (default: from config)")
	frameBuffer := fs.Int("frame-buffer-size", -1, "Frames buffered per denoising step (default: from config)")
	warmup := fs.Int("warmup", -1, "Engine-internal warmup iterations (default: from config)")

	// Video settings
	videoCodec := fs.String("video-codec", "", "Video codec (default: from config)")
	videoHWEncoder := fs.String("video-hw-encoder", "", "Hardware encoder, e.g. h264_nvenc (default: from config)")
	videoCRF := fs.Int("video-crf", -1, "Video CRF (0-51, lower = better quality) (default: from config)")
	videoPreset := fs.String("video-preset", "", "Video preset: ultrafast, fast, medium, slow, veryslow (default: from config)")
	videoPixelFormat := fs.String("video-pixel-format", "", "Output pixel format (default: from config)")
	videoBitrate := fs.String("video-bitrate", "", "Target video bitrate, e.g. 5M (default: from config)")
	var videoFilters []string
	fs.Func("video-filter", "ffmpeg video filter applied before encoding, repeatable", func(value string) error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("video filter cannot be empty")
		}
		videoFilters = append(videoFilters, value)
		return nil
	})

	// Behavioral flags
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	dryRun := fs.Bool("dry-run", false, "Show configuration and commands without running")
	saveConfig := fs.String("save-config", "", "Write the effective configuration to a YAML file and exit")

	// Parse flags
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Flags whose zero or negative value is meaningful are applied only when given
	given := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { given[f.Name] = true })

	// Override with flag values (only if explicitly set)
	if *input != "" {
		c.Input = *input
	}
	if *output != "" {
		c.Output = *output
	}

	// Run settings
	if *prompt != "" {
		c.Prompt = *prompt
	}
	if given["scale"] {
		c.Scale = *scale
	}
	if *backend != "" {
		c.Backend = *backend
	}
	if *maxFrames >= 0 {
		c.MaxFrames = *maxFrames
	}

	// Engine settings
	if *model != "" {
		c.Engine.ModelID = *model
	}
	if len(lora) > 0 {
		c.Engine.Lora = lora
	}
	if *acceleration != "" {
		c.Engine.Acceleration = *acceleration
	}
	if *denoisingBatch {
		c.Engine.UseDenoisingBatch = true
	}
	if *noDenoisingBatch {
		c.Engine.UseDenoisingBatch = false
	}
	if *similarFilter {
		c.Engine.EnableSimilarImageFilter = true
	}
	if *noSimilarFilter {
		c.Engine.EnableSimilarImageFilter = false
	}
	if given["similar-threshold"] {
		c.Engine.SimilarImageFilterThreshold = *similarThreshold
	}
	if given["seed"] {
		c.Engine.Seed = *seed
	}
	if *steps >= 0 {
		c.Engine.InferenceSteps = *steps
	}
	if *tIndex != "" {
		list, err := parseIntList(*tIndex)
		if err != nil {
			return fmt.Errorf("invalid -t-index: %w", err)
		}
		c.Engine.TIndexList = list
	}
	if *frameBuffer >= 0 {
		c.Engine.FrameBufferSize = *frameBuffer
	}
	if *warmup >= 0 {
		c.Engine.Warmup = *warmup
	}

	// Video settings
	if *videoCodec != "" {
		c.Video.Codec = *videoCodec
	}
	if *videoHWEncoder != "" {
		c.Video.HardwareEncoder = *videoHWEncoder
	}
	if *videoCRF >= 0 {
		c.Video.CRF = *videoCRF
	}
	if *videoPreset != "" {
		c.Video.Preset = *videoPreset
	}
	if *videoPixelFormat != "" {
		c.Video.PixelFormat = *videoPixelFormat
	}
	if *videoBitrate != "" {
		c.Video.Bitrate = *videoBitrate
	}
	if len(videoFilters) > 0 {
		c.Video.Filters = videoFilters
	}

	// Behavioral flags
	if *verbose {
		c.Verbose = true
	}
	if *dryRun {
		c.DryRun = true
	}
	if *saveConfig != "" {
		c.SaveConfig = *saveConfig
	}

	return nil
}

// parseLora parses "name=weight".
func parseLora(value string) (string, float64, error) {
	name, weightStr, ok := strings.Cut(value, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", 0, fmt.Errorf("lora must be name=weight, got '%s'", value)
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(weightStr), 64)
	if err != nil || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return "", 0, fmt.Errorf("lora '%s' has invalid weight '%s'", name, weightStr)
	}
	return name, weight, nil
}

// parseIntList parses "35,45".
func parseIntList(value string) ([]int, error) {
	parts := strings.Split(value, ",")
	list := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("'%s' is not an integer", part)
		}
		list = append(list, n)
	}
	return list, nil
}

// printUsage prints help text
func printUsage() {
	fmt.Fprintf(os.Stderr, `vid2vid - Stylize a video frame by frame with a streaming diffusion engine

USAGE:
  vid2vid -input FILE [-output FILE] [OPTIONS]

REQUIRED FLAGS:
  -input string
        Input video file path (required)

OUTPUT:
  -output string
        Output video file path (default: <executable dir>/images/outputs/output.mp4)

CONFIGURATION:
  -config string
        Path to config file (default: search ./vid2vid.yaml, ~/.vid2vid/config.yaml, /etc/vid2vid/config.yaml)

RUN SETTINGS:
  -prompt string
        Style prompt (default: a surrealist dreamscape)
  -scale float
        Output size relative to the source (default: 1.0)
  -backend string
        Engine backend (default: passthrough)
  -max-frames int
        Only process the first N frames (0 = all)

ENGINE SETTINGS:
  -model string
        Model id (default: KBlueLeaf/kohaku-v2.1)
  -lora name=weight
        LoRA adapter and scale, repeatable
  -acceleration string
        Acceleration: none, xformers, tensorrt (default: xformers)
  --denoising-batch / --no-denoising-batch
        Denoise all timesteps in one batch (default: on)
  --similar-filter / --no-similar-filter
        Skip frames similar to the previous one (default: on)
  -similar-threshold float
        Similar image filter threshold (default: 0.98)
  -seed int
        Random seed, -1 = random (default: 2)
  -steps int
        Number of inference steps (default: 50)
  -t-index string
        Denoising timestep indices (default: 35,45)
  -frame-buffer-size int
        Frames buffered per denoising step (default: 1)
  -warmup int
        Engine-internal warmup iterations (default: 10)

VIDEO SETTINGS:
  -video-codec string
        Video codec (default: libx264)
  -video-hw-encoder string
        Hardware encoder, e.g. h264_nvenc (overrides codec)
  -video-crf int
        Video CRF: 0-51, lower = better quality (default: 23)
  -video-preset string
        Video preset: ultrafast, fast, medium, slow, veryslow (default: medium)
  -video-pixel-format string
        Output pixel format (default: yuv420p)
  -video-bitrate string
        Target video bitrate, e.g. 5M (default: CRF only)
  -video-filter string
        ffmpeg video filter applied before encoding, repeatable

BEHAVIORAL FLAGS:
  --verbose
        Enable verbose logging
  --dry-run
        Show effective configuration and ffmpeg commands without running
  -save-config string
        Write the effective configuration to a YAML file and exit

EXAMPLES:
  # Basic usage
  vid2vid -input clip.mp4 -output styled.mp4

  # Half-size output with a custom prompt and random seed
  vid2vid -input clip.mp4 -scale 0.5 -prompt "oil painting, impasto" -seed -1

  # Two LoRA adapters, no similar image filter
  vid2vid -input clip.mp4 -lora style=0.8 -lora detail=0.4 --no-similar-filter

  # Show effective configuration
  vid2vid -input clip.mp4 --dry-run

CONFIGURATION FILES:
  Config files are searched in order:
    1. ./vid2vid.yaml
    2. ~/.vid2vid/config.yaml
    3. /etc/vid2vid/config.yaml

  Priority: CLI flags > Config file > Defaults

`)
}

// PrintConfig prints the effective configuration
func (c *Config) PrintConfig(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "                 Effective Configuration                  ")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "Input:          %s\n", c.Input)
	fmt.Fprintf(w, "Output:         %s\n", c.Output)
	fmt.Fprintf(w, "Prompt:         %s\n", truncate(c.Prompt, 60))
	fmt.Fprintf(w, "Scale:          %g\n", c.Scale)
	fmt.Fprintf(w, "Backend:        %s\n", c.Backend)
	if c.MaxFrames > 0 {
		fmt.Fprintf(w, "Max Frames:     %d\n", c.MaxFrames)
	}

	fmt.Fprintln(w, "\nEngine Settings:")
	fmt.Fprintf(w, "  Model:        %s\n", c.Engine.ModelID)
	if len(c.Engine.Lora) > 0 {
		names := make([]string, 0, len(c.Engine.Lora))
		for name := range c.Engine.Lora {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  LoRA:         %s=%g\n", name, c.Engine.Lora[name])
		}
	}
	fmt.Fprintf(w, "  Acceleration: %s\n", c.Engine.Acceleration)
	fmt.Fprintf(w, "  Batching:     %v\n", c.Engine.UseDenoisingBatch)
	fmt.Fprintf(w, "  Similar:      %v (threshold %g)\n", c.Engine.EnableSimilarImageFilter, c.Engine.SimilarImageFilterThreshold)
	fmt.Fprintf(w, "  Seed:         %d\n", c.Engine.Seed)
	fmt.Fprintf(w, "  Steps:        %d\n", c.Engine.InferenceSteps)
	fmt.Fprintf(w, "  T Index:      %v\n", c.Engine.TIndexList)
	fmt.Fprintf(w, "  Frame Buffer: %d\n", c.Engine.FrameBufferSize)

	fmt.Fprintln(w, "\nVideo Settings:")
	if c.Video.HardwareEncoder != "" {
		fmt.Fprintf(w, "  Encoder:      %s\n", c.Video.HardwareEncoder)
	} else {
		fmt.Fprintf(w, "  Codec:        %s\n", c.Video.Codec)
		fmt.Fprintf(w, "  CRF:          %d\n", c.Video.CRF)
		fmt.Fprintf(w, "  Pixel Format: %s\n", c.Video.PixelFormat)
	}
	fmt.Fprintf(w, "  Preset:       %s\n", c.Video.Preset)
	if c.Video.Bitrate != "" {
		fmt.Fprintf(w, "  Bitrate:      %s\n", c.Video.Bitrate)
	}
	for _, filter := range c.Video.Filters {
		fmt.Fprintf(w, "  Filter:       %s\n", filter)
	}

	fmt.Fprintln(w, "\nBehavioral Flags:")
	fmt.Fprintf(w, "  Verbose:       %v\n", c.Verbose)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
