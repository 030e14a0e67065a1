package encode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"vid2vid/command"
	"vid2vid/models"
)

// evenPadFilter pads odd sides by one pixel; yuv420p needs even dimensions.
const evenPadFilter = "pad=ceil(iw/2)*2:ceil(ih/2)*2"

// EncodeBuilder builds the ffmpeg arguments that encode packed rgb24 frames
// read from stdin into a video file.
type EncodeBuilder struct {
	outputPath string

	// Raw input description
	dims      models.Dimensions
	frameRate float64

	// Encoding settings
	codec   string
	encoder string // Specific hardware encoder (e.g., "h264_nvenc"), overrides codec
	bitrate string
	crf     int
	preset  string

	pixelFormat string
	filters     []string
	stats       bool

	extraArgs []string
}

// NewEncodeBuilder creates a new encode command builder for frames of dims at
// frameRate.
func NewEncodeBuilder(dims models.Dimensions, frameRate float64, outputPath string) *EncodeBuilder {
	return &EncodeBuilder{
		outputPath:  outputPath,
		dims:        dims,
		frameRate:   frameRate,
		codec:       "libx264",
		crf:         23,
		preset:      "medium",
		pixelFormat: "yuv420p",
		stats:       true,
		filters:     []string{},
		extraArgs:   []string{},
	}
}

// SetCodec sets the video codec (e.g., "libx264", "libx265", "libvpx-vp9")
func (e *EncodeBuilder) SetCodec(codec string) *EncodeBuilder {
	e.codec = codec
	return e
}

// SetHardwareEncoder sets a hardware encoder directly (e.g., "h264_nvenc").
// CRF and pixel format are left to the encoder's defaults.
func (e *EncodeBuilder) SetHardwareEncoder(encoder string) *EncodeBuilder {
	e.encoder = encoder
	return e
}

// SetBitrate sets the video bitrate (e.g., "2M", "1500k")
func (e *EncodeBuilder) SetBitrate(bitrate string) *EncodeBuilder {
	e.bitrate = bitrate
	return e
}

// SetCRF sets the Constant Rate Factor (0-51, lower is better quality)
func (e *EncodeBuilder) SetCRF(crf int) *EncodeBuilder {
	e.crf = crf
	return e
}

// SetPreset sets the encoding preset (ultrafast ... veryslow)
func (e *EncodeBuilder) SetPreset(preset string) *EncodeBuilder {
	e.preset = preset
	return e
}

// SetPixelFormat sets the output pixel format (e.g., "yuv420p", "yuv444p")
func (e *EncodeBuilder) SetPixelFormat(pixfmt string) *EncodeBuilder {
	e.pixelFormat = pixfmt
	return e
}

// SetStats toggles ffmpeg's periodic progress line on stderr.
func (e *EncodeBuilder) SetStats(enabled bool) *EncodeBuilder {
	e.stats = enabled
	return e
}

// AddFilter adds a video filter applied before encoding
func (e *EncodeBuilder) AddFilter(filter string) *EncodeBuilder {
	e.filters = append(e.filters, filter)
	return e
}

// AddExtraArgs adds custom ffmpeg arguments
func (e *EncodeBuilder) AddExtraArgs(args ...string) *EncodeBuilder {
	e.extraArgs = append(e.extraArgs, args...)
	return e
}

// Validate checks the builder parameters.
func (e *EncodeBuilder) Validate() error {
	var errors []string

	if strings.TrimSpace(e.outputPath) == "" {
		errors = append(errors, "output path cannot be empty")
	}
	if err := e.dims.Validate(); err != nil {
		errors = append(errors, err.Error())
	}
	if e.frameRate <= 0 || math.IsInf(e.frameRate, 0) || math.IsNaN(e.frameRate) {
		errors = append(errors, fmt.Sprintf("frame rate must be positive, got %v", e.frameRate))
	}
	if e.codec == "" && e.encoder == "" {
		errors = append(errors, "codec cannot be empty")
	}
	if e.encoder == "" && (e.crf < 0 || e.crf > 51) {
		errors = append(errors, fmt.Sprintf("crf must be between 0 and 51, got %d", e.crf))
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalid encode command: %s", strings.Join(errors, ", "))
	}
	return nil
}

// BuildArgs constructs the ffmpeg arguments for encoding
func (e *EncodeBuilder) BuildArgs() []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if e.stats {
		args = append(args, "-stats")
	}

	// Raw frames on stdin
	args = append(args,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", e.dims.String(),
		"-r", formatRate(e.frameRate),
		"-i", command.Pipe,
	)

	if filterChain := e.buildFilterChain(); filterChain != "" {
		args = append(args, "-vf", filterChain)
	}

	if e.encoder != "" {
		args = append(args, "-c:v", e.encoder)
	} else {
		args = append(args, "-c:v", e.codec)
		// CRF and pixel format only apply to software encoders
		args = append(args, "-crf", fmt.Sprintf("%d", e.crf))
		if e.pixelFormat != "" {
			args = append(args, "-pix_fmt", e.pixelFormat)
		}
	}

	if e.bitrate != "" {
		args = append(args, "-b:v", e.bitrate)
	}

	if e.preset != "" {
		args = append(args, "-preset", e.preset)
	}

	args = append(args, e.extraArgs...)

	// Overwrite output
	args = append(args, "-y", e.outputPath)
	return args
}

// buildFilterChain joins custom filters, padding odd frame sizes first.
func (e *EncodeBuilder) buildFilterChain() string {
	filters := []string{}
	if e.dims.Height%2 != 0 || e.dims.Width%2 != 0 {
		filters = append(filters, evenPadFilter)
	}
	filters = append(filters, e.filters...)
	return strings.Join(filters, ",")
}

// DryRun returns the command that would be executed without running it
func (e *EncodeBuilder) DryRun() (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	return command.Format("ffmpeg", e.BuildArgs()), nil
}

// GetTaskType returns the task type identifier
func (e *EncodeBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeEncode
}

// GetInputPath returns the stdin pipe
func (e *EncodeBuilder) GetInputPath() string {
	return command.Pipe
}

// GetOutputPath returns the output file path
func (e *EncodeBuilder) GetOutputPath() string {
	return e.outputPath
}

// FrameSize is the byte length of one rgb24 input frame.
func (e *EncodeBuilder) FrameSize() int {
	return e.dims.Height * e.dims.Width * models.RGBChannels
}

// formatRate renders a frame rate without trailing zeros (30, 29.97).
func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

var _ command.Command = (*EncodeBuilder)(nil)
