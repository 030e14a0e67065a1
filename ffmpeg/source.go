package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"vid2vid/command/decode"
	"vid2vid/ffprobe"
	"vid2vid/models"
)

// Source decodes a video file into normalized frames.
type Source struct {
	FFmpegPath  string
	FFprobePath string
	MaxFrames   int // 0 decodes every frame

	logger *slog.Logger
}

// NewSource creates a Source using ffmpeg and ffprobe from PATH.
func NewSource(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		logger:      logger,
	}
}

// Command returns the decode command Decode runs for path.
func (s *Source) Command(path string) *decode.DecodeBuilder {
	return decode.NewDecodeBuilder(path).SetMaxFrames(s.MaxFrames)
}

// Decode reads every frame of the first video stream of path. A video with no
// frames decodes to a valid, empty buffer. Every failure wraps models.ErrDecode.
//
// The whole clip is held in memory as float32 samples, four times its raw
// rgb24 size, before the first engine call. Limit long inputs with MaxFrames.
// Frames keep their coded size: container rotation is not applied.
func (s *Source) Decode(ctx context.Context, path string) (*models.VideoBuffer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrDecode, err)
	}

	probe, err := ffprobe.ProbeWith(ctx, s.FFprobePath, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrDecode, err)
	}
	info, err := probe.VideoInfo()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrDecode, path, err)
	}

	s.logger.Info("decode: probed input",
		"path", path,
		"codec", info.Codec,
		"dimensions", info.Dimensions.String(),
		"fps", info.FrameRate,
		"frames", info.FrameCount)
	if n := s.expectedFrames(info.FrameCount); n > 0 {
		s.logger.Info("decode: estimated frame buffer",
			"frames", n,
			"mib", float64(bufferBytes(n, info.Dimensions))/(1<<20))
	}

	builder := s.Command(path)
	if err := builder.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrDecode, err)
	}

	cmd := exec.CommandContext(ctx, s.FFmpegPath, builder.BuildArgs()...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get stdout pipe: %w", models.ErrDecode, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: failed to start ffmpeg: %w", models.ErrDecode, err)
	}

	frames, readErr := ReadFrames(stdout, info.Dimensions)
	if readErr != nil {
		io.Copy(io.Discard, stdout)
	}
	waitErr := cmd.Wait()
	if waitErr != nil {
		return nil, fmt.Errorf("%w: ffmpeg failed: %w (output: %s)",
			models.ErrDecode, waitErr, strings.TrimSpace(stderr.String()))
	}
	if readErr != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrDecode, readErr)
	}

	video, err := models.NewVideoBuffer(frames, info.FrameRate, info.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrDecode, err)
	}

	s.logger.Info("decode: complete", "frames", video.Len(), "duration", video.Duration())
	return video, nil
}

// expectedFrames is the number of frames Decode will hold, 0 when unknown.
func (s *Source) expectedFrames(probed int) int {
	if s.MaxFrames > 0 && (probed == 0 || s.MaxFrames < probed) {
		return s.MaxFrames
	}
	return probed
}

// bufferBytes is the in-memory size of n normalized frames of dims.
func bufferBytes(n int, dims models.Dimensions) int64 {
	return int64(n) * int64(dims.Height*dims.Width*models.RGBChannels) * 4
}
