package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"vid2vid/command/encode"
	"vid2vid/models"
)

// EncodeSettings are the output encoder options.
type EncodeSettings struct {
	Codec           string
	HardwareEncoder string // Overrides Codec, e.g. "h264_nvenc"
	CRF             int
	Preset          string
	PixelFormat     string
	Bitrate         string
	Filters         []string
	ExtraArgs       []string
}

// DefaultEncodeSettings returns H.264 settings every player accepts.
func DefaultEncodeSettings() EncodeSettings {
	return EncodeSettings{
		Codec:       "libx264",
		CRF:         23,
		Preset:      "medium",
		PixelFormat: "yuv420p",
	}
}

// Sink encodes frames into a video file.
type Sink struct {
	FFmpegPath string
	Settings   EncodeSettings

	logger     *slog.Logger
	onProgress models.ProgressCallback
}

// NewSink creates a Sink using ffmpeg from PATH.
func NewSink(settings EncodeSettings, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		FFmpegPath: "ffmpeg",
		Settings:   settings,
		logger:     logger,
	}
}

// SetProgressCallback sets a callback for encoding progress updates
func (s *Sink) SetProgressCallback(callback models.ProgressCallback) {
	s.onProgress = callback
}

// Command returns the encode command that writes video to outputPath.
func (s *Sink) Command(video *models.VideoBuffer, outputPath string) *encode.EncodeBuilder {
	builder := encode.NewEncodeBuilder(video.Dimensions, video.FrameRate, outputPath).
		SetCodec(s.Settings.Codec).
		SetCRF(s.Settings.CRF).
		SetPreset(s.Settings.Preset).
		SetPixelFormat(s.Settings.PixelFormat).
		SetBitrate(s.Settings.Bitrate).
		AddExtraArgs(s.Settings.ExtraArgs...)
	for _, filter := range s.Settings.Filters {
		builder.AddFilter(filter)
	}
	if s.Settings.HardwareEncoder != "" {
		builder.SetHardwareEncoder(s.Settings.HardwareEncoder)
	}
	return builder
}

// Encode writes video to path and returns path.
//
// ffmpeg writes into a temporary file next to path that is renamed into place
// only once encoding succeeded, so a failed run never leaves a file at path.
// An empty video is an error. Every failure wraps models.ErrEncode.
func (s *Sink) Encode(ctx context.Context, video *models.VideoBuffer, path string) (string, error) {
	if video == nil || video.Len() == 0 {
		return "", fmt.Errorf("%w: no frames to encode", models.ErrEncode)
	}
	if err := video.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrEncode, err)
	}
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: output path cannot be empty", models.ErrEncode)
	}
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: output path %s has no container extension", models.ErrEncode, path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrEncode, err)
	}

	tmp, err := os.CreateTemp(dir, "."+strings.TrimSuffix(filepath.Base(path), ext)+"-*"+ext)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrEncode, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	builder := s.Command(video, tmpPath)
	if err := builder.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrEncode, err)
	}

	s.logger.Info("encode: starting",
		"path", path,
		"frames", video.Len(),
		"dimensions", video.Dimensions.String(),
		"fps", video.FrameRate)

	if err := s.run(ctx, builder.BuildArgs(), video); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrEncode, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrEncode, err)
	}
	committed = true

	s.logger.Info("encode: complete", "path", path, "duration", video.Duration())
	return path, nil
}

// run pipes every frame into ffmpeg and waits for it to exit.
func (s *Sink) run(ctx context.Context, args []string, video *models.VideoBuffer) error {
	cmd := exec.CommandContext(ctx, s.FFmpegPath, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	progress := models.NewProgress(int64(video.Len()))
	progress.State = models.ProgressStateEncoding

	var (
		wg          sync.WaitGroup
		diagnostics []string
		parseErr    error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		diagnostics, parseErr = NewProgressParser().StreamProgress(stderr, progress, s.onProgress)
	}()

	writeErr := WriteFrames(stdin, video.Frames, nil)
	closeErr := stdin.Close()

	// stderr must be drained before Wait closes it
	wg.Wait()
	waitErr := cmd.Wait()

	if waitErr != nil {
		return fmt.Errorf("ffmpeg failed: %w (output: %s)", waitErr, strings.Join(diagnostics, "; "))
	}
	if err := errors.Join(writeErr, closeErr); err != nil {
		return err
	}
	if parseErr != nil {
		s.logger.Warn("encode: progress parsing stopped", "error", parseErr)
	}

	progress.State = models.ProgressStateCompleted
	progress.Advance(int64(video.Len()))
	if s.onProgress != nil {
		s.onProgress(progress)
	}
	return nil
}
