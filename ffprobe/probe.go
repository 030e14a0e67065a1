// Package ffprobe extracts video stream metadata from media files using the
// ffprobe command-line tool.
package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"vid2vid/models"
)

// Stream represents a media stream (audio, video, subtitle, etc.)
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	PixelFormat  string `json:"pix_fmt,omitempty"`
	RFrameRate   string `json:"r_frame_rate,omitempty"`
	AvgFrameRate string `json:"avg_frame_rate,omitempty"`
	NbFrames     string `json:"nb_frames,omitempty"`
	Duration     string `json:"duration,omitempty"`
}

// Format represents the container format information.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// ProbeResult holds the metadata extracted from a media file.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// VideoInfo is what decoding needs to know about the first video stream.
type VideoInfo struct {
	Dimensions models.Dimensions
	FrameRate  float64
	FrameCount int // 0 when the container does not record it
	Codec      string
	Duration   float64
}

// GetDuration returns the duration of the media file in seconds.
//
// Returns an error if the duration cannot be parsed.
func (pr *ProbeResult) GetDuration() (float64, error) {
	if pr.Format.Duration == "" {
		return 0, fmt.Errorf("duration not available in format metadata")
	}

	duration, err := strconv.ParseFloat(pr.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration '%s': %w", pr.Format.Duration, err)
	}

	return duration, nil
}

// GetVideoStreams returns all video streams from the media file.
func (pr *ProbeResult) GetVideoStreams() []Stream {
	var videoStreams []Stream
	for _, stream := range pr.Streams {
		if stream.CodecType == "video" {
			videoStreams = append(videoStreams, stream)
		}
	}
	return videoStreams
}

// VideoInfo summarizes the first video stream.
//
// The frame rate is read from avg_frame_rate and falls back to r_frame_rate
// when the average is missing or "0/0".
func (pr *ProbeResult) VideoInfo() (*VideoInfo, error) {
	streams := pr.GetVideoStreams()
	if len(streams) == 0 {
		return nil, fmt.Errorf("no video stream found")
	}
	s := streams[0]

	dims := models.Dimensions{Height: s.Height, Width: s.Width}
	if err := dims.Validate(); err != nil {
		return nil, err
	}

	rate, err := ParseFrameRate(s.AvgFrameRate)
	if err != nil {
		rate, err = ParseFrameRate(s.RFrameRate)
		if err != nil {
			return nil, fmt.Errorf("video stream %d: %w", s.Index, err)
		}
	}

	info := &VideoInfo{
		Dimensions: dims,
		FrameRate:  rate,
		Codec:      s.CodecName,
	}
	if n, err := strconv.Atoi(s.NbFrames); err == nil && n > 0 {
		info.FrameCount = n
	}
	if d, err := pr.GetDuration(); err == nil {
		info.Duration = d
	}
	return info, nil
}

// ParseFrameRate parses ffprobe's rational ("30000/1001") or decimal ("25")
// frame rate notation.
func ParseFrameRate(rate string) (float64, error) {
	rate = strings.TrimSpace(rate)
	if rate == "" {
		return 0, fmt.Errorf("frame rate not available")
	}

	num, den, isRational := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse frame rate '%s': %w", rate, err)
	}
	d := 1.0
	if isRational {
		d, err = strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse frame rate '%s': %w", rate, err)
		}
	}
	if n <= 0 || d <= 0 {
		return 0, fmt.Errorf("invalid frame rate '%s'", rate)
	}
	return n / d, nil
}

// Parse decodes ffprobe's JSON output.
func Parse(output []byte) (*ProbeResult, error) {
	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe JSON output: %w", err)
	}
	return &result, nil
}

// BuildArgs returns the ffprobe arguments used to probe sourcePath.
func BuildArgs(sourcePath string) []string {
	// -v quiet: suppress verbose output
	// -print_format json: output in JSON format
	// -show_streams: include stream information
	// -show_format: include format information
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		sourcePath,
	}
}

// ProbeWith analyzes a media file with the given ffprobe binary and extracts
// its metadata.
//
// Example:
//
//	result, err := ffprobe.ProbeWith(ctx, "ffprobe", "/path/to/video.mp4")
//	if err != nil {
//	    return err
//	}
//	info, err := result.VideoInfo()
func ProbeWith(ctx context.Context, binary, sourcePath string) (*ProbeResult, error) {
	if sourcePath == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}

	cmd := exec.CommandContext(ctx, binary, BuildArgs(sourcePath)...)
	output, err := cmd.Output()
	if err != nil {
		detail := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w (output: %s)", err, detail)
	}

	return Parse(output)
}
