package ffprobe

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"vid2vid/models"
)

const sampleOutput = `{
  "streams": [
    {"index": 0, "codec_name": "aac", "codec_type": "audio"},
    {"index": 1, "codec_name": "h264", "codec_type": "video", "width": 640, "height": 360,
     "pix_fmt": "yuv420p", "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001", "nb_frames": "300"}
  ],
  "format": {"filename": "in.mp4", "format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "10.010000"}
}`

func TestProbe_EmptyPath(t *testing.T) {
	_, err := ProbeWith(context.Background(), "ffprobe", "")
	if err == nil {
		t.Fatal("Expected error for empty path")
	}
	if !strings.Contains(err.Error(), "cannot be empty") {
		t.Errorf("Expected 'cannot be empty' error, got: %v", err)
	}
}

func TestProbe_MissingBinary(t *testing.T) {
	_, err := ProbeWith(context.Background(), "/nonexistent/ffprobe", "/nonexistent/file.mp4")
	if err == nil {
		t.Fatal("Expected error for missing binary")
	}
	if !strings.Contains(err.Error(), "ffprobe failed") {
		t.Errorf("Expected ffprobe error, got: %v", err)
	}
}

func TestParse(t *testing.T) {
	result, err := Parse([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Streams) != 2 {
		t.Fatalf("Expected 2 streams, got %d", len(result.Streams))
	}
	if result.Format.Filename != "in.mp4" {
		t.Errorf("Expected filename 'in.mp4', got '%s'", result.Format.Filename)
	}

	if _, err := Parse([]byte("not json")); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestProbeResult_VideoInfo(t *testing.T) {
	result, err := Parse([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	info, err := result.VideoInfo()
	if err != nil {
		t.Fatalf("VideoInfo failed: %v", err)
	}

	if info.Dimensions != (models.Dimensions{Height: 360, Width: 640}) {
		t.Errorf("Expected 640x360, got %s", info.Dimensions)
	}
	if math.Abs(info.FrameRate-29.97002997) > 1e-6 {
		t.Errorf("Expected ~29.97 fps, got %f", info.FrameRate)
	}
	if info.FrameCount != 300 {
		t.Errorf("Expected 300 frames, got %d", info.FrameCount)
	}
	if info.Codec != "h264" {
		t.Errorf("Expected codec h264, got %s", info.Codec)
	}
	if info.Duration != 10.01 {
		t.Errorf("Expected duration 10.01, got %f", info.Duration)
	}
}

func TestProbeResult_VideoInfo_FallbackRate(t *testing.T) {
	result := ProbeResult{Streams: []Stream{
		{CodecType: "video", Width: 64, Height: 64, AvgFrameRate: "0/0", RFrameRate: "25/1"},
	}}

	info, err := result.VideoInfo()
	if err != nil {
		t.Fatalf("VideoInfo failed: %v", err)
	}
	if info.FrameRate != 25 {
		t.Errorf("Expected 25 fps, got %f", info.FrameRate)
	}
	if info.FrameCount != 0 {
		t.Errorf("Expected unknown frame count, got %d", info.FrameCount)
	}
}

func TestProbeResult_VideoInfo_Errors(t *testing.T) {
	tests := []struct {
		name   string
		result ProbeResult
	}{
		{"no video", ProbeResult{Streams: []Stream{{CodecType: "audio"}}}},
		{"zero size", ProbeResult{Streams: []Stream{{CodecType: "video", RFrameRate: "25/1"}}}},
		{"no rate", ProbeResult{Streams: []Stream{{CodecType: "video", Width: 8, Height: 8}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.result.VideoInfo(); err == nil {
				t.Error("Expected error")
			}
		})
	}

	zero := ProbeResult{Streams: []Stream{{CodecType: "video", RFrameRate: "25/1"}}}
	if _, err := zero.VideoInfo(); !errors.Is(err, models.ErrValueConstraint) {
		t.Errorf("Expected ErrValueConstraint for zero size, got %v", err)
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		rate        string
		expected    float64
		expectError bool
	}{
		{"30/1", 30, false},
		{"24000/1001", 24000.0 / 1001.0, false},
		{"25", 25, false},
		{"59.94", 59.94, false},
		{"0/0", 0, true},
		{"30/0", 0, true},
		{"", 0, true},
		{"abc/1", 0, true},
		{"30/x", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.rate, func(t *testing.T) {
			rate, err := ParseFrameRate(tt.rate)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for %q", tt.rate)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if rate != tt.expected {
				t.Errorf("ParseFrameRate(%q) = %f; want %f", tt.rate, rate, tt.expected)
			}
		})
	}
}

func TestProbeResult_GetDuration(t *testing.T) {
	tests := []struct {
		name        string
		duration    string
		expected    float64
		expectError bool
	}{
		{"Valid duration", "30.5", 30.5, false},
		{"Integer duration", "120", 120.0, false},
		{"Empty duration", "", 0, true},
		{"Invalid duration", "invalid", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ProbeResult{Format: Format{Duration: tt.duration}}
			duration, err := result.GetDuration()

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if duration != tt.expected {
					t.Errorf("Expected duration %f, got %f", tt.expected, duration)
				}
			}
		})
	}
}

func TestProbeResult_GetVideoStreams(t *testing.T) {
	result := ProbeResult{
		Streams: []Stream{
			{Index: 0, CodecType: "video", CodecName: "h264"},
			{Index: 1, CodecType: "audio", CodecName: "aac"},
			{Index: 2, CodecType: "video", CodecName: "h265"},
		},
	}

	videoStreams := result.GetVideoStreams()
	if len(videoStreams) != 2 {
		t.Errorf("Expected 2 video streams, got %d", len(videoStreams))
	}
	for _, stream := range videoStreams {
		if stream.CodecType != "video" {
			t.Errorf("Expected video stream, got %s", stream.CodecType)
		}
	}
}

func TestBuildArgs(t *testing.T) {
	args := BuildArgs("in.mp4")
	if args[len(args)-1] != "in.mp4" {
		t.Errorf("Expected source path last, got %v", args)
	}
	if !strings.Contains(strings.Join(args, " "), "-print_format json") {
		t.Error("Expected JSON output format")
	}
}
