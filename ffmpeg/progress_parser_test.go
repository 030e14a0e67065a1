package ffmpeg

import (
	"strings"
	"testing"

	"vid2vid/models"
)

func TestNewProgressParser(t *testing.T) {
	parser := NewProgressParser()

	if parser == nil {
		t.Fatal("NewProgressParser returned nil")
	}
	if parser.frameRegex == nil || parser.fpsRegex == nil || parser.sizeRegex == nil ||
		parser.timeRegex == nil || parser.bitrateRegex == nil || parser.speedRegex == nil {
		t.Error("regex not initialized")
	}
}

func TestProgressParser_ParseLine(t *testing.T) {
	parser := NewProgressParser()

	tests := []struct {
		name     string
		line     string
		updated  bool
		expected func(*models.Progress) bool
	}{
		{
			name:    "complete progress line",
			line:    "frame=   24 fps=25.0 q=-0.0 size=     128kB time=00:00:01.00 bitrate= 128.0kbits/s speed=2.00x",
			updated: true,
			expected: func(p *models.Progress) bool {
				return p.Frame == 24 &&
					p.FPS == 25.0 &&
					p.Size == "128kB" &&
					p.CurrentTime == "00:00:01.00" &&
					p.Bitrate == "128.0kbits/s" &&
					p.Speed == 2.00
			},
		},
		{
			name:    "final line with Lsize",
			line:    "frame=   48 fps= 24 q=-1.0 Lsize=     256KiB time=00:00:02.00 bitrate=1048.6kbits/s speed=1.9x",
			updated: true,
			expected: func(p *models.Progress) bool {
				return p.Frame == 48 && p.Size == "256kB" && p.Speed == 1.9
			},
		},
		{
			name:    "frame only",
			line:    "frame=   100",
			updated: true,
			expected: func(p *models.Progress) bool {
				return p.Frame == 100 && p.Percent == 100
			},
		},
		{
			name:    "frame drives percent",
			line:    "frame=25",
			updated: true,
			expected: func(p *models.Progress) bool {
				return p.Percent == 25
			},
		},
		{
			name:    "speed with time",
			line:    "time=00:00:01 speed=3.14x",
			updated: true,
			expected: func(p *models.Progress) bool {
				return p.Speed == 3.14 && p.CurrentTime == "00:00:01"
			},
		},
		{
			name:    "non-matching line",
			line:    "[libx264 @ 0x55d5] using cpu capabilities: MMX2 SSE2Fast",
			updated: false,
			expected: func(p *models.Progress) bool {
				return p.Frame == 0
			},
		},
		{
			name:    "empty line",
			line:    "   ",
			updated: false,
			expected: func(p *models.Progress) bool {
				return true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress := models.NewProgress(100)

			if updated := parser.ParseLine(tt.line, progress); updated != tt.updated {
				t.Errorf("ParseLine(%q) = %v; want %v", tt.line, updated, tt.updated)
			}
			if !tt.expected(progress) {
				t.Errorf("Progress not updated correctly for line: %s", tt.line)
			}
		})
	}
}

func TestProgressParser_StreamProgress(t *testing.T) {
	parser := NewProgressParser()
	progress := models.NewProgress(30)

	// ffmpeg separates stats updates with \r and ends the last one with \n
	ffmpegOutput := "frame=   10 fps=25.0 size=    64kB time=00:00:00.40 bitrate=1280.0kbits/s speed=1.0x\r" +
		"frame=   20 fps=25.0 size=   128kB time=00:00:00.80 bitrate=1280.0kbits/s speed=1.5x\r" +
		"frame=   30 fps=25.0 size=   192kB time=00:00:01.20 bitrate=1280.0kbits/s speed=2.0x\n" +
		"[out#0/mp4 @ 0x1] video:190kB audio:0kB muxing overhead: 0.5%\n"

	callbackCount := 0
	callback := func(p *models.Progress) {
		callbackCount++
		if p.State != models.ProgressStateEncoding {
			t.Errorf("Expected state encoding, got %s", p.State)
		}
	}

	diagnostics, err := parser.StreamProgress(strings.NewReader(ffmpegOutput), progress, callback)
	if err != nil {
		t.Errorf("StreamProgress returned error: %v", err)
	}

	if callbackCount != 3 {
		t.Errorf("Expected 3 callback calls, got %d", callbackCount)
	}
	if progress.Frame != 30 {
		t.Errorf("Expected final frame 30, got %d", progress.Frame)
	}
	if progress.Percent != 100 {
		t.Errorf("Expected 100%%, got %.1f", progress.Percent)
	}
	if len(diagnostics) != 1 || !strings.Contains(diagnostics[0], "muxing overhead") {
		t.Errorf("Expected the muxer line as diagnostic, got %v", diagnostics)
	}
}

func TestProgressParser_StreamProgress_KeepsRecentDiagnostics(t *testing.T) {
	parser := NewProgressParser()

	var b strings.Builder
	for i := 0; i < maxDiagnosticLines+5; i++ {
		b.WriteString("error line\n")
	}
	b.WriteString("Conversion failed!\n")

	diagnostics, err := parser.StreamProgress(strings.NewReader(b.String()), models.NewProgress(0), nil)
	if err != nil {
		t.Fatalf("StreamProgress returned error: %v", err)
	}
	if len(diagnostics) != maxDiagnosticLines {
		t.Errorf("Expected %d diagnostics, got %d", maxDiagnosticLines, len(diagnostics))
	}
	if diagnostics[len(diagnostics)-1] != "Conversion failed!" {
		t.Errorf("Expected newest line last, got %q", diagnostics[len(diagnostics)-1])
	}
}
