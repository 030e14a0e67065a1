package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vid2vid/models"
)

// createTempFile creates an input file that passes the existence check.
func createTempFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.mp4")
	if err := os.WriteFile(path, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Engine.ModelID != "KBlueLeaf/kohaku-v2.1" {
		t.Errorf("Expected model 'KBlueLeaf/kohaku-v2.1', got %s", cfg.Engine.ModelID)
	}
	if cfg.Scale != 1.0 {
		t.Errorf("Expected scale 1.0, got %v", cfg.Scale)
	}
	if cfg.Engine.Acceleration != "xformers" {
		t.Errorf("Expected acceleration 'xformers', got %s", cfg.Engine.Acceleration)
	}
	if !cfg.Engine.UseDenoisingBatch || !cfg.Engine.EnableSimilarImageFilter {
		t.Error("Expected denoising batch and similar image filter enabled")
	}
	if cfg.Engine.Seed != 2 {
		t.Errorf("Expected seed 2, got %d", cfg.Engine.Seed)
	}
	if cfg.Engine.InferenceSteps != 50 {
		t.Errorf("Expected 50 inference steps, got %d", cfg.Engine.InferenceSteps)
	}
	if len(cfg.Engine.TIndexList) != 2 || cfg.Engine.TIndexList[0] != 35 || cfg.Engine.TIndexList[1] != 45 {
		t.Errorf("Expected t_index_list [35 45], got %v", cfg.Engine.TIndexList)
	}
	if cfg.Video.Codec != "libx264" {
		t.Errorf("Expected video codec 'libx264', got %s", cfg.Video.Codec)
	}
	if !strings.HasSuffix(cfg.Output, filepath.Join("images", "outputs", "output.mp4")) {
		t.Errorf("Expected default output under images/outputs, got %s", cfg.Output)
	}
	if !strings.Contains(cfg.Prompt, "dreamscape") {
		t.Error("Expected the default prompt")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorText   string
	}{
		{
			name:        "valid config",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "missing input",
			mutate:      func(c *Config) { c.Input = "" },
			expectError: true,
			errorText:   "input file is required",
		},
		{
			name:        "nonexistent input",
			mutate:      func(c *Config) { c.Input = "/nonexistent/input.mp4" },
			expectError: true,
			errorText:   "input file does not exist",
		},
		{
			name:        "missing output",
			mutate:      func(c *Config) { c.Output = "" },
			expectError: true,
			errorText:   "output file is required",
		},
		{
			name:        "output without extension",
			mutate:      func(c *Config) { c.Output = "/tmp/output" },
			expectError: true,
			errorText:   "container extension",
		},
		{
			name:        "empty prompt",
			mutate:      func(c *Config) { c.Prompt = "  " },
			expectError: true,
			errorText:   "prompt is required",
		},
		{
			name:        "zero scale",
			mutate:      func(c *Config) { c.Scale = 0 },
			expectError: true,
			errorText:   "scale must be positive",
		},
		{
			name:        "unknown backend",
			mutate:      func(c *Config) { c.Backend = "onnx" },
			expectError: true,
			errorText:   "invalid backend",
		},
		{
			name:        "invalid acceleration",
			mutate:      func(c *Config) { c.Engine.Acceleration = "cuda" },
			expectError: true,
			errorText:   "invalid acceleration",
		},
		{
			name:        "threshold out of range",
			mutate:      func(c *Config) { c.Engine.SimilarImageFilterThreshold = 1.2 },
			expectError: true,
			errorText:   "threshold",
		},
		{
			name:        "random seed is valid",
			mutate:      func(c *Config) { c.Engine.Seed = -1 },
			expectError: false,
		},
		{
			name:        "seed below random",
			mutate:      func(c *Config) { c.Engine.Seed = -5 },
			expectError: true,
			errorText:   "seed",
		},
		{
			name:        "t_index beyond steps",
			mutate:      func(c *Config) { c.Engine.InferenceSteps = 40 },
			expectError: true,
			errorText:   "t_index 45",
		},
		{
			name:        "txt2img mode",
			mutate:      func(c *Config) { c.Engine.Mode = "txt2img" },
			expectError: true,
			errorText:   "mode must be 'img2img'",
		},
		{
			name:        "invalid CRF",
			mutate:      func(c *Config) { c.Video.CRF = 99 },
			expectError: true,
			errorText:   "CRF must be between 0 and 51",
		},
		{
			name:        "bitrate with suffix",
			mutate:      func(c *Config) { c.Video.Bitrate = "5M" },
			expectError: false,
		},
		{
			name:        "invalid bitrate",
			mutate:      func(c *Config) { c.Video.Bitrate = "fast" },
			expectError: true,
			errorText:   "invalid bitrate 'fast'",
		},
		{
			name:        "empty filter",
			mutate:      func(c *Config) { c.Video.Filters = []string{"unsharp", ""} },
			expectError: true,
			errorText:   "filter 1 is empty",
		},
		{
			name: "hardware encoder ignores CRF",
			mutate: func(c *Config) {
				c.Video.HardwareEncoder = "h264_nvenc"
				c.Video.CRF = 99
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Input = createTempFile(t)
			cfg.Output = "/tmp/output.mp4"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorText) {
					t.Errorf("Expected error containing '%s', got: %v", tt.errorText, err)
				}
			} else if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = ""
	cfg.Scale = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "configuration validation failed:") {
		t.Errorf("Unexpected error format: %s", msg)
	}
	for _, want := range []string{"input file is required", "output file is required", "scale must be positive"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected '%s' in %s", want, msg)
		}
	}
}

func TestCopy(t *testing.T) {
	original := DefaultConfig()
	original.Engine.Lora = map[string]float64{"style": 0.5}

	copied := original.Copy()
	copied.Input = "other.mp4"
	copied.Engine.Lora["style"] = 1.0
	copied.Engine.TIndexList[0] = 10
	copied.Video.Filters = append(copied.Video.Filters, "unsharp")

	if original.Input == "other.mp4" {
		t.Error("Copy shares Input")
	}
	if original.Engine.Lora["style"] != 0.5 {
		t.Error("Copy shares the LoRA map")
	}
	if original.Engine.TIndexList[0] != 35 {
		t.Error("Copy shares the t_index_list")
	}
	if len(original.Video.Filters) != 0 {
		t.Error("Copy shares the filter list")
	}
}

func TestEngineSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.Lora = map[string]float64{"style": 0.5}
	dims := models.Dimensions{Height: 256, Width: 384}

	ec := cfg.EngineSettings(dims)
	if ec.Dimensions != dims {
		t.Errorf("Expected dimensions %s, got %s", dims, ec.Dimensions)
	}
	if ec.BatchSize() != 2 {
		t.Errorf("Expected batch size 2, got %d", ec.BatchSize())
	}
	if err := ec.Validate(cfg.Engine.InferenceSteps); err != nil {
		t.Errorf("Default engine settings should be valid: %v", err)
	}

	ec.LoraDict["style"] = 2
	if cfg.Engine.Lora["style"] != 0.5 {
		t.Error("EngineSettings shares the LoRA map")
	}
}

func TestEncodeSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Video.CRF = 18

	s := cfg.EncodeSettings()
	if s.Codec != "libx264" || s.CRF != 18 || s.Preset != "medium" || s.PixelFormat != "yuv420p" {
		t.Errorf("Unexpected encode settings: %+v", s)
	}
}
