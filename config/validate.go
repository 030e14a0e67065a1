package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"vid2vid/engine"
)

// bitratePattern matches ffmpeg bitrates such as "2500k", "5M" or "800000".
var bitratePattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?[kKmM]?$`)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errors []string

	// Required fields
	if c.Input == "" {
		errors = append(errors, "input file is required")
	} else {
		// Check if input file exists
		if _, err := os.Stat(c.Input); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("input file does not exist: %s", c.Input))
		}
	}

	if c.Output == "" {
		errors = append(errors, "output file is required")
	} else if filepath.Ext(c.Output) == "" {
		errors = append(errors, fmt.Sprintf("output file needs a container extension (e.g. .mp4): %s", c.Output))
	}

	if strings.TrimSpace(c.Prompt) == "" {
		errors = append(errors, "prompt is required")
	}

	if c.Scale <= 0 || math.IsNaN(c.Scale) || math.IsInf(c.Scale, 0) {
		errors = append(errors, fmt.Sprintf("scale must be positive, got %v", c.Scale))
	}

	if !slices.Contains(engine.Backends(), strings.ToLower(c.Backend)) {
		errors = append(errors, fmt.Sprintf("invalid backend '%s', must be one of: %s",
			c.Backend, strings.Join(engine.Backends(), ", ")))
	}

	if c.MaxFrames < 0 {
		errors = append(errors, "max frames cannot be negative (use 0 for every frame)")
	}

	// Validate engine config
	if err := c.Engine.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("engine config: %v", err))
	}

	// Validate video config
	if err := c.Video.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("video config: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Validate checks if engine configuration is valid
func (ec *EngineConfig) Validate() error {
	var errors []string

	if strings.TrimSpace(ec.ModelID) == "" {
		errors = append(errors, "model id is required")
	}

	if !engine.IsValidAcceleration(ec.Acceleration) {
		errors = append(errors, fmt.Sprintf("invalid acceleration '%s', must be one of: %s",
			ec.Acceleration, strings.Join(engine.AccelerationValues(), ", ")))
	}

	if ec.SimilarImageFilterThreshold <= 0 || ec.SimilarImageFilterThreshold > 1 {
		errors = append(errors, "similar image filter threshold must be in (0, 1]")
	}

	if ec.Seed < engine.RandomSeed {
		errors = append(errors, "seed must be -1 (random) or non-negative")
	}

	if ec.InferenceSteps <= 0 {
		errors = append(errors, "inference steps must be positive")
	}

	if len(ec.TIndexList) == 0 {
		errors = append(errors, "t_index_list cannot be empty")
	}
	for _, t := range ec.TIndexList {
		if t < 0 || t >= ec.InferenceSteps {
			errors = append(errors, fmt.Sprintf("t_index %d must be in [0, inference steps)", t))
		}
	}

	if ec.FrameBufferSize < 1 {
		errors = append(errors, "frame buffer size must be at least 1")
	}

	if ec.Warmup < 0 {
		errors = append(errors, "warmup cannot be negative")
	}

	if ec.Mode != string(engine.ModeImg2Img) {
		errors = append(errors, fmt.Sprintf("mode must be '%s' for video, got '%s'", engine.ModeImg2Img, ec.Mode))
	}

	for name, weight := range ec.Lora {
		if strings.TrimSpace(name) == "" {
			errors = append(errors, "lora name cannot be empty")
		}
		if math.IsNaN(weight) || math.IsInf(weight, 0) {
			errors = append(errors, fmt.Sprintf("lora '%s' weight must be finite", name))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}

// Validate checks if video configuration is valid
func (vc *VideoConfig) Validate() error {
	var errors []string

	if vc.Codec == "" && vc.HardwareEncoder == "" {
		errors = append(errors, "codec is required")
	}

	// CRF validation (software encoders only)
	if vc.HardwareEncoder == "" && (vc.CRF < 0 || vc.CRF > 51) {
		errors = append(errors, "CRF must be between 0 and 51")
	}

	if vc.Preset == "" {
		errors = append(errors, "preset is required")
	}

	if vc.Bitrate != "" && !bitratePattern.MatchString(vc.Bitrate) {
		errors = append(errors, fmt.Sprintf("invalid bitrate '%s', expected a number with optional k or M suffix", vc.Bitrate))
	}

	for i, filter := range vc.Filters {
		if strings.TrimSpace(filter) == "" {
			errors = append(errors, fmt.Sprintf("filter %d is empty", i))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}
