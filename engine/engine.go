// Package engine defines the call contract of the streaming image-to-image
// diffusion engine and the configuration it is prepared with.
//
// The engine is stateful: it pipelines denoising across its last BatchSize()
// calls, so the output of a call corresponds to the input submitted BatchSize()
// calls earlier. Callers must configure it exactly once before the first frame
// call. Guard enforces that order for any implementation.
package engine

import (
	"fmt"
	"math"
	"strings"

	"vid2vid/models"
)

// Engine is a stateful per-frame image-to-image transformer.
//
// Implementations are interchangeable inference backends; callers stay
// agnostic of which one they hold.
type Engine interface {
	// Configure fixes the configuration, prompt and denoising step count for
	// the rest of the engine's life. It must be called exactly once, before any
	// Infer call.
	Configure(cfg Config, prompt string, inferenceSteps int) error

	// Infer submits one frame and returns the engine's current output. The
	// call blocks until the output is ready. The very first call's output
	// dimensions are authoritative for the run.
	Infer(frame *models.Frame) (*models.Frame, error)

	// BatchSize returns the number of calls of internal buffering latency.
	// It is only meaningful after Configure.
	BatchSize() int
}

// Acceleration selects the engine's inference strategy.
type Acceleration string

const (
	AccelerationNone     Acceleration = "none"
	AccelerationXFormers Acceleration = "xformers"
	AccelerationTensorRT Acceleration = "tensorrt"
)

// AccelerationValues returns valid acceleration values.
func AccelerationValues() []string {
	return []string{string(AccelerationNone), string(AccelerationXFormers), string(AccelerationTensorRT)}
}

// IsValidAcceleration checks if acceleration is one of the supported modes.
func IsValidAcceleration(acceleration string) bool {
	for _, valid := range AccelerationValues() {
		if acceleration == valid {
			return true
		}
	}
	return false
}

// Mode is the engine's generation mode. Only img2img is driven by the orchestrator.
type Mode string

const (
	ModeImg2Img Mode = "img2img"
	ModeTxt2Img Mode = "txt2img"
)

// RandomSeed requests a non-deterministic seed.
const RandomSeed int64 = -1

// Config is an immutable configuration snapshot for one run.
//
// It is passed by value; use Clone before handing it to code that keeps it, so
// the map and slices are not shared.
type Config struct {
	ModelID  string             // Model identity, e.g. "KBlueLeaf/kohaku-v2.1"
	LoraDict map[string]float64 // Adapter name -> scale weight

	Dimensions models.Dimensions // Requested output size

	TIndexList      []int // Denoising timestep indices, e.g. [35, 45]
	FrameBufferSize int   // Frames buffered per step
	Warmup          int   // Internal warmup iterations of the engine itself

	Acceleration Acceleration
	Mode         Mode
	OutputType   string
	DoAddNoise   bool

	UseDenoisingBatch           bool
	EnableSimilarImageFilter    bool
	SimilarImageFilterThreshold float64

	Seed int64 // RandomSeed for non-deterministic runs
}

// BatchSize derives the pipeline depth the configuration asks for: every
// timestep of every buffered frame is denoised in one batch when denoising
// batch is enabled, otherwise only the frame buffer is batched.
func (c Config) BatchSize() int {
	if c.UseDenoisingBatch {
		return len(c.TIndexList) * c.FrameBufferSize
	}
	return c.FrameBufferSize
}

// Clone creates a deep copy of the config.
func (c Config) Clone() Config {
	clone := c
	if c.LoraDict != nil {
		clone.LoraDict = make(map[string]float64, len(c.LoraDict))
		for k, v := range c.LoraDict {
			clone.LoraDict[k] = v
		}
	}
	clone.TIndexList = append([]int(nil), c.TIndexList...)
	return clone
}

// Validate checks if the configuration is usable for inferenceSteps steps.
func (c Config) Validate(inferenceSteps int) error {
	var errors []string

	if strings.TrimSpace(c.ModelID) == "" {
		errors = append(errors, "model id is required")
	}

	if err := c.Dimensions.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	if inferenceSteps <= 0 {
		errors = append(errors, "inference steps must be positive")
	}

	if len(c.TIndexList) == 0 {
		errors = append(errors, "t_index_list cannot be empty")
	}
	for _, t := range c.TIndexList {
		if t < 0 || (inferenceSteps > 0 && t >= inferenceSteps) {
			errors = append(errors, fmt.Sprintf("t_index %d out of range [0, %d)", t, inferenceSteps))
		}
	}

	if c.FrameBufferSize < 1 {
		errors = append(errors, "frame buffer size must be at least 1")
	}

	if c.Warmup < 0 {
		errors = append(errors, "warmup cannot be negative")
	}

	if !IsValidAcceleration(string(c.Acceleration)) {
		errors = append(errors, fmt.Sprintf("invalid acceleration '%s', must be one of: %s",
			c.Acceleration, strings.Join(AccelerationValues(), ", ")))
	}

	if c.Mode != ModeImg2Img && c.Mode != ModeTxt2Img {
		errors = append(errors, fmt.Sprintf("invalid mode '%s'", c.Mode))
	}

	if c.SimilarImageFilterThreshold <= 0 || c.SimilarImageFilterThreshold > 1 {
		errors = append(errors, "similar image filter threshold must be in (0, 1]")
	}

	for name, weight := range c.LoraDict {
		if strings.TrimSpace(name) == "" {
			errors = append(errors, "lora name cannot be empty")
		}
		if math.IsNaN(weight) || math.IsInf(weight, 0) {
			errors = append(errors, fmt.Sprintf("lora '%s' has non-finite weight", name))
		}
	}

	if c.Seed < RandomSeed {
		errors = append(errors, fmt.Sprintf("seed must be >= %d", RandomSeed))
	}

	if len(errors) > 0 {
		return fmt.Errorf("%w: %s", models.ErrValueConstraint, strings.Join(errors, ", "))
	}

	return nil
}
