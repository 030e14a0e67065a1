package config

import (
	"os"
	"path/filepath"

	"vid2vid/engine"
	"vid2vid/ffmpeg"
	"vid2vid/models"
)

// DefaultPrompt is the style prompt used when none is given.
const DefaultPrompt = "Surrealistic portrayal of a fantastical dreamscape, inspired by Salvador Dalí's melting landscapes and the vibrant, swirling patterns of psychedelic art. Imagine a scene where gravity is defied, with floating islands and inverted waterfalls. The sky should be a dynamic canvas of neon hues, blending pinks, purples, and electric blues. In the foreground, include bizarre, hybrid creatures that are a mix of organic and geometric forms, reminiscent of Dalí's iconic style. These creatures should be interacting with abstract, clock-like objects, symbolizing the fluidity of time in this dreamscape. The entire composition should have a fluid, dream-like quality, with elements seamlessly transitioning into one another, creating a sense of continuous movement and transformation. The overall mood is one of wonder and exploration, as if the viewer is on a journey through a subconscious realm filled with endless possibilities and surreal beauty. This image should be a visual feast, rich in detail and color, evoking a sense of awe and intrigue."

// Config holds all vid2vid configuration options
type Config struct {
	// Required fields
	Input  string `yaml:"input"`
	Output string `yaml:"output"`

	// Run settings
	Prompt    string  `yaml:"prompt"`
	Scale     float64 `yaml:"scale"`      // Output size relative to the source
	Backend   string  `yaml:"backend"`    // Registered engine backend
	MaxFrames int     `yaml:"max_frames"` // 0 = every frame

	// Engine settings
	Engine EngineConfig `yaml:"engine"`

	// Output video settings
	Video VideoConfig `yaml:"video"`

	// Behavioral flags
	Verbose bool `yaml:"verbose"` // Show detailed logs
	DryRun  bool `yaml:"dry_run"` // Show config and commands without running

	SaveConfig string `yaml:"-"` // Write the effective config here instead of running
}

// EngineConfig holds diffusion engine settings
type EngineConfig struct {
	ModelID      string             `yaml:"model_id"`     // e.g., "KBlueLeaf/kohaku-v2.1"
	Lora         map[string]float64 `yaml:"lora"`         // LoRA name -> scale
	Acceleration string             `yaml:"acceleration"` // "none", "xformers", "tensorrt"

	UseDenoisingBatch           bool    `yaml:"use_denoising_batch"`
	EnableSimilarImageFilter    bool    `yaml:"enable_similar_image_filter"`
	SimilarImageFilterThreshold float64 `yaml:"similar_image_filter_threshold"`

	Seed           int64 `yaml:"seed"` // -1 = random
	InferenceSteps int   `yaml:"inference_steps"`

	TIndexList      []int  `yaml:"t_index_list"`
	FrameBufferSize int    `yaml:"frame_buffer_size"`
	Warmup          int    `yaml:"warmup"`
	DoAddNoise      bool   `yaml:"do_add_noise"`
	Mode            string `yaml:"mode"`
	OutputType      string `yaml:"output_type"`
}

// VideoConfig holds output encoding settings
type VideoConfig struct {
	Codec           string   `yaml:"codec"`            // e.g., "libx264", "libx265"
	HardwareEncoder string   `yaml:"hardware_encoder"` // e.g., "h264_nvenc" (overrides codec)
	CRF             int      `yaml:"crf"`              // Constant Rate Factor (0-51, lower = better quality)
	Preset          string   `yaml:"preset"`           // e.g., "ultrafast", "medium", "slow"
	PixelFormat     string   `yaml:"pixel_format"`     // e.g., "yuv420p"
	Bitrate         string   `yaml:"bitrate"`          // e.g., "5M"; empty leaves rate control to CRF
	Filters         []string `yaml:"filters"`          // ffmpeg video filters applied before encoding
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		// Input must be provided by user
		Input:  "",
		Output: DefaultOutputPath(),

		Prompt:  DefaultPrompt,
		Scale:   1.0,
		Backend: engine.DefaultBackend,

		Engine: EngineConfig{
			ModelID:                     "KBlueLeaf/kohaku-v2.1",
			Acceleration:                string(engine.AccelerationXFormers),
			UseDenoisingBatch:           true,
			EnableSimilarImageFilter:    true,
			SimilarImageFilterThreshold: 0.98,
			Seed:                        2,
			InferenceSteps:              50,
			TIndexList:                  []int{35, 45},
			FrameBufferSize:             1,
			Warmup:                      10,
			DoAddNoise:                  false,
			Mode:                        string(engine.ModeImg2Img),
			OutputType:                  "pt",
		},

		// H.264 in yuv420p plays everywhere
		Video: VideoConfig{
			Codec:       "libx264",
			CRF:         23,
			Preset:      "medium",
			PixelFormat: "yuv420p",
		},

		Verbose: false,
		DryRun:  false,
	}
}

// DefaultOutputPath returns images/outputs/output.mp4 next to the executable.
func DefaultOutputPath() string {
	dir := "."
	if exe, err := os.Executable(); err == nil {
		dir = filepath.Dir(exe)
	}
	return filepath.Join(dir, "images", "outputs", "output.mp4")
}

// Copy creates a deep copy of the config
func (c *Config) Copy() *Config {
	copy := *c
	if c.Engine.Lora != nil {
		copy.Engine.Lora = make(map[string]float64, len(c.Engine.Lora))
		for name, weight := range c.Engine.Lora {
			copy.Engine.Lora[name] = weight
		}
	}
	copy.Engine.TIndexList = append([]int(nil), c.Engine.TIndexList...)
	copy.Video.Filters = append([]string(nil), c.Video.Filters...)
	return &copy
}

// EngineSettings builds the engine configuration for output dimensions dims.
func (c *Config) EngineSettings(dims models.Dimensions) engine.Config {
	return engine.Config{
		ModelID:                     c.Engine.ModelID,
		LoraDict:                    c.Engine.Lora,
		Dimensions:                  dims,
		TIndexList:                  c.Engine.TIndexList,
		FrameBufferSize:             c.Engine.FrameBufferSize,
		Warmup:                      c.Engine.Warmup,
		Acceleration:                engine.Acceleration(c.Engine.Acceleration),
		Mode:                        engine.Mode(c.Engine.Mode),
		OutputType:                  c.Engine.OutputType,
		DoAddNoise:                  c.Engine.DoAddNoise,
		UseDenoisingBatch:           c.Engine.UseDenoisingBatch,
		EnableSimilarImageFilter:    c.Engine.EnableSimilarImageFilter,
		SimilarImageFilterThreshold: c.Engine.SimilarImageFilterThreshold,
		Seed:                        c.Engine.Seed,
	}.Clone()
}

// EncodeSettings builds the output encoder settings.
func (c *Config) EncodeSettings() ffmpeg.EncodeSettings {
	return ffmpeg.EncodeSettings{
		Codec:           c.Video.Codec,
		HardwareEncoder: c.Video.HardwareEncoder,
		CRF:             c.Video.CRF,
		Preset:          c.Video.Preset,
		PixelFormat:     c.Video.PixelFormat,
		Bitrate:         c.Video.Bitrate,
		Filters:         append([]string(nil), c.Video.Filters...),
	}
}
