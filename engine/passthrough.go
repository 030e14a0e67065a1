package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"vid2vid/models"
)

// dimensionAlignment is the pixel multiple the output size snaps down to,
// matching the latent resolution step of a diffusion model.
const dimensionAlignment = 8

// Passthrough is a CPU reference backend. It resamples each input to the
// aligned output size and holds it in a delay line of depth BatchSize(), so its
// call-to-output latency matches a real batched denoiser. Until the line fills
// it returns black frames.
type Passthrough struct {
	logger *slog.Logger

	cfg        Config
	prompt     string
	steps      int
	configured bool
	output     models.Dimensions

	line  []*models.Frame
	calls int
}

// NewPassthrough creates an unconfigured passthrough engine.
func NewPassthrough(logger *slog.Logger) *Passthrough {
	if logger == nil {
		logger = slog.Default()
	}
	return &Passthrough{logger: logger}
}

// AlignDimensions snaps each side down to a multiple of 8. Sides smaller than
// 8 are kept as-is.
func AlignDimensions(d models.Dimensions) models.Dimensions {
	align := func(v int) int {
		if v < dimensionAlignment {
			return v
		}
		return v - v%dimensionAlignment
	}
	return models.Dimensions{Height: align(d.Height), Width: align(d.Width)}
}

func (p *Passthrough) Configure(cfg Config, prompt string, inferenceSteps int) error {
	if p.configured {
		return fmt.Errorf("%w: engine is already configured", models.ErrPrecedence)
	}
	if err := cfg.Validate(inferenceSteps); err != nil {
		return err
	}
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: prompt is required", models.ErrValueConstraint)
	}

	p.cfg = cfg.Clone()
	p.prompt = prompt
	p.steps = inferenceSteps
	p.output = AlignDimensions(cfg.Dimensions)
	p.line = make([]*models.Frame, 0, p.cfg.BatchSize()+1)
	p.configured = true

	p.logger.Info("engine: configured",
		"backend", "passthrough",
		"model", p.cfg.ModelID,
		"output", p.output.String(),
		"batch_size", p.cfg.BatchSize(),
		"steps", p.steps,
		"t_index_list", p.cfg.TIndexList)
	return nil
}

func (p *Passthrough) Infer(frame *models.Frame) (*models.Frame, error) {
	if !p.configured {
		return nil, fmt.Errorf("%w: infer called before configure", models.ErrPrecedence)
	}
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	p.calls++
	p.line = append(p.line, resample(frame, p.output))

	if len(p.line) <= p.cfg.BatchSize() {
		p.logger.Debug("engine: filling delay line", "call", p.calls, "depth", len(p.line))
		return blankFrame(p.output, frame.Channels), nil
	}

	out := p.line[0]
	p.line[0] = nil
	p.line = p.line[1:]
	return out, nil
}

func (p *Passthrough) BatchSize() int {
	if !p.configured {
		return 0
	}
	return p.cfg.BatchSize()
}

// Calls returns how many Infer calls have been accepted.
func (p *Passthrough) Calls() int {
	return p.calls
}

// Close drops the buffered frames.
func (p *Passthrough) Close() error {
	p.line = nil
	return nil
}

// resample scales src to dims with nearest-neighbour sampling.
func resample(src *models.Frame, dims models.Dimensions) *models.Frame {
	if src.Dimensions() == dims {
		return src.Clone()
	}
	dst := &models.Frame{
		Height:   dims.Height,
		Width:    dims.Width,
		Channels: src.Channels,
		Pix:      make([]float32, dims.Height*dims.Width*src.Channels),
	}
	for y := 0; y < dims.Height; y++ {
		sy := y * src.Height / dims.Height
		for x := 0; x < dims.Width; x++ {
			sx := x * src.Width / dims.Width
			for c := 0; c < src.Channels; c++ {
				dst.Set(y, x, c, src.At(sy, sx, c))
			}
		}
	}
	return dst
}

func blankFrame(dims models.Dimensions, channels int) *models.Frame {
	return &models.Frame{
		Height:   dims.Height,
		Width:    dims.Width,
		Channels: channels,
		Pix:      make([]float32, dims.Height*dims.Width*channels),
	}
}
