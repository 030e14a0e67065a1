package engine

import (
	"fmt"
	"io"

	"vid2vid/models"
)

// Guard wraps an Engine and enforces its call-order contract: Infer before
// Configure, or a second Configure, fails with models.ErrPrecedence every time
// without reaching the wrapped engine.
type Guard struct {
	inner      Engine
	configured bool
}

// NewGuard wraps e. Wrapping a Guard returns it unchanged.
func NewGuard(e Engine) *Guard {
	if g, ok := e.(*Guard); ok {
		return g
	}
	return &Guard{inner: e}
}

// Configured reports whether Configure has succeeded.
func (g *Guard) Configured() bool {
	return g.configured
}

func (g *Guard) Configure(cfg Config, prompt string, inferenceSteps int) error {
	if g.configured {
		return fmt.Errorf("%w: engine is already configured", models.ErrPrecedence)
	}
	if err := g.inner.Configure(cfg, prompt, inferenceSteps); err != nil {
		return err
	}
	g.configured = true
	return nil
}

func (g *Guard) Infer(frame *models.Frame) (*models.Frame, error) {
	if !g.configured {
		return nil, fmt.Errorf("%w: infer called before configure", models.ErrPrecedence)
	}
	return g.inner.Infer(frame)
}

func (g *Guard) BatchSize() int {
	return g.inner.BatchSize()
}

// Close closes the wrapped engine if it holds resources.
func (g *Guard) Close() error {
	if c, ok := g.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
