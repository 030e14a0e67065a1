package models

import (
	"fmt"
	"math"
)

// VideoBuffer is an ordered sequence of frames plus its scalar metadata.
//
// Frame order is temporal order and is preserved end-to-end. The same type is
// used for the decoded source and for the reassembled output; the output's
// Dimensions come from the engine, not from the requested size.
type VideoBuffer struct {
	Frames     []*Frame   `json:"-"`
	FrameRate  float64    `json:"frame_rate"`
	Dimensions Dimensions `json:"dimensions"`
}

// NewVideoBuffer creates a validated VideoBuffer.
func NewVideoBuffer(frames []*Frame, frameRate float64, dims Dimensions) (*VideoBuffer, error) {
	vb := &VideoBuffer{
		Frames:     frames,
		FrameRate:  frameRate,
		Dimensions: dims,
	}
	if err := vb.Validate(); err != nil {
		return nil, fmt.Errorf("invalid video buffer: %w", err)
	}
	return vb, nil
}

// Len returns the number of frames.
func (vb *VideoBuffer) Len() int {
	return len(vb.Frames)
}

// Duration returns the playback duration in seconds.
func (vb *VideoBuffer) Duration() float64 {
	if vb.FrameRate <= 0 {
		return 0
	}
	return float64(len(vb.Frames)) / vb.FrameRate
}

// Validate checks if the VideoBuffer has consistent state.
//
// Returns an error wrapping ErrValueConstraint if:
//   - FrameRate is not a positive finite number
//   - Dimensions are not positive
//   - any frame is malformed or differs from Dimensions
//
// An empty frame list is valid here; callers that need frames check Len.
func (vb *VideoBuffer) Validate() error {
	if vb.FrameRate <= 0 || math.IsInf(vb.FrameRate, 0) || math.IsNaN(vb.FrameRate) {
		return fmt.Errorf("%w: frame rate must be positive, got %v", ErrValueConstraint, vb.FrameRate)
	}
	if err := vb.Dimensions.Validate(); err != nil {
		return err
	}
	for i, f := range vb.Frames {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if f.Dimensions() != vb.Dimensions {
			return fmt.Errorf("%w: frame %d is %s, buffer is %s",
				ErrValueConstraint, i, f.Dimensions(), vb.Dimensions)
		}
	}
	return nil
}
