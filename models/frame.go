// Package models provides core data structures for the vid2vid system.
package models

import (
	"fmt"
	"math"
)

// RGBChannels is the channel count of every frame exchanged with ffmpeg.
const RGBChannels = 3

// Dimensions is a frame size in pixels.
type Dimensions struct {
	Height int `json:"height" yaml:"height"`
	Width  int `json:"width" yaml:"width"`
}

// String renders dimensions the way ffmpeg's -s option expects (WIDTHxHEIGHT).
func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Validate returns an error wrapping ErrValueConstraint unless both sides are positive.
func (d Dimensions) Validate() error {
	if d.Height <= 0 || d.Width <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %s", ErrValueConstraint, d)
	}
	return nil
}

// Frame is a single image of normalized color intensities.
//
// Pixels are stored channel-last (height × width × channel) in a flat slice,
// so the value for row y, column x, channel c lives at ((y*Width)+x)*Channels+c.
// Values are expected in [0,1] at the orchestrator boundary.
type Frame struct {
	Height   int
	Width    int
	Channels int
	Pix      []float32
}

// NewFrame allocates a zeroed frame.
func NewFrame(height, width, channels int) (*Frame, error) {
	if height <= 0 || width <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: invalid frame shape %dx%dx%d", ErrValueConstraint, height, width, channels)
	}
	return &Frame{
		Height:   height,
		Width:    width,
		Channels: channels,
		Pix:      make([]float32, height*width*channels),
	}, nil
}

// FrameFromRGB24 builds a normalized frame from packed 8-bit RGB data.
func FrameFromRGB24(data []byte, dims Dimensions) (*Frame, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	expected := dims.Height * dims.Width * RGBChannels
	if len(data) != expected {
		return nil, fmt.Errorf("%w: rgb24 frame has %d bytes, expected %d for %s",
			ErrValueConstraint, len(data), expected, dims)
	}

	f := &Frame{
		Height:   dims.Height,
		Width:    dims.Width,
		Channels: RGBChannels,
		Pix:      make([]float32, expected),
	}
	for i, b := range data {
		f.Pix[i] = float32(b) / 255
	}
	return f, nil
}

// Dimensions returns the frame size.
func (f *Frame) Dimensions() Dimensions {
	return Dimensions{Height: f.Height, Width: f.Width}
}

// Validate checks that the pixel slice matches the declared shape.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: frame is nil", ErrValueConstraint)
	}
	if f.Height <= 0 || f.Width <= 0 || f.Channels <= 0 {
		return fmt.Errorf("%w: invalid frame shape %dx%dx%d", ErrValueConstraint, f.Height, f.Width, f.Channels)
	}
	if len(f.Pix) != f.Height*f.Width*f.Channels {
		return fmt.Errorf("%w: frame has %d values, expected %d",
			ErrValueConstraint, len(f.Pix), f.Height*f.Width*f.Channels)
	}
	return nil
}

// At returns the value at row y, column x, channel c.
func (f *Frame) At(y, x, c int) float32 {
	return f.Pix[(y*f.Width+x)*f.Channels+c]
}

// Set stores v at row y, column x, channel c.
func (f *Frame) Set(y, x, c int, v float32) {
	f.Pix[(y*f.Width+x)*f.Channels+c] = v
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	return &Frame{
		Height:   f.Height,
		Width:    f.Width,
		Channels: f.Channels,
		Pix:      append([]float32(nil), f.Pix...),
	}
}

// RGB24 converts the frame back to packed 8-bit RGB, clamping to [0,1] and
// scaling by 255. Only 3-channel frames can be converted.
func (f *Frame) RGB24() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.Channels != RGBChannels {
		return nil, fmt.Errorf("%w: rgb24 needs %d channels, frame has %d", ErrValueConstraint, RGBChannels, f.Channels)
	}

	out := make([]byte, len(f.Pix))
	for i, v := range f.Pix {
		if math.IsNaN(float64(v)) {
			v = 0
		}
		v = min(max(v, 0), 1)
		out[i] = byte(math.Round(float64(v) * 255))
	}
	return out, nil
}
