package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrame(t *testing.T) {
	f, err := NewFrame(4, 6, RGBChannels)
	require.NoError(t, err)
	assert.Len(t, f.Pix, 4*6*3)
	assert.Equal(t, Dimensions{Height: 4, Width: 6}, f.Dimensions())

	_, err = NewFrame(0, 6, 3)
	assert.True(t, errors.Is(err, ErrValueConstraint))
}

func TestFrameChannelLastLayout(t *testing.T) {
	f, err := NewFrame(2, 3, RGBChannels)
	require.NoError(t, err)

	f.Set(1, 2, 0, 0.25)
	f.Set(1, 2, 2, 0.75)

	// Row 1, column 2 of a 3-wide frame is pixel 5.
	assert.Equal(t, float32(0.25), f.Pix[5*3+0])
	assert.Equal(t, float32(0.75), f.Pix[5*3+2])
	assert.Equal(t, float32(0.75), f.At(1, 2, 2))
}

func TestFrameRGB24RoundTrip(t *testing.T) {
	dims := Dimensions{Height: 1, Width: 2}
	data := []byte{0, 128, 255, 10, 20, 30}

	f, err := FrameFromRGB24(data, dims)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f.Pix[2], 1e-6)
	assert.InDelta(t, 128.0/255.0, f.Pix[1], 1e-6)

	out, err := f.RGB24()
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestFrameRGB24Clamps(t *testing.T) {
	f := &Frame{Height: 1, Width: 1, Channels: 3, Pix: []float32{-0.5, 1.5, 0.5}}

	out, err := f.RGB24()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 255, 128}, out)
}

func TestFrameFromRGB24WrongSize(t *testing.T) {
	_, err := FrameFromRGB24([]byte{1, 2, 3}, Dimensions{Height: 2, Width: 2})
	assert.ErrorIs(t, err, ErrValueConstraint)
}

func TestFrameValidate(t *testing.T) {
	var nilFrame *Frame
	assert.ErrorIs(t, nilFrame.Validate(), ErrValueConstraint)

	short := &Frame{Height: 2, Width: 2, Channels: 3, Pix: make([]float32, 5)}
	assert.ErrorIs(t, short.Validate(), ErrValueConstraint)
}

func TestFrameClone(t *testing.T) {
	f, err := NewFrame(1, 1, 3)
	require.NoError(t, err)

	c := f.Clone()
	c.Pix[0] = 1

	assert.Equal(t, float32(0), f.Pix[0], "clone must not share pixels")
}
