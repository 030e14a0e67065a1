package ffmpeg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vid2vid/models"
)

func TestReadFrames(t *testing.T) {
	dims := models.Dimensions{Height: 2, Width: 3}
	frameSize := 2 * 3 * models.RGBChannels

	data := make([]byte, 2*frameSize)
	for i := range data {
		data[i] = byte(i * 5)
	}

	frames, err := ReadFrames(bytes.NewReader(data), dims)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, dims, frames[1].Dimensions())
	assert.Equal(t, float32(5)/255, frames[0].Pix[1])
	assert.Equal(t, float32(frameSize*5)/255, frames[1].Pix[0])
}

func TestReadFrames_Empty(t *testing.T) {
	frames, err := ReadFrames(bytes.NewReader(nil), models.Dimensions{Height: 4, Width: 4})
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestReadFrames_Truncated(t *testing.T) {
	dims := models.Dimensions{Height: 2, Width: 2}
	_, err := ReadFrames(bytes.NewReader(make([]byte, 12+5)), dims)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated frame 1")
}

func TestReadFrames_InvalidDimensions(t *testing.T) {
	_, err := ReadFrames(bytes.NewReader(nil), models.Dimensions{})
	assert.ErrorIs(t, err, models.ErrValueConstraint)
}

func TestWriteFrames(t *testing.T) {
	f, err := models.NewFrame(1, 2, models.RGBChannels)
	require.NoError(t, err)
	copy(f.Pix, []float32{0, 0.5, 1, 1.7, -0.2, 0.25})

	var buf bytes.Buffer
	var written []int
	require.NoError(t, WriteFrames(&buf, []*models.Frame{f, f}, func(n int) { written = append(written, n) }))

	want := []byte{0, 128, 255, 255, 0, 64}
	assert.Equal(t, append(append([]byte{}, want...), want...), buf.Bytes())
	assert.Equal(t, []int{1, 2}, written)
}

func TestWriteFrames_RejectsNonRGB(t *testing.T) {
	f, err := models.NewFrame(1, 1, 4)
	require.NoError(t, err)

	err = WriteFrames(&bytes.Buffer{}, []*models.Frame{f}, nil)
	assert.ErrorIs(t, err, models.ErrValueConstraint)
	assert.Contains(t, err.Error(), "frame 0")
}
