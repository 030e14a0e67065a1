// Package ffmpeg moves raw frames between video files and memory through
// ffmpeg subprocess pipes.
package ffmpeg

import (
	"errors"
	"fmt"
	"io"

	"vid2vid/models"
)

// ReadFrames reads packed rgb24 frames of dims from r until EOF and normalizes
// them to [0,1]. A trailing partial frame is an error.
func ReadFrames(r io.Reader, dims models.Dimensions) ([]*models.Frame, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}

	buf := make([]byte, dims.Height*dims.Width*models.RGBChannels)
	var frames []*models.Frame
	for {
		_, err := io.ReadFull(r, buf)
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("truncated frame %d", len(frames))
		}
		if err != nil {
			return nil, fmt.Errorf("reading frame %d: %w", len(frames), err)
		}

		frame, err := models.FrameFromRGB24(buf, dims)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", len(frames), err)
		}
		frames = append(frames, frame)
	}
}

// WriteFrames writes frames to w as packed rgb24, clamping to [0,1] first.
// onFrame, if set, is called after each frame is written.
func WriteFrames(w io.Writer, frames []*models.Frame, onFrame func(written int)) error {
	for i, frame := range frames {
		data, err := frame.RGB24()
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing frame %d: %w", i, err)
		}
		if onFrame != nil {
			onFrame(i + 1)
		}
	}
	return nil
}
