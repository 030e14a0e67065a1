package models

import (
	"fmt"
	"time"
)

// Progress represents real-time metrics for a streaming or encoding phase.
type Progress struct {
	// Position
	Frame       int64   // Frames completed so far
	TotalFrames int64   // Frames expected in this phase (0 = unknown)
	FPS         float64 // Frames per second being processed
	CurrentTime string  // Current output timestamp (HH:MM:SS.MS)

	// Encoder metrics, only filled while ffmpeg is writing the output
	Bitrate string  // Current bitrate (e.g., "128.0kbits/s")
	Speed   float64 // Encoding speed multiplier (2.34 means 2.34x realtime)
	Size    string  // Current output file size (e.g., "1024kB")

	Percent float64 // Percentage complete (0-100)

	State     ProgressState
	StartTime time.Time
	UpdatedAt time.Time
}

// ProgressState represents the current phase of a run.
type ProgressState string

const (
	ProgressStateQueued    ProgressState = "queued"
	ProgressStateWarmingUp ProgressState = "warming-up"
	ProgressStateStreaming ProgressState = "streaming"
	ProgressStateEncoding  ProgressState = "encoding"
	ProgressStateCompleted ProgressState = "completed"
	ProgressStateFailed    ProgressState = "failed"
)

// ProgressCallback receives progress updates.
type ProgressCallback func(progress *Progress)

// NewProgress creates a new progress tracker for totalFrames frames.
func NewProgress(totalFrames int64) *Progress {
	now := time.Now()
	return &Progress{
		TotalFrames: totalFrames,
		State:       ProgressStateQueued,
		StartTime:   now,
		UpdatedAt:   now,
	}
}

// Advance records that frame frames are complete and recomputes Percent and FPS.
func (p *Progress) Advance(frame int64) {
	p.Frame = frame
	if p.TotalFrames > 0 {
		p.Percent = float64(frame) / float64(p.TotalFrames) * 100
		if p.Percent > 100 {
			p.Percent = 100
		}
	}
	p.UpdatedAt = time.Now()
	if elapsed := p.UpdatedAt.Sub(p.StartTime).Seconds(); elapsed > 0 {
		p.FPS = float64(frame) / elapsed
	}
}

// EstimatedTimeRemaining calculates ETA from the elapsed time and percentage.
func (p *Progress) EstimatedTimeRemaining() time.Duration {
	if p.Percent <= 0 {
		return 0
	}

	elapsed := p.UpdatedAt.Sub(p.StartTime)
	totalEstimated := time.Duration(float64(elapsed) / (p.Percent / 100))
	remaining := totalEstimated - elapsed

	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatSummary returns a human-readable summary of the progress.
func (p *Progress) FormatSummary() string {
	return fmt.Sprintf(
		"%s: frame %d/%d (%.1f%%) | %.2f fps | ETA: %s",
		p.State,
		p.Frame,
		p.TotalFrames,
		p.Percent,
		p.FPS,
		formatDuration(p.EstimatedTimeRemaining()),
	)
}

// formatDuration converts a duration to a human-readable string.
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "calculating..."
	}

	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	seconds = seconds % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}
