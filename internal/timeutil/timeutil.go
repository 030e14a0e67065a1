// Package timeutil provides time formatting utilities for frame timestamps.
package timeutil

import "fmt"

// FormatSeconds converts seconds to HH:MM:SS.MS format.
//
// Example:
//
//	FormatSeconds(0)      // "00:00:00.00"
//	FormatSeconds(90)     // "00:01:30.00"
//	FormatSeconds(3661)   // "01:01:01.00"
//	FormatSeconds(30.53)  // "00:00:30.53"
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%05.2f", hours, minutes, secs)
}

// FrameTimestamp returns the presentation time of a frame index at the given
// frame rate. A non-positive frame rate yields zero.
func FrameTimestamp(index int, frameRate float64) float64 {
	if frameRate <= 0 || index <= 0 {
		return 0
	}
	return float64(index) / frameRate
}

// FormatFrame formats the presentation time of a frame index, e.g. frame 45 at
// 30 fps is "00:00:01.50".
func FormatFrame(index int, frameRate float64) string {
	return FormatSeconds(FrameTimestamp(index, frameRate))
}
