package ffmpeg

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"vid2vid/models"
)

// maxDiagnosticLines caps how many non-progress stderr lines are kept.
const maxDiagnosticLines = 20

// ProgressParser parses ffmpeg stderr output for encoding metrics
type ProgressParser struct {
	frameRegex   *regexp.Regexp
	fpsRegex     *regexp.Regexp
	sizeRegex    *regexp.Regexp
	timeRegex    *regexp.Regexp
	bitrateRegex *regexp.Regexp
	speedRegex   *regexp.Regexp
}

// NewProgressParser creates a new parser for ffmpeg progress output
func NewProgressParser() *ProgressParser {
	return &ProgressParser{
		// Match both "frame=123" and "frame= 123" formats
		frameRegex:   regexp.MustCompile(`(?:^|\s)frame=\s*(\d+)`),
		fpsRegex:     regexp.MustCompile(`(?:^|\s)fps=\s*([0-9.]+)`),
		sizeRegex:    regexp.MustCompile(`(?:^|\s)(?:L?size)=\s*([0-9]+)\s*(kB|KiB)?`),
		timeRegex:    regexp.MustCompile(`(?:^|\s)time=\s*([0-9:\.]+)`),
		bitrateRegex: regexp.MustCompile(`(?:^|\s)bitrate=\s*([0-9.]+)`),
		speedRegex:   regexp.MustCompile(`(?:^|\s)speed=\s*([0-9.]+)x?`),
	}
}

// ParseLine parses a single -stats line of ffmpeg stderr and updates progress.
// The frame count drives Percent through progress.Advance.
func (pp *ProgressParser) ParseLine(line string, progress *models.Progress) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	updated := false

	if matches := pp.frameRegex.FindStringSubmatch(line); len(matches) > 1 {
		if frame, err := strconv.ParseInt(matches[1], 10, 64); err == nil {
			progress.Advance(frame)
			updated = true
		}
	}

	// ffmpeg's own rate wins over the one Advance derives
	if matches := pp.fpsRegex.FindStringSubmatch(line); len(matches) > 1 {
		if fps, err := strconv.ParseFloat(matches[1], 64); err == nil {
			progress.FPS = fps
			updated = true
		}
	}

	if matches := pp.sizeRegex.FindStringSubmatch(line); len(matches) > 1 {
		progress.Size = matches[1] + "kB"
		updated = true
	}

	if matches := pp.timeRegex.FindStringSubmatch(line); len(matches) > 1 {
		progress.CurrentTime = matches[1]
		updated = true
	}

	if matches := pp.bitrateRegex.FindStringSubmatch(line); len(matches) > 1 {
		progress.Bitrate = matches[1] + "kbits/s"
		updated = true
	}

	if matches := pp.speedRegex.FindStringSubmatch(line); len(matches) > 1 {
		if speed, err := strconv.ParseFloat(matches[1], 64); err == nil {
			progress.Speed = speed
			updated = true
		}
	}

	return updated
}

// StreamProgress reads ffmpeg stderr until EOF, updating progress and invoking
// callback for every stats line. Other lines are returned, newest last, so a
// failed run can report what ffmpeg said.
func (pp *ProgressParser) StreamProgress(reader io.Reader, progress *models.Progress, callback models.ProgressCallback) ([]string, error) {
	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	// ffmpeg rewrites its stats line in place with \r
	scanner.Split(scanLinesOrCarriageReturns)

	var diagnostics []string
	for scanner.Scan() {
		line := scanner.Text()
		if pp.ParseLine(line, progress) {
			progress.State = models.ProgressStateEncoding
			if callback != nil {
				callback(progress)
			}
			continue
		}
		if line = strings.TrimSpace(line); line != "" {
			diagnostics = append(diagnostics, line)
			if len(diagnostics) > maxDiagnosticLines {
				diagnostics = diagnostics[1:]
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return diagnostics, fmt.Errorf("error reading ffmpeg output: %w", err)
	}
	return diagnostics, nil
}

// scanLinesOrCarriageReturns is bufio.ScanLines that also splits on a bare \r.
func scanLinesOrCarriageReturns(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
