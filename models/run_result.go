package models

import (
	"fmt"
	"strings"
)

// RunResult represents the outcome of one vid2vid run.
//
// It enforces logical consistency: a successful run has an output path and no
// error, a failed run has an error and no output path. A failed run never
// points at an output file because partial output is not valid output.
//
// Use NewRunResultSuccess or NewRunResultFailure to create validated instances.
type RunResult struct {
	RunID       string  `json:"run_id"`
	OutputPath  string  `json:"output_path"`
	FramesIn    int     `json:"frames_in"`
	FramesOut   int     `json:"frames_out"`
	EngineCalls int     `json:"engine_calls"`
	FrameRate   float64 `json:"frame_rate"`
	Success     bool    `json:"success"`
	Error       error   `json:"error"`
}

// NewRunResultSuccess creates a successful RunResult with validation.
//
// Returns an error if outputPath is empty or whitespace-only.
func NewRunResultSuccess(runID, outputPath string, framesIn, framesOut, engineCalls int, frameRate float64) (*RunResult, error) {
	rr := &RunResult{
		RunID:       runID,
		OutputPath:  outputPath,
		FramesIn:    framesIn,
		FramesOut:   framesOut,
		EngineCalls: engineCalls,
		FrameRate:   frameRate,
		Success:     true,
	}
	if err := rr.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run result: %w", err)
	}
	return rr, nil
}

// NewRunResultFailure creates a failed RunResult. runErr must not be nil.
func NewRunResultFailure(runID string, runErr error) (*RunResult, error) {
	if runErr == nil {
		return nil, fmt.Errorf("invalid run result: error cannot be nil for failed result")
	}
	return &RunResult{
		RunID:   runID,
		Success: false,
		Error:   runErr,
	}, nil
}

// Validate checks if the RunResult has consistent state.
//
// Returns an error if:
//   - Success is true but Error is not nil
//   - Success is false but Error is nil
//   - Success is true but OutputPath is empty
//   - Success is false but OutputPath is set
//   - FramesOut exceeds FramesIn
func (rr *RunResult) Validate() error {
	if rr.Success && rr.Error != nil {
		return fmt.Errorf("inconsistent state: Success is true but Error is not nil")
	}

	if !rr.Success && rr.Error == nil {
		return fmt.Errorf("failed result must have an error")
	}

	if rr.Success && strings.TrimSpace(rr.OutputPath) == "" {
		return fmt.Errorf("output_path cannot be empty for successful result")
	}

	if !rr.Success && strings.TrimSpace(rr.OutputPath) != "" {
		return fmt.Errorf("failed result should not have output_path")
	}

	if rr.FramesOut > rr.FramesIn {
		return fmt.Errorf("frames_out (%d) cannot exceed frames_in (%d)", rr.FramesOut, rr.FramesIn)
	}

	return nil
}
