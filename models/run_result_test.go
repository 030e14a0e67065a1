package models

import (
	"fmt"
	"strings"
	"testing"
)

func TestRunResultValidation(t *testing.T) {
	tests := []struct {
		name          string
		runResult     RunResult
		expectError   bool
		errorContains string
	}{
		{
			name:        "valid successful result",
			runResult:   RunResult{OutputPath: "output.mp4", FramesIn: 10, FramesOut: 8, Success: true},
			expectError: false,
		},
		{
			name:        "valid failed result with error",
			runResult:   RunResult{Success: false, Error: fmt.Errorf("engine failed")},
			expectError: false,
		},
		{
			name:          "empty output path",
			runResult:     RunResult{OutputPath: "", Success: true},
			expectError:   true,
			errorContains: "output_path cannot be empty",
		},
		{
			name:          "whitespace-only output path",
			runResult:     RunResult{OutputPath: " \t\n", Success: true},
			expectError:   true,
			errorContains: "output_path cannot be empty",
		},
		{
			name:          "success true but has error",
			runResult:     RunResult{OutputPath: "output.mp4", Success: true, Error: fmt.Errorf("some error")},
			expectError:   true,
			errorContains: "inconsistent state",
		},
		{
			name:          "success false but no error",
			runResult:     RunResult{Success: false},
			expectError:   true,
			errorContains: "must have an error",
		},
		{
			name:          "failed result pointing at partial output",
			runResult:     RunResult{OutputPath: "output.mp4", Success: false, Error: fmt.Errorf("encode failed")},
			expectError:   true,
			errorContains: "should not have output_path",
		},
		{
			name:          "more frames out than in",
			runResult:     RunResult{OutputPath: "output.mp4", FramesIn: 2, FramesOut: 3, Success: true},
			expectError:   true,
			errorContains: "cannot exceed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.runResult.Validate()
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got nil")
				} else if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error to contain '%s', but got '%s'", tt.errorContains, err.Error())
				}
			} else if err != nil {
				t.Errorf("expected no error but got: %v", err)
			}
		})
	}
}

func TestNewRunResultSuccess(t *testing.T) {
	rr, err := NewRunResultSuccess("run-1", "/tmp/out.mp4", 10, 8, 13, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rr.Success || rr.EngineCalls != 13 || rr.FramesOut != 8 {
		t.Errorf("unexpected result: %+v", rr)
	}

	if _, err := NewRunResultSuccess("run-1", "", 10, 8, 13, 30); err == nil {
		t.Error("expected error for empty output path")
	}
}

func TestNewRunResultFailure(t *testing.T) {
	if _, err := NewRunResultFailure("run-1", nil); err == nil {
		t.Error("expected error for nil run error")
	}

	rr, err := NewRunResultFailure("run-1", ErrEncode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := rr.Validate(); err != nil {
		t.Errorf("failure result should validate, got: %v", err)
	}
}
