// Package command provides the Command interface implemented by the ffmpeg
// argument builders of a vid2vid run.
//
// Builders only build arguments. The ffmpeg package owns process execution,
// because both commands stream raw frames through stdin or stdout pipes.
package command

import "strings"

// Pipe is the path ffmpeg reads as stdin or writes as stdout.
const Pipe = "-"

// TaskType represents the direction of an ffmpeg task.
type TaskType string

const (
	TaskTypeDecode TaskType = "decode" // Container file to raw rgb24 frames
	TaskTypeEncode TaskType = "encode" // Raw rgb24 frames to container file
)

// Command represents an ffmpeg invocation that can be built or previewed.
//
// Example usage:
//
//	cmd := decode.NewDecodeBuilder("input.mp4")
//	args := cmd.BuildArgs()      // for exec.CommandContext(ctx, "ffmpeg", args...)
//	preview, _ := cmd.DryRun()   // "ffmpeg -hide_banner ... -"
type Command interface {
	// BuildArgs constructs and returns the ffmpeg arguments as a slice.
	BuildArgs() []string

	// DryRun returns the command as a string without executing it.
	//
	// Returns an error if the command cannot be built (e.g., invalid parameters).
	DryRun() (string, error)

	// GetTaskType returns the task direction.
	GetTaskType() TaskType

	// GetInputPath returns the input path, Pipe when frames arrive on stdin.
	GetInputPath() string

	// GetOutputPath returns the output path, Pipe when frames leave on stdout.
	GetOutputPath() string
}

// Format renders binary and args as a single shell-like line.
func Format(binary string, args []string) string {
	return binary + " " + strings.Join(args, " ")
}
