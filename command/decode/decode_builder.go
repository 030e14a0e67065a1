package decode

import (
	"fmt"

	"vid2vid/command"
)

// DecodeBuilder builds the ffmpeg arguments that decode the first video stream
// of a file into packed rgb24 frames on stdout.
type DecodeBuilder struct {
	inputPath string
	maxFrames int
	extraArgs []string
}

// NewDecodeBuilder creates a decode command builder for inputPath.
func NewDecodeBuilder(inputPath string) *DecodeBuilder {
	return &DecodeBuilder{
		inputPath: inputPath,
		extraArgs: []string{},
	}
}

// SetMaxFrames stops decoding after n frames. Zero decodes the whole stream.
func (d *DecodeBuilder) SetMaxFrames(n int) *DecodeBuilder {
	d.maxFrames = n
	return d
}

// AddExtraArgs adds custom ffmpeg output arguments
func (d *DecodeBuilder) AddExtraArgs(args ...string) *DecodeBuilder {
	d.extraArgs = append(d.extraArgs, args...)
	return d
}

// Validate checks the builder parameters.
func (d *DecodeBuilder) Validate() error {
	if d.inputPath == "" {
		return fmt.Errorf("input path cannot be empty")
	}
	if d.maxFrames < 0 {
		return fmt.Errorf("max frames cannot be negative, got %d", d.maxFrames)
	}
	return nil
}

// BuildArgs constructs the ffmpeg arguments for decoding
func (d *DecodeBuilder) BuildArgs() []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		// Frames keep the coded size ffprobe reports; display rotation is ignored
		"-noautorotate",
		"-i", d.inputPath,
		"-map", "0:v:0",
		"-an", "-sn",
	}

	if d.maxFrames > 0 {
		args = append(args, "-frames:v", fmt.Sprintf("%d", d.maxFrames))
	}

	args = append(args, d.extraArgs...)

	// Every decoded frame leaves as one packed rgb24 image
	args = append(args,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		command.Pipe,
	)
	return args
}

// DryRun returns the command that would be executed without running it
func (d *DecodeBuilder) DryRun() (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	return command.Format("ffmpeg", d.BuildArgs()), nil
}

// GetTaskType returns the task type identifier
func (d *DecodeBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeDecode
}

// GetInputPath returns the input file path
func (d *DecodeBuilder) GetInputPath() string {
	return d.inputPath
}

// GetOutputPath returns the stdout pipe
func (d *DecodeBuilder) GetOutputPath() string {
	return command.Pipe
}

var _ command.Command = (*DecodeBuilder)(nil)
