package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for a vid2vid run.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrValueConstraint indicates a bad scale factor, dimension or parameter value.
	ErrValueConstraint = errors.New("value constraint violation")

	// ErrEmptyInput indicates there are no frames to process.
	ErrEmptyInput = errors.New("empty input")

	// ErrPrecedence indicates the call-order contract was broken, e.g. a frame
	// call before configuration.
	ErrPrecedence = errors.New("precedence violation")

	// ErrEngineInvocation indicates the diffusion engine failed on a call.
	ErrEngineInvocation = errors.New("engine invocation failed")

	// ErrDecode indicates the input video could not be read.
	ErrDecode = errors.New("decode failed")

	// ErrEncode indicates the output video could not be written.
	ErrEncode = errors.New("encode failed")
)

// Phase names the part of a run an engine call belongs to.
type Phase string

const (
	PhaseConfigure Phase = "configure"
	PhasePriming   Phase = "priming"
	PhaseFlush     Phase = "flush"
	PhaseStreaming Phase = "streaming"
)

// FrameError reports an engine failure on a specific call.
//
// Index is the source frame index the call was made for (0 for every warmup
// call, since warmup only uses the first frame). Call is the 1-based position of
// the call in the engine's call history, which is enough to reproduce the
// failure against a deterministic engine. A configure failure carries no call
// or frame.
type FrameError struct {
	Phase Phase
	Index int
	Call  int
	Err   error
}

func (e *FrameError) Error() string {
	if e.Phase == PhaseConfigure {
		return fmt.Sprintf("%s: %s: %v", ErrEngineInvocation, e.Phase, e.Err)
	}
	return fmt.Sprintf("%s: %s call %d (frame %d): %v", ErrEngineInvocation, e.Phase, e.Call, e.Index, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// Is makes every FrameError match ErrEngineInvocation.
func (e *FrameError) Is(target error) bool {
	return target == ErrEngineInvocation
}
