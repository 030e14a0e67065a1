package orchestrator

import "vid2vid/models"

// PipelineLatency is the number of engine calls between submitting a frame and
// receiving the output derived from it. It equals the engine's batch size.
type PipelineLatency int

// WarmupCalls is the number of warmup engine calls: one priming call plus one
// flush call per unit of latency.
func (l PipelineLatency) WarmupCalls() int {
	return 1 + int(l)
}

// TotalCalls is the number of engine calls a run over inputLen frames makes.
func (l PipelineLatency) TotalCalls(inputLen int) int {
	return l.WarmupCalls() + inputLen
}

// TrimmedLength is the output length for inputLen streamed frames.
func (l PipelineLatency) TrimmedLength(inputLen int) int {
	return max(0, inputLen-int(l))
}

// Trim drops the first l outputs, which still hold warmup state rather than
// results of the streamed frames. The returned slice does not alias outputs.
func Trim(outputs []*models.Frame, l PipelineLatency) []*models.Frame {
	n := l.TrimmedLength(len(outputs))
	trimmed := make([]*models.Frame, n)
	copy(trimmed, outputs[len(outputs)-n:])
	return trimmed
}
