package orchestrator

// State is the lifecycle position of a StreamOrchestrator.
//
// A state other than StateFailed names the most recent phase the orchestrator
// entered and completed; a phase that fails moves straight to StateFailed.
type State int

const (
	StateUnconfigured State = iota
	StateConfiguring
	StateWarmingUp
	StateStreaming
	StateDraining
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfiguring:
		return "configuring"
	case StateWarmingUp:
		return "warming-up"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further operation is accepted.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// predecessor is the state an operation entering s must start from.
var predecessor = map[State]State{
	StateConfiguring: StateUnconfigured,
	StateWarmingUp:   StateConfiguring,
	StateStreaming:   StateWarmingUp,
	StateDraining:    StateStreaming,
}
