package orchestrator

// State is where a turn is in its lifecycle.
type State string

const (
	StateClassifying       State = "CLASSIFYING"
	StateRunningActions    State = "RUNNING_ACTIONS"
	StateAssemblingContext State = "ASSEMBLING_CONTEXT"
	StateStreamingAnswer   State = "STREAMING_ANSWER"
	StateFinalizing        State = "FINALIZING"
	StateCompleted         State = "COMPLETED"
	StateFailed            State = "FAILED"
)

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// next lists the legal transitions. Any non-terminal state may fail.
var next = map[State][]State{
	StateClassifying:       {StateRunningActions},
	StateRunningActions:    {StateAssemblingContext},
	StateAssemblingContext: {StateStreamingAnswer},
	StateStreamingAnswer:   {StateFinalizing},
	StateFinalizing:        {StateCompleted},
}

func canTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}
