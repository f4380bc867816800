package agent

// State is a phase of one conversation turn.
type State int

const (
	// StateAwaitingModel waits for the model's next step.
	StateAwaitingModel State = iota
	// StateExecutingTools runs the tool calls the model requested.
	StateExecutingTools
	// StateDone holds the final answer.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "AWAITING_MODEL"
	case StateExecutingTools:
		return "EXECUTING_TOOLS"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}
