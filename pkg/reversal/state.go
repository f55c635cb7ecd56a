package reversal

// State tracks the reversal engine through its lifecycle.
type State int

const (
	// StateInitial is the engine before Load.
	StateInitial State = iota

	// StateLoaded means the journal has been read.
	StateLoaded

	// StatePreviewed means the plan has been rendered for the user.
	StatePreviewed

	// StateConfirmed means both confirmation gates approved.
	StateConfirmed

	// StateExecuting means records are being replayed in reverse.
	StateExecuting

	// StateDone is the terminal success state.
	StateDone

	// StateAborted is the terminal state after a user decline.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateLoaded:
		return "Loaded"
	case StatePreviewed:
		return "Previewed"
	case StateConfirmed:
		return "Confirmed"
	case StateExecuting:
		return "Executing"
	case StateDone:
		return "Done"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}
