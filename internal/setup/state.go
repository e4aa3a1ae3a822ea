package setup

import "fmt"

// State is a step of the live setup sequence.
type State int32

const (
	NotStarted State = iota
	ValidatingJob
	Initializing
	ResolvingBrokerage
	Connecting
	SyncingState
	Complete
	// Failed is absorbing; every step can reach it.
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case ValidatingJob:
		return "ValidatingJob"
	case Initializing:
		return "Initializing"
	case ResolvingBrokerage:
		return "ResolvingBrokerage"
	case Connecting:
		return "Connecting"
	case SyncingState:
		return "SyncingState"
	case Complete:
		return "Complete"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
