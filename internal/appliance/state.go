// Package appliance is the lifecycle state machine of the coffee maker. It
// owns the current state and the brew request, polls the remote key cell
// once per dispatch, and runs the schedule entry and brew procedure to
// completion when their states are reached.
package appliance

// State is the mode the appliance is in. Exactly one is current.
type State int

const (
	Greeting State = iota
	SelectCups
	ChooseTiming
	Brewing
	Scheduling
	Waiting
)

// stateNone marks that nothing has been rendered since the last transition.
const stateNone State = -1

func (s State) String() string {
	switch s {
	case Greeting:
		return "GREETING"
	case SelectCups:
		return "SELECT_CUPS"
	case ChooseTiming:
		return "CHOOSE_TIMING"
	case Brewing:
		return "BREWING"
	case Scheduling:
		return "SCHEDULING"
	case Waiting:
		return "WAITING"
	default:
		return "UNKNOWN"
	}
}

// BrewRequest is the operator's confirmed order.
type BrewRequest struct {
	Cups     int
	StartNow bool
}
