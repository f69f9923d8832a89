package checkout

type State string

const (
	StateIdle            State = "IDLE"
	StateQuoting         State = "QUOTING"
	StateAwaitingCapture State = "AWAITING_CAPTURE"
	StateCapturing       State = "CAPTURING"
	StateCaptured        State = "CAPTURED"
	StateFailed          State = "FAILED"
)

var transitions = map[State][]State{
	StateIdle:            {StateQuoting},
	StateQuoting:         {StateAwaitingCapture, StateFailed, StateIdle},
	StateAwaitingCapture: {StateCapturing, StateFailed, StateIdle, StateQuoting},
	StateCapturing:       {StateCaptured, StateFailed},
	StateFailed:          {StateIdle},
	StateCaptured:        {StateIdle},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s State) IsTerminal() bool {
	return s == StateCaptured
}

func (s State) String() string {
	return string(s)
}
