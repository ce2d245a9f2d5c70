package adcp

import "fmt"

// State is a step of the exchange state machine.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateAuthenticating
	StateAuthenticated
	StateCommandSent
	StateAcknowledged
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateCommandSent:
		return "command-sent"
	case StateAcknowledged:
		return "acknowledged"
	case StateClosed:
		return "closed"
	}

	return fmt.Sprintf("state(%d)", int(s))
}

// ExchangeError reports a failed exchange. State is the step the exchange
// was in when it failed; the connection is closed (StateClosed) by the
// time the error is returned.
type ExchangeError struct {
	Device string
	State  State
	Err    error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("adcp %s: exchange failed in state %s: %v", e.Device, e.State, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}
