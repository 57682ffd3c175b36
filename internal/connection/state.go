package connection

// State is the connection's tagged-variant lifecycle value (spec.md §3).
// ALL is a sentinel binding filter only — Core never reports it as its
// current state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Disconnecting
	// All matches every transition when used as a bind() filter.
	All
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	case Disconnecting:
		return "DISCONNECTING"
	case All:
		return "ALL"
	default:
		return "UNKNOWN"
	}
}

// StateChange is an immutable (previous, current) pair, equal iff both
// components are equal. Emitted on every real transition; suppressed on a
// no-op re-entrant call.
type StateChange struct {
	Previous State
	Current  State
}
