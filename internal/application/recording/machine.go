// Package recording drives a capture device through an explicit state machine.
package recording

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an event is not allowed in a state.
var ErrInvalidTransition = errors.New("invalid recording transition")

// State is a recording session state.
type State int

const (
	StateIdle State = iota
	StateOpening
	StateConfiguring
	StateRecording
	StateStopping
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateConfiguring:
		return "configuring"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Busy reports whether a session occupies the device in this state.
func (s State) Busy() bool {
	return s != StateIdle && s != StateError
}

// Event moves the machine between states.
type Event int

const (
	EventStart Event = iota
	EventOpened
	EventConfigured
	EventStopRequested
	EventDurationElapsed
	EventStopped
	EventFailed
	EventReset
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventOpened:
		return "opened"
	case EventConfigured:
		return "configured"
	case EventStopRequested:
		return "stop-requested"
	case EventDurationElapsed:
		return "duration-elapsed"
	case EventStopped:
		return "stopped"
	case EventFailed:
		return "failed"
	case EventReset:
		return "reset"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

type edge struct {
	from  State
	event Event
}

var transitions = map[edge]State{
	{StateIdle, EventStart}:                StateOpening,
	{StateOpening, EventOpened}:            StateConfiguring,
	{StateConfiguring, EventConfigured}:    StateRecording,
	{StateRecording, EventStopRequested}:   StateStopping,
	{StateRecording, EventDurationElapsed}: StateStopping,
	{StateStopping, EventStopped}:          StateIdle,
	{StateError, EventReset}:               StateIdle,
}

// Transition returns the state reached from s on e.
// Failed is accepted in every state and always lands in StateError.
func Transition(s State, e Event) (State, error) {
	if e == EventFailed {
		return StateError, nil
	}
	if next, ok := transitions[edge{s, e}]; ok {
		return next, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, s, e)
}
