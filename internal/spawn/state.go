package spawn

import "fmt"

// State is a step of the spawn workflow.
type State int

const (
	StateSelectOrigin State = iota
	StateSelectContext
	StateSelectName
	StateResolve
	StateAllocate
	StateCompose
	StatePersist
	StateDone
	StateFailed
)

var stateNames = [...]string{
	"select_origin",
	"select_context",
	"select_name",
	"resolve",
	"allocate",
	"compose",
	"persist",
	"done",
	"failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Error is a failed spawn. State is the step that failed; steps before it
// keep their side effects.
type Error struct {
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("spawn: %s: %v", e.State, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(state State, err error) error {
	return &Error{State: state, Err: err}
}
