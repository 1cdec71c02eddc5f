package collab

// guardState latches while remote operations replay into the editor view,
// so the view-change handler can tell replayed batches from genuine local
// edits and the adapter can reject reentrant ApplyOps calls.
type guardState int

const (
	stateIdle guardState = iota
	stateApplyingRemote
)

type guard struct {
	state guardState
}

// enter moves the guard to the applying state and returns the release
// function. It fails if a replay is already in flight, which only happens
// when ApplyOps is called from inside a change handler.
func (g *guard) enter() (func(), error) {
	if g.state != stateIdle {
		return nil, ErrReentrantApply
	}
	g.state = stateApplyingRemote
	return func() { g.state = stateIdle }, nil
}

// applying reports whether a remote replay is in flight.
func (g *guard) applying() bool {
	return g.state == stateApplyingRemote
}
