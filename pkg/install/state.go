package install

import (
	stderrors "errors"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/logging"
)

// State is the progress of one install attempt
type State int

// Attempt states in the order they are reached
const (
	Planned State = iota
	APIResolved
	VariantResolved
	BinaryStaged
	BinaryInstalled
	ShadersStaged
	ShadersInstalled
	Recorded
	Failed
)

var stateNames = map[State]string{
	Planned:          "planned",
	APIResolved:      "api_resolved",
	VariantResolved:  "variant_resolved",
	BinaryStaged:     "binary_staged",
	BinaryInstalled:  "binary_installed",
	ShadersStaged:    "shaders_staged",
	ShadersInstalled: "shaders_installed",
	Recorded:         "recorded",
	Failed:           "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "invalid"
}

// Terminal reports whether no transition leaves s
func (s State) Terminal() bool {
	return s == Recorded || s == Failed
}

// Attempt enforces the forward-only progression of an install. A failed
// attempt is never resumed; retrying means planning again.
type Attempt struct {
	game     string
	state    State
	failedIn State
	err      error
	observer func(State)
}

// NewAttempt starts an attempt in Planned. observer, when not nil, is told
// about every state entered.
func NewAttempt(game string, observer func(State)) *Attempt {
	a := &Attempt{game: game, state: Planned, observer: observer}
	a.notify()
	return a
}

// State is the current state
func (a *Attempt) State() State { return a.state }

// FailedIn is the state the attempt was in when it failed
func (a *Attempt) FailedIn() State { return a.failedIn }

// Err is the failure reason of a Failed attempt
func (a *Attempt) Err() error { return a.err }

// Advance moves to next, which must directly follow the current state.
func (a *Attempt) Advance(next State) error {
	if a.state.Terminal() || next != a.state+1 || next == Failed {
		return errors.Newf(errors.ErrInvalidState, "cannot move install attempt from %s to %s", a.state, next).
			WithDetail("from", a.state.String()).
			WithDetail("to", next.String())
	}
	logger := logging.GetLogger("install")
	logger.Trace().Str("game", a.game).
		Str("from", a.state.String()).Str("to", next.String()).Msg("Install state")
	a.state = next
	a.notify()
	return nil
}

// Fail moves the attempt to Failed and returns err annotated with the state
// it failed in. Failing a terminal attempt returns err unchanged.
func (a *Attempt) Fail(err error) error {
	if a.state.Terminal() {
		return err
	}

	if err == nil {
		err = errors.New(errors.ErrInternal, "install failed")
	}
	var rsErr *errors.ReshaderError
	if !stderrors.As(err, &rsErr) {
		rsErr = errors.Wrap(err, errors.ErrInternal, "install failed")
		err = rsErr
	}
	rsErr.WithDetail("state", a.state.String())

	a.failedIn = a.state
	a.state = Failed
	a.err = err
	a.notify()
	return err
}

func (a *Attempt) notify() {
	if a.observer != nil {
		a.observer(a.state)
	}
}
