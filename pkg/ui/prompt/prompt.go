// Package prompt asks the user to settle what reshader cannot decide on its
// own. Prompts only appear on interactive terminals; everywhere else the
// Unattended prompter answers with defaults or errors.
package prompt

import (
	"fmt"

	"github.com/arthur-debert/reshader/pkg/errors"
	"github.com/arthur-debert/reshader/pkg/graphics"
	"github.com/pterm/pterm"
)

// Prompter asks questions during a command
type Prompter interface {
	// SelectAPI asks which graphics API a game uses
	SelectAPI(game string) (graphics.API, error)
	// Confirm asks a yes/no question
	Confirm(question string, defaultValue bool) (bool, error)
}

// New returns a Console prompter when interactive, Unattended otherwise
func New(interactive bool) Prompter {
	if interactive {
		return Console{}
	}
	return Unattended{}
}

// Console prompts with pterm's interactive widgets
type Console struct{}

func (Console) SelectAPI(game string) (graphics.API, error) {
	apis := graphics.Supported()
	options := make([]string, len(apis))
	byOption := make(map[string]graphics.API, len(apis))
	for i, api := range apis {
		options[i] = fmt.Sprintf("%s (%s)", api.DisplayName(), api)
		byOption[options[i]] = api
	}

	choice, err := pterm.DefaultInteractiveSelect.
		WithDefaultText(fmt.Sprintf("Could not detect the graphics API of %s, pick one", game)).
		WithOptions(options).
		Show()
	if err != nil {
		return graphics.Unknown, errors.Wrap(err, errors.ErrCancelled, "API selection aborted")
	}
	api, ok := byOption[choice]
	if !ok {
		return graphics.Unknown, errors.Newf(errors.ErrInvalidInput, "unknown choice %q", choice)
	}
	return api, nil
}

func (Console) Confirm(question string, defaultValue bool) (bool, error) {
	ok, err := pterm.DefaultInteractiveConfirm.
		WithDefaultText(question).
		WithDefaultValue(defaultValue).
		Show()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCancelled, "confirmation aborted")
	}
	return ok, nil
}

// Unattended never blocks: API selection fails and confirmations take
// their default.
type Unattended struct{}

func (Unattended) SelectAPI(game string) (graphics.API, error) {
	return graphics.Unknown, errors.Newf(errors.ErrUnsupportedAPI,
		"could not detect the graphics API of %s; pass --api", game).WithDetail("game", game)
}

func (Unattended) Confirm(question string, defaultValue bool) (bool, error) {
	return defaultValue, nil
}
