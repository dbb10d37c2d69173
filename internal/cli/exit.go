package cli

import (
	"errors"

	gherrors "github.com/Didstopia/forgeops/internal/errors"
)

// Exit codes
const (
	ExitOK      = 0
	ExitRuntime = 1
	ExitConfig  = 2
	ExitAuth    = 3
)

// ExitCode maps a command error to the process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, gherrors.ErrMissingScope),
		errors.Is(err, gherrors.ErrPreflightFailed),
		errors.Is(err, gherrors.ErrUnauthorized):
		return ExitAuth
	case gherrors.IsConfigError(err),
		errors.Is(err, gherrors.ErrMissingToken),
		errors.Is(err, gherrors.ErrMissingRepository),
		errors.Is(err, gherrors.ErrInvalidRepository),
		errors.Is(err, gherrors.ErrInvalidReason):
		return ExitConfig
	default:
		return ExitRuntime
	}
}

// wrapConfigError turns a flag parsing or validation failure into a ConfigError
func wrapConfigError(field string, err error) error {
	if err == nil || gherrors.IsConfigError(err) {
		return err
	}
	return gherrors.NewConfigError(field, err.Error())
}
