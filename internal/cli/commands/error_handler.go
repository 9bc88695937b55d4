package commands

import (
	"fmt"
	"os"

	"stackmon/internal/errors"
	"stackmon/internal/logger"
)

// HandleError adds a hint for the error codes a user can act on
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	se, ok := errors.As(err)
	if !ok {
		return err
	}
	logger.WithError(err).WithField("code", se.Code).Debug("Command failed")

	switch se.Code {
	case errors.ErrNetworkConnection:
		return fmt.Errorf("%v\n\nTip: Start the server with 'stackmon serve' or unset STACKMON_SERVER to run locally.", err)
	case errors.ErrDependencyMissing:
		return fmt.Errorf("%v\n\nTip: Run 'stackmon validate' to see the install commands.", err)
	case errors.ErrUnknownService:
		return fmt.Errorf("%v\n\nTip: Run 'stackmon order' to list the configured services.", err)
	case errors.ErrUnknownProvider, errors.ErrCredentialNotFound:
		return fmt.Errorf("%v\n\nTip: Run 'stackmon creds list' to see the supported providers.", err)
	case errors.ErrConfigNotFound, errors.ErrConfigInvalid, errors.ErrConfigParse:
		return fmt.Errorf("%v\n\nTip: Check stackmon.toml or pass --config.", err)
	case errors.ErrReadinessTimeout:
		return fmt.Errorf("%v\n\nTip: Check the service log under the stackmon logs directory.", err)
	default:
		return err
	}
}

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	switch errors.GetCode(err) {
	case "":
		if err == nil {
			return 0
		}
		return 1
	case errors.ErrNetworkConnection:
		return 3
	case errors.ErrDependencyMissing:
		return 4
	case errors.ErrConfigNotFound, errors.ErrConfigInvalid, errors.ErrConfigParse, errors.ErrValidationFailed:
		return 2
	default:
		return 1
	}
}

// ExitOnError prints err with its hint and exits
func ExitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", HandleError(err))
	os.Exit(ExitCode(err))
}
