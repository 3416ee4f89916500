package common

import (
	"context"

	"resumetailor/internal/errors"
)

// OperationFunc produces the value a command prints
type OperationFunc[Output any] func(context.Context) (Output, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc func(cfg CommandConfig)

// RunCommand runs operation and writes its result in the configured
// output format. Failures are returned unformatted so the caller decides
// how to report them.
func RunCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	operation OperationFunc[Output],
	logDetails LogDetailsFunc,
) error {
	outputHandler := NewOutputHandler(logger)
	if err := outputHandler.files.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	if logDetails != nil {
		logDetails(cmdConfig)
	}

	result, err := operation(ctx)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
