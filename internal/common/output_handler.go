package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"resumetailor/internal/errors"
	"resumetailor/internal/formatters"
)

// CommandConfig carries the output flags shared by every command.
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
	// Writer receives output when no file is set; nil means stdout
	Writer io.Writer
}

func (c CommandConfig) writer(fallback io.Writer) io.Writer {
	if c.Writer != nil {
		return c.Writer
	}
	return fallback
}

// OutputHandler renders command results through the formatter registry and
// sends them to a file or the terminal.
type OutputHandler struct {
	files    *FileProcessor
	registry *formatters.FormatterRegistry
	logger   *errors.Logger
	stdout   io.Writer
}

func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return &OutputHandler{
		files:    NewFileProcessor(logger),
		registry: formatters.GlobalRegistry,
		logger:   logger,
		stdout:   os.Stdout,
	}
}

// HandleOutput formats data as cfg.OutputFormat. Terminal output always
// ends with a newline.
func (oh *OutputHandler) HandleOutput(data any, cfg CommandConfig) error {
	if err := oh.files.ValidateOutputFile(cfg.OutputFile); err != nil {
		return err
	}

	output, err := oh.registry.Format(data, cfg.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", cfg.OutputFormat), err)
	}

	if cfg.OutputFile == "" {
		if !strings.HasSuffix(output, "\n") {
			output += "\n"
		}
		_, _ = io.WriteString(cfg.writer(oh.stdout), output)
		return nil
	}

	if err := oh.files.WriteFile(cfg.OutputFile, output); err != nil {
		return err
	}
	if oh.logger != nil {
		oh.logger.Info("Output written", "file", cfg.OutputFile, "format", cfg.OutputFormat)
	}
	return nil
}
