// Package commands contains CLI command implementations for the application.
package commands

import (
	"fmt"
	"io"
	"os"

	apperrors "github.com/zerotouch/envseal/internal/errors"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// parseTextFormat validates a 'text'/'json' output format flag.
func parseTextFormat(format string) (string, error) {
	switch format {
	case "text", "json":
		return format, nil
	default:
		return "", apperrors.Wrap(apperrors.ErrInvalidInput,
			fmt.Sprintf("invalid format: %s (valid options: text, json)", format))
	}
}

// parseSecretsFormat validates an 'env'/'json' materialization format flag.
func parseSecretsFormat(format string) (string, error) {
	switch format {
	case "env", "json":
		return format, nil
	default:
		return "", apperrors.Wrap(apperrors.ErrInvalidInput,
			fmt.Sprintf("invalid format: %s (valid options: env, json)", format))
	}
}
