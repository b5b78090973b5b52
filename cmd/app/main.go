// Package main provides the entry point for the envseal CLI.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	apperrors "github.com/zerotouch/envseal/internal/errors"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:     "envseal",
		Usage:    "Environment-isolated secret encryption with escrowed keys",
		Version:  version,
		Commands: getCommands(),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(exitCode(err))
	}
}

// exitCode maps error categories to stable exit codes so scripts can react
// to specific failures. Specific categories are checked before the broad
// ones they wrap.
func exitCode(err error) int {
	switch {
	case apperrors.Is(err, apperrors.ErrStoreUnavailable):
		return 7
	case apperrors.Is(err, apperrors.ErrStaleBundle):
		return 6
	case apperrors.Is(err, apperrors.ErrKeyMismatch):
		return 5
	case apperrors.Is(err, apperrors.ErrUnwrapFailed):
		return 4
	case apperrors.Is(err, apperrors.ErrEscrowNotFound):
		return 3
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		return 2
	default:
		return 1
	}
}
