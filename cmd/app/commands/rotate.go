package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	bundleUseCase "github.com/zerotouch/envseal/internal/bundle/usecase"
)

// RunRotate replaces the environment's key pair and re-encrypts every bundle
// under the new key.
func RunRotate(
	ctx context.Context,
	rotateUC bundleUseCase.RotateUseCase,
	logger *slog.Logger,
	w io.Writer,
	environment string,
	format string,
) error {
	format, err := parseTextFormat(format)
	if err != nil {
		return err
	}

	result, err := rotateUC.Rotate(ctx, environment)
	if err != nil {
		return err
	}

	if format == "json" {
		return json.NewEncoder(w).Encode(map[string]any{
			"environment":     result.Environment,
			"old_fingerprint": string(result.OldFingerprint),
			"new_fingerprint": string(result.NewFingerprint),
			"bundles":         result.Bundles,
		})
	}

	fmt.Fprintf(w, "Rotated key for environment %s\n", result.Environment)
	fmt.Fprintf(w, "Old fingerprint: %s\n", result.OldFingerprint)
	fmt.Fprintf(w, "New fingerprint: %s\n", result.NewFingerprint)
	fmt.Fprintf(w, "Re-encrypted %d bundle(s). Commit the updated files.\n", result.Bundles)

	return nil
}
