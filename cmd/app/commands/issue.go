package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	keysUseCase "github.com/zerotouch/envseal/internal/keys/usecase"
)

// RunIssue issues a fresh primary and recovery pair for an environment. The
// private halves land in the local staging area; run "backup" afterwards to
// escrow them. Idempotent: an environment with a live key is reported, not
// replaced.
func RunIssue(
	ctx context.Context,
	issuerUC keysUseCase.IssuerUseCase,
	logger *slog.Logger,
	w io.Writer,
	environment string,
	format string,
) error {
	format, err := parseTextFormat(format)
	if err != nil {
		return err
	}

	result, err := issuerUC.Issue(ctx, environment)
	if err != nil {
		return err
	}

	if format == "json" {
		return json.NewEncoder(w).Encode(map[string]any{
			"environment": result.Environment,
			"created":     result.Created,
			"fingerprint": string(result.Fingerprint),
			"public_key":  result.PublicKey,
		})
	}

	if !result.Created {
		fmt.Fprintf(w, "Environment %s already has an active key (fingerprint %s); nothing issued.\n",
			result.Environment, result.Fingerprint)
		return nil
	}

	fmt.Fprintf(w, "Issued key pair for environment %s\n", result.Environment)
	fmt.Fprintf(w, "Fingerprint: %s\n", result.Fingerprint)
	fmt.Fprintf(w, "Public key:  %s\n", result.PublicKey)
	fmt.Fprintln(w, "Private keys are staged locally; run 'backup' to escrow them.")

	return nil
}
