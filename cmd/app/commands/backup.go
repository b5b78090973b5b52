package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	keysUseCase "github.com/zerotouch/envseal/internal/keys/usecase"
)

// RunBackup escrows the environment's staged keys to the durable store.
func RunBackup(
	ctx context.Context,
	escrowUC keysUseCase.EscrowUseCase,
	logger *slog.Logger,
	w io.Writer,
	environment string,
	format string,
) error {
	format, err := parseTextFormat(format)
	if err != nil {
		return err
	}

	record, err := escrowUC.Backup(ctx, environment)
	if err != nil {
		return err
	}

	if format == "json" {
		return json.NewEncoder(w).Encode(map[string]any{
			"environment": record.Environment,
			"record_id":   record.ID.String(),
			"created_at":  record.CreatedAt.Format(time.RFC3339),
		})
	}

	fmt.Fprintf(w, "Escrowed primary key for environment %s\n", record.Environment)
	fmt.Fprintf(w, "Record ID: %s\n", record.ID)

	return nil
}

// RunHistory lists the environment's archived escrow records, newest first.
func RunHistory(
	ctx context.Context,
	escrowUC keysUseCase.EscrowUseCase,
	logger *slog.Logger,
	w io.Writer,
	environment string,
	format string,
) error {
	format, err := parseTextFormat(format)
	if err != nil {
		return err
	}

	entries, err := escrowUC.History(ctx, environment)
	if err != nil {
		return err
	}

	if format == "json" {
		timestamps := make([]string, 0, len(entries))
		for _, entry := range entries {
			timestamps = append(timestamps, entry.Timestamp.Format(time.RFC3339Nano))
		}
		return json.NewEncoder(w).Encode(map[string]any{
			"environment": environment,
			"records":     timestamps,
		})
	}

	if len(entries) == 0 {
		fmt.Fprintf(w, "No escrow records for environment %s.\n", environment)
		return nil
	}

	fmt.Fprintf(w, "Escrow history for environment %s (newest first):\n", environment)
	for _, entry := range entries {
		fmt.Fprintf(w, "  %s\n", entry.Timestamp.Format(time.RFC3339Nano))
	}

	return nil
}
