package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	bundleUseCase "github.com/zerotouch/envseal/internal/bundle/usecase"
	apperrors "github.com/zerotouch/envseal/internal/errors"
	keysUseCase "github.com/zerotouch/envseal/internal/keys/usecase"
)

// bundleStatus describes one bundle file in a status report.
type bundleStatus struct {
	Group string `json:"group"`
	Keys  int    `json:"keys"`
	Stale bool   `json:"stale"`
}

// statusReport is the full status of one environment.
type statusReport struct {
	Environment   string         `json:"environment"`
	Fingerprint   string         `json:"fingerprint,omitempty"`
	PublicKey     string         `json:"public_key,omitempty"`
	Escrowed      bool           `json:"escrowed"`
	EscrowRecords int            `json:"escrow_records"`
	Bundles       []bundleStatus `json:"bundles"`
}

// RunStatus reports an environment's key identity, escrow state and bundle
// inventory without touching any private material.
func RunStatus(
	ctx context.Context,
	escrowUC keysUseCase.EscrowUseCase,
	metadataRepo bundleUseCase.MetadataRepository,
	bundleRepo bundleUseCase.BundleRepository,
	logger *slog.Logger,
	w io.Writer,
	environment string,
	format string,
) error {
	format, err := parseTextFormat(format)
	if err != nil {
		return err
	}

	report := statusReport{Environment: environment, Bundles: []bundleStatus{}}

	meta, err := metadataRepo.Metadata(ctx, environment)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	if meta != nil {
		report.Fingerprint = string(meta.Fingerprint)
		report.PublicKey = meta.PublicKey
	}

	report.Escrowed, err = escrowUC.Exists(ctx, environment)
	if err != nil {
		return err
	}
	entries, err := escrowUC.History(ctx, environment)
	if err != nil {
		return err
	}
	report.EscrowRecords = len(entries)

	bundles, err := bundleRepo.ListBundles(ctx, environment)
	if err != nil {
		return err
	}
	for _, bundle := range bundles {
		stale := meta == nil || bundle.Fingerprint != meta.Fingerprint
		report.Bundles = append(report.Bundles, bundleStatus{
			Group: bundle.Group,
			Keys:  len(bundle.Values),
			Stale: stale,
		})
	}

	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	fmt.Fprintf(w, "Environment: %s\n", report.Environment)
	if report.Fingerprint == "" {
		fmt.Fprintln(w, "Key:         none issued")
	} else {
		fmt.Fprintf(w, "Key:         %s\n", report.Fingerprint)
	}
	fmt.Fprintf(w, "Escrowed:    %t (%d record(s))\n", report.Escrowed, report.EscrowRecords)
	if len(report.Bundles) == 0 {
		fmt.Fprintln(w, "Bundles:     none")
		return nil
	}
	fmt.Fprintln(w, "Bundles:")
	for _, b := range report.Bundles {
		marker := ""
		if b.Stale {
			marker = " (stale)"
		}
		fmt.Fprintf(w, "  %s: %d key(s)%s\n", b.Group, b.Keys, marker)
	}

	return nil
}
