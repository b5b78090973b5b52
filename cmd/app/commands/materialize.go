package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"

	bundleUseCase "github.com/zerotouch/envseal/internal/bundle/usecase"
	apperrors "github.com/zerotouch/envseal/internal/errors"
)

// RunMaterialize decrypts the environment's bundles into a namespaced secret
// set and renders it as dotenv lines or JSON. With an output path the result
// is written to a file readable only by the current user; plaintext secrets
// should never pass through shell history or world-readable files.
func RunMaterialize(
	ctx context.Context,
	materializeUC bundleUseCase.MaterializeUseCase,
	logger *slog.Logger,
	w io.Writer,
	environment string,
	format string,
	output string,
) error {
	format, err := parseSecretsFormat(format)
	if err != nil {
		return err
	}

	secrets, err := materializeUC.Materialize(ctx, environment)
	if err != nil {
		return err
	}

	if output != "" {
		file, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return apperrors.Wrapf(apperrors.ErrInvalidInput,
				"cannot open output file %s: %s", output, err)
		}
		defer func() { _ = file.Close() }()
		w = file

		logger.Info("writing materialized secrets to file",
			slog.String("environment", environment),
			slog.String("output", output),
		)
	}

	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(secrets)
	}

	keys := make([]string, 0, len(secrets))
	for key := range secrets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(w, "%s=%s\n", key, strconv.Quote(secrets[key]))
	}

	return nil
}
