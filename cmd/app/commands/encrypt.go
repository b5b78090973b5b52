package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	bundleUseCase "github.com/zerotouch/envseal/internal/bundle/usecase"
	apperrors "github.com/zerotouch/envseal/internal/errors"
)

// RunEncrypt seals plaintext values from a dotenv-formatted input into the
// environment's group bundle. The input is a file path, or "-" for stdin.
func RunEncrypt(
	ctx context.Context,
	encryptUC bundleUseCase.EncryptUseCase,
	logger *slog.Logger,
	ioTuple IOTuple,
	environment string,
	group string,
	input string,
	format string,
) error {
	format, err := parseTextFormat(format)
	if err != nil {
		return err
	}

	pairs, err := readPairs(ioTuple.Reader, input)
	if err != nil {
		return err
	}

	result, err := encryptUC.Encrypt(ctx, environment, group, pairs)
	if err != nil {
		return err
	}

	if format == "json" {
		return json.NewEncoder(ioTuple.Writer).Encode(map[string]any{
			"environment": result.Environment,
			"group":       result.Group,
			"fingerprint": string(result.Fingerprint),
			"keys":        result.Keys,
			"total_keys":  result.TotalKeys,
		})
	}

	fmt.Fprintf(ioTuple.Writer, "Encrypted %d value(s) into %s/%s (bundle now holds %d key(s)):\n",
		len(result.Keys), result.Environment, result.Group, result.TotalKeys)
	for _, key := range result.Keys {
		fmt.Fprintf(ioTuple.Writer, "  %s\n", key)
	}

	return nil
}

// readPairs parses dotenv-formatted plaintext pairs from a file or from the
// given reader when input is "-".
func readPairs(stdin io.Reader, input string) (map[string]string, error) {
	if input == "-" {
		pairs, err := godotenv.Parse(stdin)
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "invalid input: %s", err)
		}
		return pairs, nil
	}

	file, err := os.Open(input)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "cannot open input file %s: %s", input, err)
	}
	defer func() { _ = file.Close() }()

	pairs, err := godotenv.Parse(file)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "invalid input file %s: %s", input, err)
	}
	return pairs, nil
}
