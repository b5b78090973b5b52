// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// BlobBucketURL is the gocloud.dev URL of the escrow bucket
	// (e.g., "s3://escrow-bucket?region=us-east-1" or "file:///var/escrow").
	BlobBucketURL string

	// BlobEndpoint overrides the S3 endpoint (for S3-compatible stores).
	BlobEndpoint string
	// BlobRegion is the region of the escrow bucket.
	BlobRegion string
	// BlobAccessKeyID is the access key used to reach the escrow bucket.
	BlobAccessKeyID string
	// BlobSecretAccessKey is the secret paired with BlobAccessKeyID.
	BlobSecretAccessKey string

	// RepoDir is the root of the version-controlled secrets repository
	// (metadata files and ciphertext bundles live under it).
	RepoDir string

	// KeysDir holds freshly issued private keys between "issue" and "backup".
	// It must never enter version control.
	KeysDir string

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// RetryMaxAttempts bounds retries of transient store operations.
	RetryMaxAttempts int
	// RetryInitialInterval is the first backoff delay between retries.
	RetryInitialInterval time.Duration
	// RetryMaxInterval caps the backoff delay between retries.
	RetryMaxInterval time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Escrow blob store
		BlobBucketURL:       env.GetString("ESCROW_BUCKET_URL", ""),
		BlobEndpoint:        env.GetString("AWS_ENDPOINT_URL", ""),
		BlobRegion:          env.GetString("AWS_REGION", "us-east-1"),
		BlobAccessKeyID:     env.GetString("AWS_ACCESS_KEY_ID", ""),
		BlobSecretAccessKey: env.GetString("AWS_SECRET_ACCESS_KEY", ""),

		// Version-controlled secrets repository
		RepoDir: env.GetString("SECRETS_REPO_DIR", "."),

		// Local (never committed) key staging area
		KeysDir: env.GetString("KEYS_DIR", defaultKeysDir()),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Retry policy for transient store I/O
		RetryMaxAttempts:     env.GetInt("RETRY_MAX_ATTEMPTS", 4),
		RetryInitialInterval: env.GetDuration("RETRY_INITIAL_INTERVAL_MS", 250, time.Millisecond),
		RetryMaxInterval:     env.GetDuration("RETRY_MAX_INTERVAL_MS", 5000, time.Millisecond),
	}
}

// defaultKeysDir places staged private keys under the user's config
// directory, well outside any repository checkout.
func defaultKeysDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".envseal", "keys")
	}
	return filepath.Join(base, "envseal", "keys")
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
