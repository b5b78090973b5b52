// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/blob/s3blob"

	bundleRepository "github.com/zerotouch/envseal/internal/bundle/repository"
	bundleService "github.com/zerotouch/envseal/internal/bundle/service"
	bundleUseCase "github.com/zerotouch/envseal/internal/bundle/usecase"
	"github.com/zerotouch/envseal/internal/config"
	escrowRepository "github.com/zerotouch/envseal/internal/escrow/repository"
	apperrors "github.com/zerotouch/envseal/internal/errors"
	keysRepository "github.com/zerotouch/envseal/internal/keys/repository"
	keysService "github.com/zerotouch/envseal/internal/keys/service"
	keysUseCase "github.com/zerotouch/envseal/internal/keys/usecase"
	"github.com/zerotouch/envseal/internal/retry"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	bucket *blob.Bucket

	// Repositories
	escrowRepo *escrowRepository.BlobEscrowRepository
	bundleRepo *bundleRepository.FileBundleRepository
	keyStore   *keysRepository.LocalKeyStore

	// Use Cases
	issuerUseCase      keysUseCase.IssuerUseCase
	escrowUseCase      keysUseCase.EscrowUseCase
	encryptUseCase     bundleUseCase.EncryptUseCase
	materializeUseCase bundleUseCase.MaterializeUseCase
	rotateUseCase      bundleUseCase.RotateUseCase

	// Initialization flags and mutex for thread-safety
	mu                     sync.Mutex
	loggerInit             sync.Once
	bucketInit             sync.Once
	escrowRepoInit         sync.Once
	bundleRepoInit         sync.Once
	keyStoreInit           sync.Once
	issuerUseCaseInit      sync.Once
	escrowUseCaseInit      sync.Once
	encryptUseCaseInit     sync.Once
	materializeUseCaseInit sync.Once
	rotateUseCaseInit      sync.Once
	initErrors             map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// Bucket returns the escrow blob bucket.
// It opens the bucket on first access from the configured URL.
func (c *Container) Bucket(ctx context.Context) (*blob.Bucket, error) {
	var err error
	c.bucketInit.Do(func() {
		c.bucket, err = c.initBucket(ctx)
		if err != nil {
			c.initErrors["bucket"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["bucket"]; exists {
		return nil, storedErr
	}
	return c.bucket, nil
}

// EscrowRepository returns the escrow record repository instance.
func (c *Container) EscrowRepository(ctx context.Context) (*escrowRepository.BlobEscrowRepository, error) {
	var err error
	c.escrowRepoInit.Do(func() {
		var bucket *blob.Bucket
		bucket, err = c.Bucket(ctx)
		if err != nil {
			c.initErrors["escrowRepo"] = err
			return
		}
		policy := retry.Policy{
			MaxAttempts:     c.config.RetryMaxAttempts,
			InitialInterval: c.config.RetryInitialInterval,
			MaxInterval:     c.config.RetryMaxInterval,
		}
		c.escrowRepo = escrowRepository.NewBlobEscrowRepository(bucket, policy, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["escrowRepo"]; exists {
		return nil, storedErr
	}
	return c.escrowRepo, nil
}

// BundleRepository returns the version-controlled file repository instance.
func (c *Container) BundleRepository() *bundleRepository.FileBundleRepository {
	c.bundleRepoInit.Do(func() {
		c.bundleRepo = bundleRepository.NewFileBundleRepository(c.config.RepoDir)
	})
	return c.bundleRepo
}

// KeyStore returns the local key staging store instance.
func (c *Container) KeyStore() *keysRepository.LocalKeyStore {
	c.keyStoreInit.Do(func() {
		c.keyStore = keysRepository.NewLocalKeyStore(c.config.KeysDir)
	})
	return c.keyStore
}

// IssuerUseCase returns the key issuance use case instance.
func (c *Container) IssuerUseCase(ctx context.Context) (keysUseCase.IssuerUseCase, error) {
	var err error
	c.issuerUseCaseInit.Do(func() {
		var escrowRepo *escrowRepository.BlobEscrowRepository
		escrowRepo, err = c.EscrowRepository(ctx)
		if err != nil {
			c.initErrors["issuerUseCase"] = err
			return
		}
		c.issuerUseCase = keysUseCase.NewIssuerUseCase(
			keysService.NewX25519Generator(),
			c.BundleRepository(),
			escrowRepo,
			c.KeyStore(),
			c.Logger(),
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["issuerUseCase"]; exists {
		return nil, storedErr
	}
	return c.issuerUseCase, nil
}

// EscrowUseCase returns the escrow backup use case instance.
func (c *Container) EscrowUseCase(ctx context.Context) (keysUseCase.EscrowUseCase, error) {
	var err error
	c.escrowUseCaseInit.Do(func() {
		var escrowRepo *escrowRepository.BlobEscrowRepository
		escrowRepo, err = c.EscrowRepository(ctx)
		if err != nil {
			c.initErrors["escrowUseCase"] = err
			return
		}
		c.escrowUseCase = keysUseCase.NewEscrowUseCase(
			keysService.NewSealedBoxWrapper(),
			escrowRepo,
			c.KeyStore(),
			c.Logger(),
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["escrowUseCase"]; exists {
		return nil, storedErr
	}
	return c.escrowUseCase, nil
}

// EncryptUseCase returns the bundle authoring use case instance.
func (c *Container) EncryptUseCase(ctx context.Context) (bundleUseCase.EncryptUseCase, error) {
	var err error
	c.encryptUseCaseInit.Do(func() {
		var escrowRepo *escrowRepository.BlobEscrowRepository
		escrowRepo, err = c.EscrowRepository(ctx)
		if err != nil {
			c.initErrors["encryptUseCase"] = err
			return
		}
		c.encryptUseCase = bundleUseCase.NewEncryptUseCase(
			bundleService.NewSealedBoxEngine(),
			c.BundleRepository(),
			c.BundleRepository(),
			escrowRepo,
			c.Logger(),
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["encryptUseCase"]; exists {
		return nil, storedErr
	}
	return c.encryptUseCase, nil
}

// MaterializeUseCase returns the secret materialization use case instance.
func (c *Container) MaterializeUseCase(ctx context.Context) (bundleUseCase.MaterializeUseCase, error) {
	var err error
	c.materializeUseCaseInit.Do(func() {
		var escrowRepo *escrowRepository.BlobEscrowRepository
		escrowRepo, err = c.EscrowRepository(ctx)
		if err != nil {
			c.initErrors["materializeUseCase"] = err
			return
		}
		c.materializeUseCase = bundleUseCase.NewMaterializeUseCase(
			bundleService.NewSealedBoxEngine(),
			keysService.NewSealedBoxWrapper(),
			c.BundleRepository(),
			c.BundleRepository(),
			escrowRepo,
			c.Logger(),
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["materializeUseCase"]; exists {
		return nil, storedErr
	}
	return c.materializeUseCase, nil
}

// RotateUseCase returns the key rotation use case instance.
func (c *Container) RotateUseCase(ctx context.Context) (bundleUseCase.RotateUseCase, error) {
	var err error
	c.rotateUseCaseInit.Do(func() {
		var escrowRepo *escrowRepository.BlobEscrowRepository
		escrowRepo, err = c.EscrowRepository(ctx)
		if err != nil {
			c.initErrors["rotateUseCase"] = err
			return
		}
		var escrowUC keysUseCase.EscrowUseCase
		escrowUC, err = c.EscrowUseCase(ctx)
		if err != nil {
			c.initErrors["rotateUseCase"] = err
			return
		}
		c.rotateUseCase = bundleUseCase.NewRotateUseCase(
			bundleService.NewSealedBoxEngine(),
			keysService.NewSealedBoxWrapper(),
			keysService.NewX25519Generator(),
			c.BundleRepository(),
			c.BundleRepository(),
			escrowRepo,
			escrowUC,
			c.KeyStore(),
			c.Logger(),
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rotateUseCase"]; exists {
		return nil, storedErr
	}
	return c.rotateUseCase, nil
}

// Shutdown gracefully closes all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bucket != nil {
		if err := c.bucket.Close(); err != nil {
			return fmt.Errorf("bucket close: %w", err)
		}
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initBucket opens the escrow bucket from the configured URL.
//
// s3:// URLs get an explicitly built client so endpoint and credential
// overrides from configuration apply (MinIO and friends). Any other scheme
// goes through the registered URL openers; file:// and mem:// are linked in
// for local use and tests.
func (c *Container) initBucket(ctx context.Context) (*blob.Bucket, error) {
	if c.config.BlobBucketURL == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "ESCROW_BUCKET_URL is not set")
	}

	parsed, err := url.Parse(c.config.BlobBucketURL)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput,
			"invalid escrow bucket URL %s: %s", c.config.BlobBucketURL, err)
	}

	if parsed.Scheme != "s3" {
		bucket, err := blob.OpenBucket(ctx, c.config.BlobBucketURL)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
		}
		return bucket, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(c.config.BlobRegion),
	}
	if c.config.BlobAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				c.config.BlobAccessKeyID,
				c.config.BlobSecretAccessKey,
				"",
			),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.config.BlobEndpoint != "" {
			o.BaseEndpoint = aws.String(c.config.BlobEndpoint)
			o.UsePathStyle = true
		}
	})

	bucket, err := s3blob.OpenBucketV2(ctx, client, parsed.Host, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}
	return bucket, nil
}
