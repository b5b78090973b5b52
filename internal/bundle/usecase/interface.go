// Package usecase implements bundle authoring, materialization and key
// rotation orchestration.
//
// Authoring (encrypt) touches only public material and the version-controlled
// checkout. Materialization is the single read path that needs the escrow
// store; it fails closed on any consistency violation so no partially wrong
// secret set ever reaches a consumer.
package usecase

import (
	"context"

	bundleDomain "github.com/zerotouch/envseal/internal/bundle/domain"
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
)

// BundleRepository defines the interface for version-controlled bundle
// persistence.
type BundleRepository interface {
	// SaveBundle writes (or overwrites) one bundle file.
	SaveBundle(ctx context.Context, bundle *bundleDomain.CiphertextBundle) error

	// Bundle reads one bundle by group name. Returns ErrNotFound when absent.
	Bundle(ctx context.Context, environment, group string) (*bundleDomain.CiphertextBundle, error)

	// ListBundles reads every bundle belonging to the environment.
	ListBundles(ctx context.Context, environment string) ([]*bundleDomain.CiphertextBundle, error)
}

// MetadataRepository defines the interface for the version-controlled
// public-key metadata file.
type MetadataRepository interface {
	// SaveMetadata writes the environment's metadata file.
	SaveMetadata(ctx context.Context, meta *keysDomain.EnvironmentMetadata) error

	// Metadata reads the environment's metadata. Returns ErrNotFound when
	// the environment has no recorded key.
	Metadata(ctx context.Context, environment string) (*keysDomain.EnvironmentMetadata, error)
}

// EscrowReader defines the escrow-store read surface the bundle side needs.
type EscrowReader interface {
	// Active reads the environment's active escrow record.
	Active(ctx context.Context, environment string) (*keysDomain.EscrowRecord, error)

	// Exists probes for an active escrow record.
	Exists(ctx context.Context, environment string) (bool, error)
}

// PairEscrower escrows explicitly supplied pairs during rotation.
type PairEscrower interface {
	BackupPair(
		ctx context.Context,
		environment string,
		primary, recovery keysDomain.KeyPair,
	) (*keysDomain.EscrowRecord, error)
}

// KeyStager stages rotation pairs locally until the escrow write lands.
type KeyStager interface {
	Save(environment string, primary, recovery keysDomain.KeyPair) error
	Remove(environment string) error
}

// EncryptResult reports the outcome of an Encrypt call.
type EncryptResult struct {
	// Environment is the isolation domain the bundle belongs to.
	Environment string
	// Group is the bundle's logical name.
	Group string
	// Fingerprint is the public key the values were sealed under.
	Fingerprint keysDomain.Fingerprint
	// Keys lists the normalized names written by this call, sorted.
	Keys []string
	// TotalKeys is the bundle's key count after the write.
	TotalKeys int
}

// EncryptUseCase defines the bundle authoring operation.
type EncryptUseCase interface {
	// Encrypt seals the given plaintext pairs into the environment's group
	// bundle. Existing keys not named in pairs keep their ciphertext
	// byte-identical.
	Encrypt(
		ctx context.Context,
		environment, group string,
		pairs map[string]string,
	) (*EncryptResult, error)
}

// MaterializeUseCase defines the bundle read path.
type MaterializeUseCase interface {
	// Materialize decrypts every bundle of the environment into a
	// namespaced secret set. All-or-nothing: any consistency or decrypt
	// failure yields no output at all.
	Materialize(ctx context.Context, environment string) (bundleDomain.SecretSet, error)
}

// RotateResult reports the outcome of a Rotate call.
type RotateResult struct {
	// Environment is the isolation domain that was rotated.
	Environment string
	// OldFingerprint identifies the retired key.
	OldFingerprint keysDomain.Fingerprint
	// NewFingerprint identifies the replacement key.
	NewFingerprint keysDomain.Fingerprint
	// Bundles is the number of bundle files re-encrypted.
	Bundles int
}

// RotateUseCase defines the key rotation operation.
type RotateUseCase interface {
	// Rotate replaces the environment's key pair and re-encrypts every
	// bundle under the new key. The new escrow record is promoted only
	// after the re-encrypted bundles and metadata are written.
	Rotate(ctx context.Context, environment string) (*RotateResult, error)
}
