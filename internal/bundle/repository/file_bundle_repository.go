// Package repository implements persistence for the version-controlled side
// of the subsystem: environment key metadata and ciphertext bundles.
//
// Everything written here is safe to commit. Layout under the repo root:
//
//	environments/{env}/keys.yaml            public-key metadata
//	environments/{env}/secrets/{group}.yaml one bundle per group
//
// Bundle files keep their secrets map sorted by key, so a re-encrypt of one
// value produces a one-line diff.
package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	bundleDomain "github.com/zerotouch/envseal/internal/bundle/domain"
	apperrors "github.com/zerotouch/envseal/internal/errors"
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
)

const (
	environmentsDir = "environments"
	secretsDir      = "secrets"
	metadataFile    = "keys.yaml"
	bundleExt       = ".yaml"
)

// metadataFileDoc is the on-disk form of EnvironmentMetadata.
type metadataFileDoc struct {
	Environment string `yaml:"environment"`
	PublicKey   string `yaml:"public_key"`
	Fingerprint string `yaml:"fingerprint"`
	UpdatedAt   string `yaml:"updated_at"`
}

// bundleFileDoc is the on-disk form of CiphertextBundle.
type bundleFileDoc struct {
	Environment string            `yaml:"environment"`
	Group       string            `yaml:"group"`
	Fingerprint string            `yaml:"fingerprint"`
	UpdatedAt   string            `yaml:"updated_at"`
	Secrets     map[string]string `yaml:"secrets"`
}

// FileBundleRepository stores metadata and bundles as YAML files under a
// repository checkout.
type FileBundleRepository struct {
	root string
}

// NewFileBundleRepository creates a repository rooted at the checkout dir.
func NewFileBundleRepository(root string) *FileBundleRepository {
	return &FileBundleRepository{root: root}
}

// SaveMetadata writes the environment's public-key metadata file.
func (r *FileBundleRepository) SaveMetadata(
	_ context.Context,
	meta *keysDomain.EnvironmentMetadata,
) error {
	dir := filepath.Join(r.root, environmentsDir, meta.Environment)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Wrap(apperrors.ErrRepoUnavailable, err.Error())
	}

	doc := metadataFileDoc{
		Environment: meta.Environment,
		PublicKey:   meta.PublicKey,
		Fingerprint: string(meta.Fingerprint),
		UpdatedAt:   meta.UpdatedAt.UTC().Format(time.RFC3339),
	}

	return r.writeYAML(filepath.Join(dir, metadataFile), doc)
}

// Metadata reads the environment's public-key metadata. Returns ErrNotFound
// when the environment has no recorded key.
func (r *FileBundleRepository) Metadata(
	_ context.Context,
	environment string,
) (*keysDomain.EnvironmentMetadata, error) {
	path := filepath.Join(r.root, environmentsDir, environment, metadataFile)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrapf(apperrors.ErrNotFound, "no key metadata for environment %s", environment)
		}
		return nil, apperrors.Wrap(apperrors.ErrRepoUnavailable, err.Error())
	}

	var doc metadataFileDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "corrupted metadata file %s: %s", path, err)
	}

	meta := &keysDomain.EnvironmentMetadata{
		Environment: doc.Environment,
		PublicKey:   doc.PublicKey,
		Fingerprint: keysDomain.Fingerprint(doc.Fingerprint),
	}
	if updated, parseErr := time.Parse(time.RFC3339, doc.UpdatedAt); parseErr == nil {
		meta.UpdatedAt = updated
	}

	return meta, nil
}

// SaveBundle writes (or overwrites) one bundle file.
func (r *FileBundleRepository) SaveBundle(
	_ context.Context,
	bundle *bundleDomain.CiphertextBundle,
) error {
	dir := filepath.Join(r.root, environmentsDir, bundle.Environment, secretsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Wrap(apperrors.ErrRepoUnavailable, err.Error())
	}

	doc := bundleFileDoc{
		Environment: bundle.Environment,
		Group:       bundle.Group,
		Fingerprint: string(bundle.Fingerprint),
		UpdatedAt:   bundle.UpdatedAt.UTC().Format(time.RFC3339),
		Secrets:     bundle.Values,
	}

	return r.writeYAML(filepath.Join(dir, bundle.Group+bundleExt), doc)
}

// Bundle reads one bundle by group name. Returns ErrNotFound when absent.
func (r *FileBundleRepository) Bundle(
	ctx context.Context,
	environment, group string,
) (*bundleDomain.CiphertextBundle, error) {
	return r.readBundle(filepath.Join(r.root, environmentsDir, environment, secretsDir, group+bundleExt), environment, group)
}

// ListBundles reads every bundle belonging to the environment. An
// environment with no bundles yields an empty slice, not an error.
func (r *FileBundleRepository) ListBundles(
	_ context.Context,
	environment string,
) ([]*bundleDomain.CiphertextBundle, error) {
	dir := filepath.Join(r.root, environmentsDir, environment, secretsDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrRepoUnavailable, err.Error())
	}

	var bundles []*bundleDomain.CiphertextBundle
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), bundleExt) {
			continue
		}
		group := strings.TrimSuffix(entry.Name(), bundleExt)
		bundle, err := r.readBundle(filepath.Join(dir, entry.Name()), environment, group)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, bundle)
	}

	return bundles, nil
}

func (r *FileBundleRepository) readBundle(
	path, environment, group string,
) (*bundleDomain.CiphertextBundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrapf(apperrors.ErrNotFound, "no bundle %s for environment %s", group, environment)
		}
		return nil, apperrors.Wrap(apperrors.ErrRepoUnavailable, err.Error())
	}

	var doc bundleFileDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "corrupted bundle file %s: %s", path, err)
	}

	bundle := &bundleDomain.CiphertextBundle{
		Environment: environment,
		Group:       group,
		Fingerprint: keysDomain.Fingerprint(doc.Fingerprint),
		Values:      doc.Secrets,
	}
	if updated, parseErr := time.Parse(time.RFC3339, doc.UpdatedAt); parseErr == nil {
		bundle.UpdatedAt = updated
	}

	return bundle, nil
}

func (r *FileBundleRepository) writeYAML(path string, doc any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal yaml")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.ErrRepoUnavailable, err.Error())
	}

	return nil
}
