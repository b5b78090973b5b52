// Package repository provides persistence for key material.
//
// LocalKeyStore stages freshly issued private keys on the operator's machine
// between "issue" and "backup". The staging dir lives outside any repository
// checkout and files are written 0600. Once an environment's keys are
// escrowed, the staged copies can be removed.
package repository

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/zerotouch/envseal/internal/errors"
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
)

const (
	primaryKeySuffix  = ".key"
	recoveryKeySuffix = ".recovery.key"
)

// LocalKeyStore stores staged private keys under a single directory.
type LocalKeyStore struct {
	dir string
}

// NewLocalKeyStore creates a LocalKeyStore rooted at dir.
func NewLocalKeyStore(dir string) *LocalKeyStore {
	return &LocalKeyStore{dir: dir}
}

// Save writes the environment's primary and recovery private keys.
func (s *LocalKeyStore) Save(environment string, primary, recovery keysDomain.KeyPair) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return errors.Wrap(err, "failed to create key staging dir")
	}

	if err := s.writeKey(environment+primaryKeySuffix, primary.Private); err != nil {
		return err
	}
	return s.writeKey(environment+recoveryKeySuffix, recovery.Private)
}

// Load reads the environment's staged pairs, deriving public halves from the
// private keys. Returns ErrNotFound when nothing is staged.
func (s *LocalKeyStore) Load(environment string) (primary, recovery keysDomain.KeyPair, err error) {
	primary, err = s.readKey(environment + primaryKeySuffix)
	if err != nil {
		return keysDomain.KeyPair{}, keysDomain.KeyPair{}, err
	}

	recovery, err = s.readKey(environment + recoveryKeySuffix)
	if err != nil {
		return keysDomain.KeyPair{}, keysDomain.KeyPair{}, err
	}

	return primary, recovery, nil
}

// Exists reports whether both staged key files are present.
func (s *LocalKeyStore) Exists(environment string) (bool, error) {
	for _, name := range []string{environment + primaryKeySuffix, environment + recoveryKeySuffix} {
		if _, err := os.Stat(filepath.Join(s.dir, name)); err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, errors.Wrap(err, "failed to stat staged key")
		}
	}
	return true, nil
}

// Remove deletes the environment's staged keys. Missing files are not an error.
func (s *LocalKeyStore) Remove(environment string) error {
	for _, name := range []string{environment + primaryKeySuffix, environment + recoveryKeySuffix} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "failed to remove staged key")
		}
	}
	return nil
}

func (s *LocalKeyStore) writeKey(name string, key keysDomain.PrivateKey) error {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(key.Encode()+"\n"), 0o600); err != nil {
		return errors.Wrapf(err, "failed to write %s", name)
	}
	return nil
}

func (s *LocalKeyStore) readKey(name string) (keysDomain.KeyPair, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return keysDomain.KeyPair{}, errors.Wrapf(errors.ErrNotFound, "no staged key %s", name)
		}
		return keysDomain.KeyPair{}, errors.Wrapf(err, "failed to read %s", name)
	}

	private, err := keysDomain.ParsePrivateKey(strings.TrimSpace(string(raw)))
	if err != nil {
		return keysDomain.KeyPair{}, errors.Wrapf(err, "corrupted staged key %s", name)
	}

	public, err := private.Public()
	if err != nil {
		return keysDomain.KeyPair{}, errors.Wrapf(err, "corrupted staged key %s", name)
	}

	return keysDomain.KeyPair{Public: public, Private: private}, nil
}
