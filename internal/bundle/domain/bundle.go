// Package domain defines the ciphertext bundle domain models.
//
// A bundle is a named, version-control-committed group of encrypted key/value
// pairs, pinned to the fingerprint of the public key its values were sealed
// under. Bundles are diffable by construction: each value is encrypted
// independently, so untouched values stay byte-identical across re-encrypts
// of their neighbors.
package domain

import (
	"sort"
	"strings"
	"time"

	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
)

// CiphertextBundle is one committed group of encrypted values for one
// environment.
type CiphertextBundle struct {
	// Environment is the isolation domain the bundle belongs to.
	Environment string
	// Group is the bundle's logical name (one file per group).
	Group string
	// Fingerprint records the public key the values were sealed under. It
	// must equal the environment's active key fingerprint; a mismatch means
	// the bundle is stale and must fail closed.
	Fingerprint keysDomain.Fingerprint
	// Values maps normalized key names to base64 sealed-box ciphertext.
	Values map[string]string
	// UpdatedAt is the UTC timestamp of the last re-encryption.
	UpdatedAt time.Time
}

// Keys returns the bundle's key names in sorted order.
func (b *CiphertextBundle) Keys() []string {
	keys := make([]string, 0, len(b.Values))
	for k := range b.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SecretSet is the ephemeral, process-local output of materialization: a
// flat mapping from namespaced variable name to plaintext. Never persisted;
// lifetime owned by the consumer.
type SecretSet map[string]string

// NamespaceKey applies the environment prefix to a normalized key name so
// multiple environments' outputs can coexist without collision:
// ("staging", "database_url") → "STAGING_DATABASE_URL".
func NamespaceKey(environment, key string) string {
	prefix := strings.ToUpper(strings.ReplaceAll(environment, "-", "_"))
	return prefix + "_" + strings.ToUpper(key)
}
