// Package memory provides an in-memory API key store that matches keys
// against SHA-256 hashes using constant-time comparison. Plaintext keys are
// not retained after construction.
package memory

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"

	"github.com/specgate/specgate/pkg/keystore"
	"github.com/specgate/specgate/pkg/security"
)

// Entry is the configuration format for one API key.
type Entry struct {
	// Key is the plaintext API key; it is hashed immediately.
	Key string

	// Subject becomes the "sub" claim of the resulting token info.
	Subject string

	// Scopes become the "scope" claim.
	Scopes []string

	// Claims are merged into the token info verbatim. Reserved keys set
	// above win over collisions here.
	Claims map[string]any
}

type keyEntry struct {
	hash [32]byte
	info security.TokenInfo
}

// Store is an in-memory keystore.Store.
type Store struct {
	keys []keyEntry
}

var _ keystore.Store = (*Store)(nil)

// New creates a store from the given entries.
func New(entries []Entry) *Store {
	s := &Store{}
	for _, e := range entries {
		info := make(security.TokenInfo, len(e.Claims)+2)
		for k, v := range e.Claims {
			info[k] = v
		}
		info["sub"] = e.Subject
		if len(e.Scopes) > 0 {
			info["scope"] = e.Scopes
		}
		s.keys = append(s.keys, keyEntry{
			hash: sha256.Sum256([]byte(e.Key)),
			info: info,
		})
	}
	return s
}

// Lookup hashes the key and compares it against every stored hash in
// constant time per entry.
func (s *Store) Lookup(_ context.Context, key string) (security.TokenInfo, error) {
	hash := sha256.Sum256([]byte(key))

	for _, entry := range s.keys {
		if subtle.ConstantTimeCompare(hash[:], entry.hash[:]) == 1 {
			// Copy so callers cannot mutate shared state.
			info := make(security.TokenInfo, len(entry.info))
			for k, v := range entry.info {
				info[k] = v
			}
			return info, nil
		}
	}

	return nil, keystore.ErrKeyNotFound
}
