// Package keystore defines the API key lookup contract shared by the
// memory and postgres implementations, and adapts a store into the
// verification function the security pipeline consumes.
package keystore

import (
	"context"
	"errors"

	"github.com/specgate/specgate/pkg/security"
)

// ErrKeyNotFound is returned by Lookup when no entry matches the key.
var ErrKeyNotFound = errors.New("api key not found")

// Store resolves an API key to the token info of its owner.
type Store interface {
	Lookup(ctx context.Context, key string) (security.TokenInfo, error)
}

// InfoFunc adapts a store into an x-apikeyInfoFunc implementation. An
// unknown key resolves to a nil token info, which the apiKey verifier
// rejects as an invalid key; other lookup failures propagate.
func InfoFunc(s Store) security.APIKeyInfoFunc {
	return func(ctx context.Context, key string) (security.TokenInfo, error) {
		info, err := s.Lookup(ctx, key)
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return info, nil
	}
}
