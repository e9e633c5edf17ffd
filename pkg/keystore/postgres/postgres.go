// Package postgres provides a PostgreSQL implementation of keystore.Store.
// Keys are stored as SHA-256 digests; subject, scopes, and extra claims live
// alongside, with claims kept as JSONB.
package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/specgate/specgate/pkg/keystore"
	"github.com/specgate/specgate/pkg/security"
)

// Store is a PostgreSQL-backed keystore.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ keystore.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Lookup resolves an API key by its digest.
func (s *Store) Lookup(ctx context.Context, key string) (security.TokenInfo, error) {
	var (
		subject    string
		scopes     []string
		claimsJSON []byte
	)

	err := s.pool.QueryRow(ctx,
		`SELECT subject, scopes, claims FROM api_keys WHERE key_hash = $1`,
		hashKey(key),
	).Scan(&subject, &scopes, &claimsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, keystore.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying api key: %w", err)
	}

	info := security.TokenInfo{}
	if len(claimsJSON) > 0 {
		if err := json.Unmarshal(claimsJSON, &info); err != nil {
			return nil, fmt.Errorf("unmarshaling claims: %w", err)
		}
	}
	info["sub"] = subject
	if len(scopes) > 0 {
		info["scope"] = scopes
	}

	return info, nil
}

// Put inserts or replaces an API key entry. A nil claims map stores an
// empty claims object.
func (s *Store) Put(ctx context.Context, key, subject string, scopes []string, claims map[string]any) error {
	if claims == nil {
		claims = map[string]any{}
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("marshaling claims: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO api_keys (key_hash, subject, scopes, claims)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key_hash) DO UPDATE
		 SET subject = EXCLUDED.subject, scopes = EXCLUDED.scopes, claims = EXCLUDED.claims`,
		hashKey(key), subject, scopes, claimsJSON,
	)
	if err != nil {
		return fmt.Errorf("storing api key: %w", err)
	}
	return nil
}

// Delete removes an API key entry. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM api_keys WHERE key_hash = $1`, hashKey(key))
	if err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}
	return nil
}

// hashKey returns the hex SHA-256 digest under which a key is stored.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
