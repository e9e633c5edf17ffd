// Command server runs the specgate gateway: it loads an OpenAPI document,
// registers its operations with their declared security schemes, and serves
// them over HTTP.
//
// Operations are answered with a JSON echo of the operation id and the
// authenticated identity; embedders replace the handler map with their own
// implementations via pkg/api.
//
// Configuration via flags and environment variables:
//
//	-config / SPECGATE_CONFIG  - path to the YAML config file
//	SPECGATE_SPEC              - path to the OpenAPI document
//	SPECGATE_PORT              - listen port (default: 8080)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/specgate/specgate/pkg/api"
	"github.com/specgate/specgate/pkg/config"
	"github.com/specgate/specgate/pkg/keystore"
	keymemory "github.com/specgate/specgate/pkg/keystore/memory"
	keypostgres "github.com/specgate/specgate/pkg/keystore/postgres"
	"github.com/specgate/specgate/pkg/observability"
	"github.com/specgate/specgate/pkg/security"
	"github.com/specgate/specgate/pkg/security/jwt"
	"github.com/specgate/specgate/pkg/spec"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	doc, err := spec.Load(cfg.Spec.Path)
	if err != nil {
		return fmt.Errorf("loading spec: %w", err)
	}

	observability.Register(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, cleanup, err := buildRegistry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building security registry: %w", err)
	}
	defer cleanup()

	handlers := make(map[string]http.Handler, len(doc.Operations))
	for _, op := range doc.Operations {
		handlers[op.ID] = echoHandler(op.ID)
	}

	router, err := api.NewRouter(doc, handlers, reg, api.RouterConfig{
		SpecPath:    cfg.Spec.ServePath,
		Metrics:     cfg.Observability.Metrics.Enabled,
		MetricsPath: cfg.Observability.Metrics.Path,
		Logger:      slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("registering routes: %w", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port, "spec", cfg.Spec.Path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// buildRegistry populates the verification function registry from the
// configured built-ins. The returned cleanup closes any backing stores.
func buildRegistry(ctx context.Context, cfg *config.Config) (*security.Registry, func(), error) {
	introspector := security.NewIntrospector(
		security.WithTimeout(cfg.Security.Introspection.Timeout),
		security.WithPoolSize(cfg.Security.Introspection.PoolSize),
	)
	reg := security.NewRegistry(introspector)
	cleanup := func() {}

	if cfg.Security.JWT.Enabled {
		verifier := jwt.New(jwt.Config{
			Issuer:   cfg.Security.JWT.Issuer,
			Audience: cfg.Security.JWT.Audience,
			JWKSURL:  cfg.Security.JWT.JWKSURL,
			CacheTTL: cfg.Security.JWT.CacheTTL,
		})
		reg.RegisterTokenInfo("jwt", verifier.TokenInfo)
		slog.Info("registered jwt token-info function", "jwks_url", cfg.Security.JWT.JWKSURL)
	}

	switch cfg.Security.APIKeys.Store {
	case "memory":
		entries := make([]keymemory.Entry, 0, len(cfg.Security.APIKeys.Keys))
		for _, k := range cfg.Security.APIKeys.Keys {
			entries = append(entries, keymemory.Entry{
				Key:     k.Key,
				Subject: k.Subject,
				Scopes:  k.Scopes,
			})
		}
		reg.RegisterAPIKeyInfo("keystore", keystore.InfoFunc(keymemory.New(entries)))
		slog.Info("registered memory keystore", "keys", len(entries))

	case "postgres":
		store, err := keypostgres.New(ctx, keypostgres.Config{
			DSN:            cfg.Security.APIKeys.Postgres.DSN,
			MaxConns:       cfg.Security.APIKeys.Postgres.MaxConns,
			MigrateOnStart: cfg.Security.APIKeys.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating postgres keystore: %w", err)
		}
		cleanup = store.Close
		reg.RegisterAPIKeyInfo("keystore", keystore.InfoFunc(store))
		slog.Info("registered postgres keystore")
	}

	return reg, cleanup, nil
}

// echoHandler answers an operation with its id and the authenticated
// identity from the request context.
func echoHandler(operationID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"operation": operationID,
		}
		if id := security.IdentityFromContext(r.Context()); id != nil {
			resp["user"] = id.User
			resp["token_info"] = id.TokenInfo
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})
}
