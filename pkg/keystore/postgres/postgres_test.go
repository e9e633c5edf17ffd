package postgres

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/specgate/specgate/pkg/keystore"
)

func init() {
	// Configure testcontainers to use podman.
	// Detect the podman socket from `podman machine inspect`.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if no container runtime is available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	if _, err := exec.LookPath("podman"); err != nil {
		t.Skip("podman not found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("specgate_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container (is podman running?): %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(store.Close)

	return store
}

func TestPostgres_PutAndLookup(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	err := store.Put(ctx, "k-alice", "alice", []string{"read", "write"}, map[string]any{"tenant": "acme"})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	info, err := store.Lookup(ctx, "k-alice")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if info.Subject() != "alice" {
		t.Errorf("subject = %q, want alice", info.Subject())
	}
	if scopes := info.Scopes(); !reflect.DeepEqual(scopes, []string{"read", "write"}) {
		t.Errorf("scopes = %v, want [read write]", scopes)
	}
	if info["tenant"] != "acme" {
		t.Errorf("tenant = %v, want acme", info["tenant"])
	}
}

func TestPostgres_LookupNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.Lookup(context.Background(), "k-nonexistent")
	if !errors.Is(err, keystore.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestPostgres_PutReplaces(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	store.Put(ctx, "k-rot", "old-subject", []string{"read"}, nil)
	if err := store.Put(ctx, "k-rot", "new-subject", []string{"admin"}, nil); err != nil {
		t.Fatalf("Put (replace) failed: %v", err)
	}

	info, err := store.Lookup(ctx, "k-rot")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if info.Subject() != "new-subject" {
		t.Errorf("subject = %q, want new-subject after replace", info.Subject())
	}
	if scopes := info.Scopes(); !reflect.DeepEqual(scopes, []string{"admin"}) {
		t.Errorf("scopes = %v, want [admin]", scopes)
	}
}

func TestPostgres_Delete(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	store.Put(ctx, "k-del", "alice", nil, nil)
	if err := store.Delete(ctx, "k-del"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Lookup(ctx, "k-del"); !errors.Is(err, keystore.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}

	// Deleting an absent key is not an error.
	if err := store.Delete(ctx, "k-del"); err != nil {
		t.Errorf("Delete of absent key failed: %v", err)
	}
}

func TestPostgres_InfoFunc(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	store.Put(ctx, "k-svc", "svc", []string{"read"}, nil)
	f := keystore.InfoFunc(store)

	info, err := f(ctx, "k-svc")
	if err != nil {
		t.Fatalf("InfoFunc: %v", err)
	}
	if info.Subject() != "svc" {
		t.Errorf("subject = %q, want svc", info.Subject())
	}

	info, err = f(ctx, "k-unknown")
	if err != nil || info != nil {
		t.Errorf("got %v/%v for an unknown key, want nil/nil", info, err)
	}
}
