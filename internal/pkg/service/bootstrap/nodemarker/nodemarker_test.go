package nodemarker_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetinit/fleetinit/internal/pkg/log"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap/nodemarker"
)

func newStore(t *testing.T) *nodemarker.Store {
	t.Helper()
	cfg := nodemarker.NewConfig()
	cfg.Dir = filepath.Join(t.TempDir(), "markers")
	store, err := nodemarker.NewStore(log.NewNopLogger(), cfg)
	require.NoError(t, err)
	return store
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := nodemarker.NewConfig()
	cfg.Normalize()
	assert.NoError(t, cfg.Validate())

	cfg.Dir = ""
	assert.Error(t, cfg.Validate())
}

func TestStore_ExistsCreate(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	exists, err := store.Exists("deploy-42")
	require.NoError(t, err)
	assert.False(t, exists)

	// Create is idempotent, the parent directory is created too
	require.NoError(t, store.Create("deploy-42"))
	require.NoError(t, store.Create("deploy-42"))

	exists, err = store.Exists("deploy-42")
	require.NoError(t, err)
	assert.True(t, exists)

	// Markers are per run ID
	exists, err = store.Exists("deploy-43")
	require.NoError(t, err)
	assert.False(t, exists)

	// Content is a timestamp and an instance ID
	content, err := os.ReadFile(store.MarkerPath("deploy-42"))
	require.NoError(t, err)
	assert.NotEmpty(t, content)
}

func TestStore_WithLock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)

	bodyRan := false
	err := store.WithLock(ctx, "deploy-42", time.Second, func(ctx context.Context) error {
		bodyRan = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, bodyRan)
}

func TestStore_WithLock_ReleasedOnBodyError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)

	bodyErr := assert.AnError
	err := store.WithLock(ctx, "deploy-42", time.Second, func(ctx context.Context) error {
		return bodyErr
	})
	require.ErrorIs(t, err, bodyErr)

	// The lock was released, it can be acquired again
	err = store.WithLock(ctx, "deploy-42", time.Second, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestStore_WithLock_Timeout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)

	// Hold the lock file with a foreign flock
	require.NoError(t, os.MkdirAll(filepath.Dir(store.MarkerPath("deploy-42")), 0o750))
	foreign := flock.New(filepath.Join(filepath.Dir(store.MarkerPath("deploy-42")), "node-deploy-42.lock"))
	locked, err := foreign.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = foreign.Unlock() }()

	bodyRan := false
	start := time.Now()
	err = store.WithLock(ctx, "deploy-42", 300*time.Millisecond, func(ctx context.Context) error {
		bodyRan = true
		return nil
	})

	var timeoutErr bootstrap.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "node lock acquisition", timeoutErr.Op)
	assert.False(t, bodyRan)
	assert.Less(t, time.Since(start), 2*time.Second)
}
