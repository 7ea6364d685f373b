package readiness_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetinit/fleetinit/internal/pkg/log"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap/readiness"
	"github.com/fleetinit/fleetinit/internal/pkg/utils/etcdhelper"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := readiness.NewConfig()
	cfg.Normalize()
	assert.NoError(t, cfg.Validate())

	cfg.Prefix = " / "
	cfg.Normalize()
	require.Error(t, cfg.Validate())

	cfg = readiness.NewConfig()
	cfg.TTL = 0
	assert.Error(t, cfg.Validate())
}

func TestStore(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := etcdhelper.ClientForTest(t)
	store, err := readiness.NewStore(log.NewNopLogger(), client, readiness.NewConfig())
	require.NoError(t, err)

	// Not ready
	ready, err := store.IsReady(ctx, "deploy-42")
	require.NoError(t, err)
	assert.False(t, ready)

	// Set ready, idempotent
	require.NoError(t, store.SetReady(ctx, "deploy-42"))
	require.NoError(t, store.SetReady(ctx, "deploy-42"))
	ready, err = store.IsReady(ctx, "deploy-42")
	require.NoError(t, err)
	assert.True(t, ready)

	// Key is bound to a lease, so it expires eventually
	resp, err := client.Get(ctx, "runtime/ready/deploy-42")
	require.NoError(t, err)
	require.Len(t, resp.Kvs, 1)
	assert.NotZero(t, resp.Kvs[0].Lease)

	// Another run ID is independent
	ready, err = store.IsReady(ctx, "deploy-43")
	require.NoError(t, err)
	assert.False(t, ready)

	// Clear
	require.NoError(t, store.ClearReady(ctx, "deploy-42"))
	ready, err = store.IsReady(ctx, "deploy-42")
	require.NoError(t, err)
	assert.False(t, ready)
}
