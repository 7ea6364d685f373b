package distlock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetinit/fleetinit/internal/pkg/log"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap/distlock"
	"github.com/fleetinit/fleetinit/internal/pkg/utils/etcdhelper"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := distlock.NewConfig()
	cfg.Normalize()
	assert.NoError(t, cfg.Validate())

	cfg.Prefix = ""
	require.Error(t, cfg.Validate())

	cfg = distlock.NewConfig()
	cfg.TTLSeconds = 0
	assert.Error(t, cfg.Validate())
}

func TestProvider_WithLock(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := etcdhelper.ClientForTest(t)
	logger := log.NewNopLogger()

	p1, err := distlock.NewProvider(ctx, logger, client, distlock.NewConfig())
	require.NoError(t, err)
	defer func() { _ = p1.Close(ctx) }()

	p2, err := distlock.NewProvider(ctx, logger, client, distlock.NewConfig())
	require.NoError(t, err)
	defer func() { _ = p2.Close(ctx) }()

	// The lock is exclusive: while p1 holds it, p2 times out and its body never runs.
	holderReady := make(chan struct{})
	holderDone := make(chan struct{})
	release := make(chan struct{})
	go func() {
		defer close(holderDone)
		_ = p1.WithLock(ctx, "cluster-init", 5*time.Second, func(ctx context.Context) error {
			close(holderReady)
			<-release
			return nil
		})
	}()
	<-holderReady

	bodyRan := false
	err = p2.WithLock(ctx, "cluster-init", time.Second, func(ctx context.Context) error {
		bodyRan = true
		return nil
	})
	var timeoutErr bootstrap.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "lock acquisition", timeoutErr.Op)
	assert.False(t, bodyRan)

	close(release)
	<-holderDone

	// After the release, p2 can acquire the lock.
	err = p2.WithLock(ctx, "cluster-init", 5*time.Second, func(ctx context.Context) error {
		bodyRan = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, bodyRan)
}

func TestProvider_WithLock_ReleasedOnBodyError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := etcdhelper.ClientForTest(t)
	logger := log.NewNopLogger()

	p, err := distlock.NewProvider(ctx, logger, client, distlock.NewConfig())
	require.NoError(t, err)
	defer func() { _ = p.Close(ctx) }()

	// Body failure propagates, and the lock is released anyway.
	bodyErr := assert.AnError
	err = p.WithLock(ctx, "cluster-init", 5*time.Second, func(ctx context.Context) error {
		return bodyErr
	})
	require.ErrorIs(t, err, bodyErr)

	err = p.WithLock(ctx, "cluster-init", time.Second, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}
