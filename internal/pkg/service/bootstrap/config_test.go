package bootstrap_test

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap"
)

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := bootstrap.NewConfig()
	assert.Equal(t, 300*time.Second, cfg.Timeout)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, "cluster-init", cfg.LockName)
	cfg.Normalize()
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := bootstrap.NewConfig()
	cfg.Timeout = 0
	require.Error(t, cfg.Validate())

	cfg = bootstrap.NewConfig()
	cfg.PollInterval = -time.Second
	require.Error(t, cfg.Validate())

	cfg = bootstrap.NewConfig()
	cfg.LockName = " / "
	cfg.Normalize()
	require.Error(t, cfg.Validate())
}

func TestConfig_Flags(t *testing.T) {
	t.Parallel()

	cfg := bootstrap.NewConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.Flags(fs)
	require.NoError(t, fs.Parse([]string{"--timeout", "30s", "--lock-name", "my-lock"}))
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "my-lock", cfg.LockName)
}
