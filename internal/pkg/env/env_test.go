package env_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetinit/fleetinit/internal/pkg/env"
)

func TestMap(t *testing.T) {
	t.Parallel()

	m := env.Empty()
	m.Set("foo", "bar")

	v, found := m.Lookup("FOO")
	assert.True(t, found)
	assert.Equal(t, "bar", v)
	assert.Equal(t, "bar", m.Get("Foo"))

	_, found = m.Lookup("missing")
	assert.False(t, found)
	assert.Equal(t, "", m.Get("missing"))

	m.Unset("FOO")
	_, found = m.Lookup("foo")
	assert.False(t, found)
}

func TestMap_ToSlice(t *testing.T) {
	t.Parallel()

	m := env.FromMap(map[string]string{"B": "2", "A": "1"})
	assert.Equal(t, []string{"A=1", "B=2"}, m.ToSlice())
	assert.Equal(t, []string{"A", "B"}, m.Keys())
}

func TestNamingConvention(t *testing.T) {
	t.Parallel()

	n := env.NewNamingConvention()
	assert.Equal(t, "FLEETINIT_ETCD_ENDPOINT", n.Replace("etcd-endpoint"))
	assert.Equal(t, "FLEETINIT_RUN_ID", n.Replace("run-id"))
	assert.Panics(t, func() {
		n.Replace("")
	})
}

func TestLoadDotEnv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FLEETINIT_RUN_ID=from-file\nFLEETINIT_MARKER_DIR=/data\n"), 0o600))

	osEnvs := env.FromMap(map[string]string{"FLEETINIT_RUN_ID": "from-os"})
	envs, err := env.LoadDotEnv(osEnvs, dir)
	require.NoError(t, err)

	// OS env takes precedence
	assert.Equal(t, "from-os", envs.Get("FLEETINIT_RUN_ID"))
	assert.Equal(t, "/data", envs.Get("FLEETINIT_MARKER_DIR"))
}

func TestLoadDotEnv_MissingFiles(t *testing.T) {
	t.Parallel()

	envs, err := env.LoadDotEnv(env.Empty(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, envs.Keys())
}
