package bootstrap_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fleetinit/fleetinit/internal/pkg/env"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap"
)

func TestResolveRunID_FromEnv(t *testing.T) {
	t.Parallel()

	envs := env.FromMap(map[string]string{"FLEETINIT_RUN_ID": "deploy-42"})
	assert.Equal(t, "deploy-42", bootstrap.ResolveRunID(envs, "/srv/app"))
}

func TestResolveRunID_Fallback(t *testing.T) {
	t.Parallel()

	envs := env.Empty()

	// Deterministic, derived from the working directory
	id1 := bootstrap.ResolveRunID(envs, "/srv/app")
	id2 := bootstrap.ResolveRunID(envs, "/srv/app")
	other := bootstrap.ResolveRunID(envs, "/srv/other")

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, other)
	assert.True(t, strings.HasPrefix(id1, "dev-"))
	assert.Len(t, id1, len("dev-")+8)
}
