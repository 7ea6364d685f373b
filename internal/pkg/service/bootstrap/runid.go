package bootstrap

import (
	"crypto/md5" //nolint:gosec
	"encoding/hex"

	"github.com/fleetinit/fleetinit/internal/pkg/env"
)

// RunIDEnv is the ENV variable with the externally supplied run ID.
const RunIDEnv = "FLEETINIT_RUN_ID"

// devRunIDPrefix marks a run ID derived from the working directory,
// a fallback for environments without an external deployment identifier.
const devRunIDPrefix = "dev-"

// ResolveRunID returns the externally supplied run ID, if present,
// otherwise it derives a stable identifier from the working directory path.
func ResolveRunID(envs env.Provider, workingDir string) string {
	if v := envs.Get(RunIDEnv); v != "" {
		return v
	}
	hash := md5.Sum([]byte(workingDir)) //nolint:gosec // fingerprint, not cryptography
	return devRunIDPrefix + hex.EncodeToString(hash[:])[:8]
}
