package bootstrap_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap"
	"github.com/fleetinit/fleetinit/internal/pkg/utils/errors"
)

func TestTimeoutError(t *testing.T) {
	t.Parallel()

	lastErr := errors.New("connection refused")
	err := bootstrap.TimeoutError{Op: "database wait", Timeout: 5 * time.Second, Elapsed: 5100 * time.Millisecond, Err: lastErr}
	assert.Equal(t, "database wait timed out after 5s: connection refused", err.Error())
	assert.True(t, errors.Is(err, lastErr))

	var target bootstrap.TimeoutError
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, "database wait", target.Op)

	// Last error is optional
	err = bootstrap.TimeoutError{Op: "readiness wait", Timeout: 5 * time.Second}
	assert.Equal(t, "readiness wait timed out after 5s", err.Error())
}

func TestInfrastructureError(t *testing.T) {
	t.Parallel()

	cause := errors.New("migrations failed")
	err := bootstrap.InfrastructureError{Err: cause}
	assert.Equal(t, "infrastructure init failed: migrations failed", err.Error())
	assert.True(t, errors.Is(err, cause))

	var target bootstrap.InfrastructureError
	assert.True(t, errors.As(err, &target))
}
