package errors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fleetinit/fleetinit/internal/pkg/utils/errors"
)

func TestPrefixError(t *testing.T) {
	t.Parallel()

	original := errors.New("file not found")
	err := errors.PrefixError(original, `cannot open marker "foo"`)
	assert.Equal(t, `cannot open marker "foo": file not found`, err.Error())
	assert.True(t, errors.Is(err, original))
}

func TestPrefixErrorf(t *testing.T) {
	t.Parallel()

	original := errors.New("connection refused")
	err := errors.PrefixErrorf(original, `cannot reach "%s"`, "localhost:2379")
	assert.Equal(t, `cannot reach "localhost:2379": connection refused`, err.Error())
	assert.True(t, errors.Is(err, original))
}

func TestPrefixError_NilPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		_ = errors.PrefixError(nil, "prefix")
	})
}
