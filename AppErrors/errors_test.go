package AppErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfFollowsWrapping(t *testing.T) {
	base := NotFound("task %s not found", "t1")
	wrapped := fmt.Errorf("starting session: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(nil, KindNotFound))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestWrapKeepsDomainErrors(t *testing.T) {
	domain := Conflict("already tracking")
	assert.Same(t, domain, Wrap(domain, "ignored"))

	cause := errors.New("disk full")
	wrapped := Wrap(cause, "saving screenshot")
	require.Error(t, wrapped)
	assert.Equal(t, KindInternal, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestWithAddsData(t *testing.T) {
	err := Conflict("already tracking").With("activeTimeLog", "tl-1")
	assert.Equal(t, "tl-1", err.Data["activeTimeLog"])
	assert.Equal(t, "already tracking", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:      fiber.StatusBadRequest,
		KindConflict:        fiber.StatusBadRequest,
		KindNotFound:        fiber.StatusNotFound,
		KindForbidden:       fiber.StatusForbidden,
		KindUnauthenticated: fiber.StatusUnauthorized,
		KindInternal:        fiber.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(kind), kind.String())
	}
}
