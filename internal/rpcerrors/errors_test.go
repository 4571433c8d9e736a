package rpcerrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cyphera/cyphera-permissions/internal/rpcerrors"
	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	rejected := rpcerrors.UserRejected()
	pending := rpcerrors.ResourceUnavailable("Request for origin %q already pending.", "https://a.com")
	malformed := rpcerrors.InvalidParams("bad origin")

	assert.ErrorIs(t, rejected, rpcerrors.ErrUserRejected)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", pending), rpcerrors.ErrResourceUnavailable)
	assert.ErrorIs(t, malformed, rpcerrors.ErrInvalidParams)

	assert.False(t, errors.Is(rejected, rpcerrors.ErrResourceUnavailable))
	assert.False(t, errors.Is(pending, rpcerrors.ErrInvalidParams))
	assert.False(t, errors.Is(malformed, rpcerrors.ErrUserRejected))
}

func TestFrom(t *testing.T) {
	plain := errors.New("boom")
	converted := rpcerrors.From(plain)
	assert.Equal(t, rpcerrors.CodeInternal, converted.Code)
	assert.Equal(t, "boom", converted.Data)

	original := rpcerrors.Unauthorized("not permitted")
	assert.Same(t, original, rpcerrors.From(fmt.Errorf("ctx: %w", original)))

	payload := original.Payload()
	assert.Equal(t, rpcerrors.CodeUnauthorized, payload.Code)
	assert.Equal(t, "not permitted", payload.Message)
}
