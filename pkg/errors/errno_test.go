package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeCode(t *testing.T) {
	assert.Equal(t, 3010001, MakeCode(ServiceBot, CategoryNetwork, 1))
	assert.Equal(t, 1000, MakeCode(ServiceCommon, CategoryRequest, 0))
}

func TestWithCauseKeepsIdentity(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := fmt.Errorf("embed: %w", ErrProvider.WithCause(cause))

	assert.True(t, stderrors.Is(err, ErrProvider))
	assert.False(t, stderrors.Is(err, ErrIndexing))
	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "dial tcp: refused")
}

func TestWithMessageDoesNotMutateBase(t *testing.T) {
	custom := ErrInvalidArgument.WithMessagef("chunks=%d vectors=%d", 2, 3)
	assert.Equal(t, "chunks=2 vectors=3", custom.Message)
	assert.Equal(t, "Invalid argument", ErrInvalidArgument.Message)
	assert.Equal(t, http.StatusBadRequest, custom.HTTPStatus())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))
	assert.Equal(t, ErrUnauthorized.Code, FromError(ErrUnauthorized).Code)

	e := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, e.Code)
	assert.Equal(t, http.StatusInternalServerError, e.HTTPStatus())
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register(&Errno{Code: ErrProvider.Code, Message: "dup"})
	})
	got, ok := Lookup(ErrProvider.Code)
	assert.True(t, ok)
	assert.Equal(t, "Upstream provider error", got.Message)
}
