package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/civicvoice/civicvoice_api/util/values"
	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    *Error
		status string
	}{
		{NotAuthenticated("no token"), values.NotAuthorised},
		{NotFound("no such office"), values.NotFound},
		{InvalidTransition("rejected is terminal"), values.Unprocessable},
		{InvalidState("review is rejected"), values.Unprocessable},
		{Conflict("contended target"), values.Conflict},
		{Validation("bad vote_type"), values.BadRequestBody},
		{Internal("boom", io.ErrUnexpectedEOF), values.Error},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.Status(), string(tc.err.Kind))
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("gone")))
	assert.Equal(t, KindInternal, KindOf(io.ErrUnexpectedEOF))

	// Kind survives fmt wrapping.
	wrapped := fmt.Errorf("lookup failed: %w", NotFound("gone"))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindConflict))
}

func TestUnwrap(t *testing.T) {
	err := Internal("read failed", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "read failed")
}

func TestAsStructured(t *testing.T) {
	assert.Nil(t, AsStructured(nil))

	original := Conflict("busy")
	assert.Same(t, original, AsStructured(original))

	converted := AsStructured(io.ErrUnexpectedEOF)
	assert.Equal(t, KindInternal, converted.Kind)
	assert.ErrorIs(t, converted, io.ErrUnexpectedEOF)
}
