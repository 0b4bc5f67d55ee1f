package catalogerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(Conflict, "sku taken").WithReason(ReasonDuplicateSku)
	assert.Equal(t, Conflict, KindOf(err))
	assert.Equal(t, ReasonDuplicateSku, ReasonOf(err))

	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.Equal(t, Reason(""), ReasonOf(errors.New("boom")))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(New(StoreUnavailable, "timeout")))
	assert.False(t, IsTransient(New(Validation, "bad input")))
}

func TestErrorIsMatchesKindAndReason(t *testing.T) {
	err := New(Conflict, "x").WithReason(ReasonDuplicateBadge)
	assert.True(t, errors.Is(err, New(Conflict, "")))
	assert.True(t, errors.Is(err, New(Conflict, "").WithReason(ReasonDuplicateBadge)))
	assert.False(t, errors.Is(err, New(Conflict, "").WithReason(ReasonAlreadyActive)))
	assert.False(t, errors.Is(err, New(NotFound, "")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(StoreUnavailable, cause, "store down")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, StoreUnavailable, KindOf(err))
}
