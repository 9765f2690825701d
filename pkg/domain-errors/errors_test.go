package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	base := errors.New("disk full")
	err := fmt.Errorf("persist: %w", Wrap(base, CodeUnavailable, "journal unavailable"))

	assert.True(t, HasCode(err, CodeUnavailable))
	assert.False(t, HasCode(err, CodeInternal))
	assert.ErrorIs(t, err, base)
	assert.True(t, Is(err))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeOf(New(CodeValidation, "query is required")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "forbidden: nope", New(CodeForbidden, "nope").Error())
	assert.Contains(t, Wrap(errors.New("boom"), CodeInternal, "failed").Error(), "boom")
}
