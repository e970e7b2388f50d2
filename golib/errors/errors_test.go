package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClasses(t *testing.T) {
	err := Configf("tag %q is not a column", "genre")
	require.True(t, Is(err, ErrConfig))
	assert.False(t, Is(err, ErrRange))
	assert.Equal(t, `config error: tag "genre" is not a column`, err.Error())

	wrapped := Wrapf(Rangef("bin %d >= %d", 32, 32), "performance %s", "a.mid")
	assert.True(t, Is(wrapped, ErrRange))
	assert.True(t, Is(Validationf("unknown value"), ErrValidation))
}

func TestWrapf(t *testing.T) {
	assert.Nil(t, WrapfOrNil(nil, "context"))
	assert.EqualError(t, Wrapf(nil, "no cause %d", 1), "no cause 1")
	assert.EqualError(t, Wrapf(New("boom"), "while %s", "reading"), "while reading: boom")
}
