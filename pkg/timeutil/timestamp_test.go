package timeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumeric(t *testing.T) {
	got, err := Parse(1700000000.5)
	require.NoError(t, err)
	assert.Equal(t, 1700000000.5, got)
}

func TestParseISOWithZ(t *testing.T) {
	got, err := Parse("2023-11-14T22:13:20.000Z")
	require.NoError(t, err)
	assert.InDelta(t, 1700000000.0, got, 0.001)
}

func TestParseISOWithoutZ(t *testing.T) {
	got, err := Parse("2023-11-14T22:13:20")
	require.NoError(t, err)
	assert.InDelta(t, 1700000000.0, got, 0.001)
}

func TestParseUnsupportedType(t *testing.T) {
	_, err := Parse([]int{1})
	assert.Error(t, err)
}

func TestFormatMillisecondPrecision(t *testing.T) {
	s := Format(1700000000.123)
	assert.Equal(t, "2023-11-14T22:13:20.123Z", s)
}

func TestCoerceLenientNeverFails(t *testing.T) {
	assert.Equal(t, "already-a-string", CoerceLenient("already-a-string"))
	assert.Equal(t, "2023-11-14T22:13:20.000Z", CoerceLenient(1700000000.0))
	assert.Equal(t, "", CoerceLenient(nil))
}
