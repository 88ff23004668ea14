package sharecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c, err := New("test-salt")
	require.NoError(t, err)

	code, err := c.Encode(12345)
	require.NoError(t, err)
	assert.Contains(t, code, "WELP-")

	id, err := c.Decode(code)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), id)
}

func TestDecode_AcceptsLowercaseAndWhitespace(t *testing.T) {
	c, err := New("test-salt")
	require.NoError(t, err)

	code, err := c.Encode(99)
	require.NoError(t, err)

	id, err := c.Decode("  " + code + " ")
	require.NoError(t, err)
	assert.Equal(t, int64(99), id)
}

func TestDecode_RejectsGarbage(t *testing.T) {
	c, err := New("test-salt")
	require.NoError(t, err)

	_, err = c.Decode("")
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = c.Decode("WELP-")
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = c.Decode("WELP-!!!!!!!!")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestDifferentSaltsProduceDifferentCodes(t *testing.T) {
	a, err := New("salt-a")
	require.NoError(t, err)
	b, err := New("salt-b")
	require.NoError(t, err)

	codeA, err := a.Encode(7)
	require.NoError(t, err)
	codeB, err := b.Encode(7)
	require.NoError(t, err)

	assert.NotEqual(t, codeA, codeB)
}
