package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	seed := bytes.Repeat([]byte{0xAB}, 64)

	first, err := DeriveKey(seed, DefaultPathPrefix+"/0'")
	require.NoError(t, err)
	again, err := DeriveKey(seed, DefaultPathPrefix+"/0'")
	require.NoError(t, err)
	second, err := DeriveKey(seed, DefaultPathPrefix+"/1'")
	require.NoError(t, err)

	require.True(t, first.PublicKey().Equals(again.PublicKey()))
	require.False(t, first.PublicKey().Equals(second.PublicKey()))

	sig, err := second.Sign([]byte("payload"))
	require.NoError(t, err)
	require.True(t, second.PublicKey().Verify([]byte("payload"), sig))
}

func TestDeriveKeyInvalidInput(t *testing.T) {
	_, err := DeriveKey([]byte{1, 2}, DefaultPathPrefix+"/0'")
	require.Error(t, err)

	_, err = DeriveKey(bytes.Repeat([]byte{1}, 32), "not a path")
	require.Error(t, err)
}
