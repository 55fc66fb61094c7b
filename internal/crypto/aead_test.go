package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	domaintypes "github.com/Pflanzmann/SharkShiver/internal/domain/types"
)

func TestGroupPayload_RoundTrip(t *testing.T) {
	key, err := crypto.DeriveGroupKey([]byte("raw secret"), "g1")
	require.NoError(t, err)

	ct, err := crypto.SealGroupPayload(key, "g1", []byte("hello group"))
	require.NoError(t, err)

	pt, err := crypto.OpenGroupPayload(key, "g1", ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello group"), pt)
}

func TestGroupPayload_WrongKeyFails(t *testing.T) {
	key, err := crypto.DeriveGroupKey([]byte("secret one"), "g1")
	require.NoError(t, err)
	other, err := crypto.DeriveGroupKey([]byte("secret two"), "g1")
	require.NoError(t, err)

	ct, err := crypto.SealGroupPayload(key, "g1", []byte("hello"))
	require.NoError(t, err)

	_, err = crypto.OpenGroupPayload(other, "g1", ct)
	assert.Error(t, err)
}

func TestGroupPayload_GroupIDIsBound(t *testing.T) {
	var key domaintypes.GroupKey
	key[0] = 7

	ct, err := crypto.SealGroupPayload(key, "g1", []byte("hello"))
	require.NoError(t, err)

	_, err = crypto.OpenGroupPayload(key, "g2", ct)
	assert.Error(t, err)

	_, err = crypto.OpenGroupPayload(key, "g1", ct[:10])
	assert.ErrorIs(t, err, crypto.ErrCiphertextTooShort)
}

func TestDeriveGroupKey_SaltedByGroup(t *testing.T) {
	a, err := crypto.DeriveGroupKey([]byte("same secret"), "g1")
	require.NoError(t, err)
	b, err := crypto.DeriveGroupKey([]byte("same secret"), "g2")
	require.NoError(t, err)
	c, err := crypto.DeriveGroupKey([]byte("same secret"), "g1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)
}
