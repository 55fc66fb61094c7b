package crypto_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
)

func groups(t *testing.T) []crypto.Group {
	t.Helper()
	modp, err := crypto.GroupByName(crypto.GroupMODP2048, nil)
	require.NoError(t, err)
	x, err := crypto.GroupByName(crypto.GroupX25519, nil)
	require.NoError(t, err)
	return []crypto.Group{modp, x}
}

func TestGroup_CombineCommutes(t *testing.T) {
	for _, g := range groups(t) {
		t.Run(g.Name(), func(t *testing.T) {
			a, err := g.GenerateKeyPair()
			require.NoError(t, err)
			b, err := g.GenerateKeyPair()
			require.NoError(t, err)
			c, err := g.GenerateKeyPair()
			require.NoError(t, err)

			// g^(ab) then c versus g^(cb) then a.
			ab, err := g.Combine(b.Private, a.Public)
			require.NoError(t, err)
			abc, err := g.Combine(c.Private, ab)
			require.NoError(t, err)

			cb, err := g.Combine(b.Private, c.Public)
			require.NoError(t, err)
			cba, err := g.Combine(a.Private, cb)
			require.NoError(t, err)

			assert.Equal(t, abc, cba)
		})
	}
}

func TestGroup_KeyPairsAreFresh(t *testing.T) {
	for _, g := range groups(t) {
		t.Run(g.Name(), func(t *testing.T) {
			a, err := g.GenerateKeyPair()
			require.NoError(t, err)
			b, err := g.GenerateKeyPair()
			require.NoError(t, err)
			assert.NotEqual(t, a.Private, b.Private)
			assert.NotEqual(t, a.Public, b.Public)
		})
	}
}

func TestMODP_RejectsOutOfRangeValues(t *testing.T) {
	g, err := crypto.GroupByName(crypto.GroupMODP2048, nil)
	require.NoError(t, err)
	kp, err := g.GenerateKeyPair()
	require.NoError(t, err)

	p := crypto.DefaultDHParameters().Prime
	size := (p.BitLen() + 7) / 8

	one := big.NewInt(1).FillBytes(make([]byte, size))
	_, err = g.Combine(kp.Private, one)
	assert.ErrorIs(t, err, crypto.ErrInvalidElement)

	pMinus1 := new(big.Int).Sub(p, big.NewInt(1)).FillBytes(make([]byte, size))
	_, err = g.Combine(kp.Private, pMinus1)
	assert.ErrorIs(t, err, crypto.ErrInvalidElement)

	_, err = g.Combine(kp.Private, []byte{1, 2, 3})
	assert.ErrorIs(t, err, crypto.ErrInvalidElement)
}

func TestX25519_RejectsLowOrderPoint(t *testing.T) {
	g := crypto.NewX25519Group()
	kp, err := g.GenerateKeyPair()
	require.NoError(t, err)

	_, err = g.Combine(kp.Private, make([]byte, 32))
	assert.ErrorIs(t, err, crypto.ErrInvalidElement)
}

func TestDHParameters_Validate(t *testing.T) {
	require.NoError(t, crypto.DefaultDHParameters().Validate())

	bad := crypto.DefaultDHParameters()
	bad.Generator = big.NewInt(1)
	assert.ErrorIs(t, bad.Validate(), crypto.ErrInvalidParameters)

	bad = crypto.DefaultDHParameters()
	bad.ExponentBits = 64
	assert.ErrorIs(t, bad.Validate(), crypto.ErrInvalidParameters)

	bad = crypto.DefaultDHParameters()
	bad.Prime = new(big.Int).Add(bad.Prime, big.NewInt(2))
	assert.ErrorIs(t, bad.Validate(), crypto.ErrInvalidParameters)
}

func TestParseDHParameters_RoundTripsDefault(t *testing.T) {
	def := crypto.DefaultDHParameters()
	parsed, err := crypto.ParseDHParameters(def.Prime.Text(16), "2", 2048)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(def))

	_, err = crypto.ParseDHParameters("zz", "2", 2048)
	assert.ErrorIs(t, err, crypto.ErrInvalidParameters)
}

func TestGroupByName(t *testing.T) {
	_, err := crypto.GroupByName("nope", nil)
	assert.Error(t, err)

	_, err = crypto.GroupByName(crypto.GroupCustom, nil)
	assert.ErrorIs(t, err, crypto.ErrInvalidParameters)

	params := crypto.DefaultDHParameters()
	g, err := crypto.GroupByName(crypto.GroupCustom, &params)
	require.NoError(t, err)
	assert.Equal(t, crypto.GroupCustom, g.Name())
}
