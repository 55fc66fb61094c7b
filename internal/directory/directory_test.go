package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
	"github.com/Pflanzmann/SharkShiver/internal/store"
)

func newIdentity(t *testing.T, peer domain.PeerID) domain.Identity {
	t.Helper()
	priv, pub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	return domain.Identity{PeerID: peer, XPub: pub, XPriv: priv}
}

func trustOf(t *testing.T, verified bool, ids ...domain.Identity) *store.MemoryTrustStore {
	t.Helper()
	ts := store.NewMemoryTrustStore()
	for _, id := range ids {
		require.NoError(t, ts.SavePeer(domain.PeerRecord{PeerID: id.PeerID, StaticKey: id.XPub, Verified: verified}))
	}
	return ts
}

func TestSealOpen_RoundTrip(t *testing.T) {
	alice, bob := newIdentity(t, "alice"), newIdentity(t, "bob")
	ad := New(alice, trustOf(t, true, bob), nil)
	bd := New(bob, trustOf(t, true, alice), nil)

	env, err := ad.Seal([]byte("hello"), "bob")
	require.NoError(t, err)
	assert.NotContains(t, string(env), "hello")

	pt, sender, err := bd.Open(env)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), pt)
	assert.Equal(t, domain.PeerID("alice"), sender)
}

func TestOpen_WrongRecipientFails(t *testing.T) {
	alice, bob, carol := newIdentity(t, "alice"), newIdentity(t, "bob"), newIdentity(t, "carol")
	ad := New(alice, trustOf(t, true, bob), nil)
	cd := New(carol, trustOf(t, true, alice), nil)

	env, err := ad.Seal([]byte("for bob"), "bob")
	require.NoError(t, err)
	_, _, err = cd.Open(env)
	assert.Error(t, err)
}

func TestOpen_UnknownSenderRejected(t *testing.T) {
	alice, bob, mallory := newIdentity(t, "alice"), newIdentity(t, "bob"), newIdentity(t, "mallory")
	md := New(mallory, trustOf(t, true, bob), nil)
	bd := New(bob, trustOf(t, true, alice), nil)

	env, err := md.Seal([]byte("hi"), "bob")
	require.NoError(t, err)
	_, _, err = bd.Open(env)
	assert.ErrorIs(t, err, ErrUnknownSender)
}

func TestOpen_UnverifiedSenderRejected(t *testing.T) {
	alice, bob := newIdentity(t, "alice"), newIdentity(t, "bob")
	ad := New(alice, trustOf(t, true, bob), nil)
	bd := New(bob, trustOf(t, false, alice), nil)

	env, err := ad.Seal([]byte("hi"), "bob")
	require.NoError(t, err)
	_, sender, err := bd.Open(env)
	var nv *domain.PeerNotVerifiedError
	require.ErrorAs(t, err, &nv)
	assert.Equal(t, domain.PeerID("alice"), nv.Peer)
	assert.Equal(t, domain.PeerID("alice"), sender)
}

func TestSeal_UnknownRecipient(t *testing.T) {
	d := New(newIdentity(t, "alice"), store.NewMemoryTrustStore(), nil)
	_, err := d.Seal([]byte("x"), "nobody")
	assert.ErrorIs(t, err, ErrUnknownPeer)
}

func TestIsVerified(t *testing.T) {
	bob, carol := newIdentity(t, "bob"), newIdentity(t, "carol")
	ts := trustOf(t, true, bob)
	require.NoError(t, ts.SavePeer(domain.PeerRecord{PeerID: "carol", StaticKey: carol.XPub}))
	d := New(newIdentity(t, "alice"), ts, nil)

	assert.True(t, d.IsVerified("bob"))
	assert.False(t, d.IsVerified("carol"))
	assert.False(t, d.IsVerified("dave"))
}
