package shiver_test

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/directory"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
	"github.com/Pflanzmann/SharkShiver/internal/protocol/gka"
	"github.com/Pflanzmann/SharkShiver/internal/relay"
	"github.com/Pflanzmann/SharkShiver/internal/services/shiver"
	"github.com/Pflanzmann/SharkShiver/internal/store"
)

type recorder struct {
	mu          sync.Mutex
	credentials []domain.GroupID
	ready       []domain.GroupID
	errs        []error
}

func (r *recorder) OnGroupCredentials(g domain.GroupID, _ []domain.PeerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.credentials = append(r.credentials, g)
}

func (r *recorder) OnGroupKeyReady(g domain.GroupID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = append(r.ready, g)
}

func (r *recorder) OnProtocolError(_ domain.Channel, _ domain.PeerID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

type node struct {
	svc       *shiver.Service
	groupKeys *store.MemoryGroupKeyStore
	keyPairs  *store.MemoryKeyPairStore
	events    *recorder
}

type cluster struct {
	bus   *relay.MemoryBus
	nodes map[domain.PeerID]*node
	order []domain.PeerID
}

func quiet() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

// newCluster wires real Noise directories in which every peer verifies every
// other peer. Peers listed in manual park inbound agreements.
func newCluster(t *testing.T, ids []domain.PeerID, manual ...domain.PeerID) *cluster {
	t.Helper()
	c := &cluster{bus: relay.NewMemoryBus(""), nodes: map[domain.PeerID]*node{}, order: ids}

	identities := map[domain.PeerID]domain.Identity{}
	for _, id := range ids {
		priv, pub, err := crypto.GenerateX25519()
		require.NoError(t, err)
		identities[id] = domain.Identity{PeerID: id, XPub: pub, XPriv: priv}
	}

	group := crypto.NewX25519Group()
	for _, id := range ids {
		trust := store.NewMemoryTrustStore()
		for _, other := range ids {
			if other != id {
				require.NoError(t, trust.SavePeer(domain.PeerRecord{PeerID: other, StaticKey: identities[other].XPub, Verified: true}))
			}
		}
		dir := directory.New(identities[id], trust, quiet())
		n := &node{
			groupKeys: store.NewMemoryGroupKeyStore(),
			keyPairs:  store.NewMemoryKeyPairStore(group),
			events:    &recorder{},
		}
		engine, err := gka.NewEngine(gka.Config{
			Self:      id,
			Group:     group,
			Directory: dir,
			Bus:       c.bus.As(id),
			KeyPairs:  n.keyPairs,
			GroupKeys: n.groupKeys,
			Sessions:  store.NewMemorySessionStore(),
			Logger:    quiet(),
		})
		require.NoError(t, err)

		opts := []shiver.Option{shiver.WithLogger(quiet())}
		for _, m := range manual {
			if m == id {
				opts = append(opts, shiver.WithManualAcceptance())
			}
		}
		n.svc = shiver.New(engine, dir, n.groupKeys, opts...)
		n.svc.AddListener(n.events)
		c.nodes[id] = n
	}
	return c
}

func (c *cluster) run() {
	for moved := true; moved; {
		moved = false
		for _, id := range c.order {
			svc := c.nodes[id].svc
			n := c.bus.Drain(context.Background(), id, func(env domain.Envelope) {
				svc.AcceptInbound(context.Background(), env.Channel, env.Payload)
			})
			moved = moved || n > 0
		}
	}
}

func TestService_EndToEnd(t *testing.T) {
	ids := []domain.PeerID{"alice", "bob", "carol"}
	c := newCluster(t, ids)
	ctx := context.Background()

	g, err := c.nodes["alice"].svc.StartKeyAgreement(ctx, []domain.PeerID{"bob", "carol"})
	require.NoError(t, err)
	assert.False(t, c.nodes["alice"].svc.HasKey(g))

	c.run()
	for _, id := range ids {
		n := c.nodes[id]
		assert.True(t, n.svc.HasKey(g), id)
		assert.Empty(t, n.events.errs, id)
		assert.Equal(t, []domain.GroupID{g}, n.events.ready, id)
	}

	ct, err := c.nodes["alice"].svc.Encrypt(g, []byte("hello group"))
	require.NoError(t, err)
	for _, id := range []domain.PeerID{"bob", "carol"} {
		pt, err := c.nodes[id].svc.Decrypt(g, ct)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello group"), pt)
	}
}

func TestService_StartErrors(t *testing.T) {
	c := newCluster(t, []domain.PeerID{"alice", "bob"})
	_, err := c.nodes["alice"].svc.StartKeyAgreement(context.Background(), []domain.PeerID{"alice"})
	assert.ErrorIs(t, err, domain.ErrGroupSize)

	_, err = c.nodes["alice"].svc.StartKeyAgreement(context.Background(), []domain.PeerID{"bob", "mallory"})
	var nv *domain.PeerNotVerifiedError
	require.ErrorAs(t, err, &nv)
	assert.Equal(t, domain.PeerID("mallory"), nv.Peer)
}

func TestService_Invalidate(t *testing.T) {
	c := newCluster(t, []domain.PeerID{"alice", "bob"})
	alice := c.nodes["alice"]
	g, err := alice.svc.StartKeyAgreement(context.Background(), []domain.PeerID{"bob"})
	require.NoError(t, err)
	c.run()
	require.True(t, alice.svc.HasKey(g))

	ct, err := alice.svc.Encrypt(g, []byte("x"))
	require.NoError(t, err)

	require.NoError(t, alice.svc.Invalidate(g))
	assert.False(t, alice.svc.HasKey(g))
	assert.Equal(t, 0, alice.groupKeys.Len())
	assert.Equal(t, 0, alice.keyPairs.Len())

	_, err = alice.svc.Encrypt(g, []byte("x"))
	assert.ErrorIs(t, err, domain.ErrNoGroupKey)
	_, err = alice.svc.Decrypt(g, ct)
	assert.ErrorIs(t, err, domain.ErrNoGroupKey)

	st, err := alice.svc.State(g)
	require.NoError(t, err)
	assert.Equal(t, domain.StateInvalidated, st)
}

func TestService_DecryptWithMismatchedKey(t *testing.T) {
	c := newCluster(t, []domain.PeerID{"alice", "bob"})
	alice, bob := c.nodes["alice"], c.nodes["bob"]
	g, err := alice.svc.StartKeyAgreement(context.Background(), []domain.PeerID{"bob"})
	require.NoError(t, err)
	c.run()

	ct, err := alice.svc.Encrypt(g, []byte("secret"))
	require.NoError(t, err)

	// Bob holds an independently derived key for the same group ID.
	other, err := crypto.DeriveGroupKey([]byte("some other secret"), g)
	require.NoError(t, err)
	require.NoError(t, bob.groupKeys.Put(g, other))

	pt, err := bob.svc.Decrypt(g, ct)
	var de *domain.DecryptionError
	require.ErrorAs(t, err, &de)
	assert.Nil(t, pt)
}

func TestService_InboundErrorsGoToListeners(t *testing.T) {
	c := newCluster(t, []domain.PeerID{"alice", "bob"})
	bob := c.nodes["bob"]

	bob.svc.AcceptInbound(context.Background(), domain.ChannelUpflow, []byte("garbage"))
	bob.svc.AcceptInbound(context.Background(), domain.Channel("elsewhere"), []byte("x"))

	require.Len(t, bob.events.errs, 2)
	var pe *domain.ProtocolError
	require.ErrorAs(t, bob.events.errs[0], &pe)
	assert.Equal(t, domain.ChannelUpflow, pe.Channel)
	assert.ErrorIs(t, bob.events.errs[1], domain.ErrUnknownChannel)
}

func TestService_LateUpflowAfterInvalidate(t *testing.T) {
	c := newCluster(t, []domain.PeerID{"alice", "bob", "carol"})
	g, err := c.nodes["alice"].svc.StartKeyAgreement(context.Background(), []domain.PeerID{"bob", "carol"})
	require.NoError(t, err)

	bob := c.nodes["bob"]
	require.NoError(t, bob.svc.Invalidate(g))
	c.run()

	require.Len(t, bob.events.errs, 1)
	assert.ErrorIs(t, bob.events.errs[0], domain.ErrSessionInvalidated)
	assert.False(t, c.nodes["carol"].svc.HasKey(g))
	assert.Equal(t, 0, bob.keyPairs.Len())
}

func TestService_ManualAcceptance(t *testing.T) {
	c := newCluster(t, []domain.PeerID{"alice", "bob", "carol"}, "bob")
	ctx := context.Background()
	bob := c.nodes["bob"]

	g, err := c.nodes["alice"].svc.StartKeyAgreement(ctx, []domain.PeerID{"bob", "carol"})
	require.NoError(t, err)
	c.run()

	assert.Equal(t, []domain.GroupID{g}, bob.events.credentials)
	pending, err := bob.svc.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.PeerID("alice"), pending[0].From)
	assert.Equal(t, []domain.PeerID{"alice", "bob", "carol"}, pending[0].Peers)
	assert.False(t, c.nodes["carol"].svc.HasKey(g))

	require.NoError(t, bob.svc.AcceptPending(ctx, g))
	c.run()

	for _, id := range []domain.PeerID{"alice", "bob", "carol"} {
		assert.True(t, c.nodes[id].svc.HasKey(g), id)
	}
	pending, err = bob.svc.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.ErrorIs(t, bob.svc.AcceptPending(ctx, g), domain.ErrNotPending)
}

func TestService_ManualRedeliveryNotParkedAgain(t *testing.T) {
	c := newCluster(t, []domain.PeerID{"alice", "bob", "carol"}, "bob")
	ctx := context.Background()
	bob := c.nodes["bob"]

	g, err := c.nodes["alice"].svc.StartKeyAgreement(ctx, []domain.PeerID{"bob", "carol"})
	require.NoError(t, err)

	var upflow []domain.Envelope
	c.bus.Drain(ctx, "bob", func(env domain.Envelope) { upflow = append(upflow, env) })
	require.Len(t, upflow, 1)
	redeliver := func() { bob.svc.AcceptInbound(ctx, upflow[0].Channel, upflow[0].Payload) }

	redeliver()
	require.NoError(t, bob.svc.AcceptPending(ctx, g))

	// A copy arriving while bob waits for the broadcast.
	redeliver()
	pending, err := bob.svc.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	c.run()
	for _, id := range []domain.PeerID{"alice", "bob", "carol"} {
		assert.True(t, c.nodes[id].svc.HasKey(g), id)
	}

	// And one arriving after completion.
	redeliver()
	pending, err = bob.svc.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, []domain.GroupID{g}, bob.events.credentials)
	assert.Empty(t, bob.events.errs)
	assert.Equal(t, 0, c.bus.Pending("carol"))
}

func TestService_RejectPending(t *testing.T) {
	c := newCluster(t, []domain.PeerID{"alice", "bob"}, "bob")
	bob := c.nodes["bob"]

	g, err := c.nodes["alice"].svc.StartKeyAgreement(context.Background(), []domain.PeerID{"bob"})
	require.NoError(t, err)
	c.run()

	require.NoError(t, bob.svc.RejectPending(g))
	st, err := bob.svc.State(g)
	require.NoError(t, err)
	assert.Equal(t, domain.StateInvalidated, st)
	assert.ErrorIs(t, bob.svc.RejectPending(g), domain.ErrNotPending)
}

func TestService_RemoveListener(t *testing.T) {
	c := newCluster(t, []domain.PeerID{"alice", "bob"})
	bob := c.nodes["bob"]
	bob.svc.RemoveListener(bob.events)

	bob.svc.AcceptInbound(context.Background(), domain.ChannelBroadcast, []byte("garbage"))
	assert.Empty(t, bob.events.errs)
}
