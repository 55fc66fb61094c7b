package gka

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
	"github.com/Pflanzmann/SharkShiver/internal/relay"
	"github.com/Pflanzmann/SharkShiver/internal/store"
)

// fakeDirectory frames payloads as "sender\x00payload" and trusts a fixed set
// of peers.
type fakeDirectory struct {
	self domain.PeerID

	mu       sync.Mutex
	verified map[domain.PeerID]bool
}

func (d *fakeDirectory) IsVerified(p domain.PeerID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.verified[p]
}

func (d *fakeDirectory) setVerified(p domain.PeerID, v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.verified[p] = v
}

func (d *fakeDirectory) Seal(pt []byte, _ domain.PeerID) ([]byte, error) {
	return append([]byte(d.self.String()+"\x00"), pt...), nil
}

func (d *fakeDirectory) Open(env []byte) ([]byte, domain.PeerID, error) {
	i := bytes.IndexByte(env, 0)
	if i < 0 {
		return nil, "", errors.New("bad frame")
	}
	return env[i+1:], domain.PeerID(env[:i]), nil
}

// flakyBus fails the next sends to selected recipients.
type flakyBus struct {
	domain.MessageBus

	mu    sync.Mutex
	fails map[domain.PeerID]int
}

var errFlakySend = errors.New("transient send failure")

func (b *flakyBus) failNext(to domain.PeerID, times int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fails[to] += times
}

func (b *flakyBus) Send(ctx context.Context, ch domain.Channel, to domain.PeerID, payload []byte) error {
	b.mu.Lock()
	if b.fails[to] > 0 {
		b.fails[to]--
		b.mu.Unlock()
		return errFlakySend
	}
	b.mu.Unlock()
	return b.MessageBus.Send(ctx, ch, to, payload)
}

type testPeer struct {
	id        domain.PeerID
	engine    *Engine
	bus       *flakyBus
	dir       *fakeDirectory
	keyPairs  *store.MemoryKeyPairStore
	groupKeys *store.MemoryGroupKeyStore
	sessions  *store.MemorySessionStore
	ready     []domain.GroupID
}

type network struct {
	t     *testing.T
	bus   *relay.MemoryBus
	peers map[domain.PeerID]*testPeer
	order []domain.PeerID
	errs  map[domain.PeerID][]error
}

func defaultMODP(t *testing.T) crypto.Group {
	t.Helper()
	g, err := crypto.GroupByName(crypto.GroupMODP2048, nil)
	require.NoError(t, err)
	return g
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func newNetwork(t *testing.T, group crypto.Group, ids ...domain.PeerID) *network {
	t.Helper()
	n := &network{
		t:     t,
		bus:   relay.NewMemoryBus(""),
		peers: make(map[domain.PeerID]*testPeer),
		order: ids,
		errs:  make(map[domain.PeerID][]error),
	}
	for _, id := range ids {
		dir := &fakeDirectory{self: id, verified: make(map[domain.PeerID]bool)}
		for _, other := range ids {
			if other != id {
				dir.verified[other] = true
			}
		}
		p := &testPeer{
			id:        id,
			bus:       &flakyBus{MessageBus: n.bus.As(id), fails: make(map[domain.PeerID]int)},
			dir:       dir,
			keyPairs:  store.NewMemoryKeyPairStore(group),
			groupKeys: store.NewMemoryGroupKeyStore(),
			sessions:  store.NewMemorySessionStore(),
		}
		e, err := NewEngine(Config{
			Self:      id,
			Group:     group,
			Directory: dir,
			Bus:       p.bus,
			KeyPairs:  p.keyPairs,
			GroupKeys: p.groupKeys,
			Sessions:  p.sessions,
			Logger:    quietLogger(),
		})
		require.NoError(t, err)
		e.Listeners().Add(&ListenerFuncs{KeyReady: func(g domain.GroupID) { p.ready = append(p.ready, g) }})
		p.engine = e
		n.peers[id] = p
	}
	return n
}

// deliver hands one envelope to its recipient the way a transport would.
func (n *network) deliver(env domain.Envelope) error {
	p, ok := n.peers[env.To]
	if !ok {
		return fmt.Errorf("no peer %q", env.To)
	}
	raw, from, err := p.dir.Open(env.Payload)
	if err != nil {
		return err
	}
	msg, err := Unmarshal(raw)
	if err != nil {
		return err
	}
	switch env.Channel {
	case domain.ChannelUpflow:
		return p.engine.OnUpflow(context.Background(), from, msg)
	case domain.ChannelBroadcast:
		return p.engine.OnBroadcast(context.Background(), from, msg)
	}
	return domain.ErrUnknownChannel
}

// run delivers queued envelopes until every queue is empty.
func (n *network) run() {
	for moved := true; moved; {
		moved = false
		for _, id := range n.order {
			c := n.bus.Drain(context.Background(), id, func(env domain.Envelope) {
				if err := n.deliver(env); err != nil {
					n.errs[id] = append(n.errs[id], err)
				}
			})
			moved = moved || c > 0
		}
	}
}

// take removes and returns everything queued for peer.
func (n *network) take(peer domain.PeerID) []domain.Envelope {
	var out []domain.Envelope
	n.bus.Drain(context.Background(), peer, func(env domain.Envelope) { out = append(out, env) })
	return out
}

func (n *network) key(peer domain.PeerID, g domain.GroupID) (domain.GroupKey, bool) {
	k, ok, err := n.peers[peer].groupKeys.Get(g)
	require.NoError(n.t, err)
	return k, ok
}
