package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/directory"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
	"github.com/Pflanzmann/SharkShiver/internal/metrics"
	"github.com/Pflanzmann/SharkShiver/internal/relay"
	"github.com/Pflanzmann/SharkShiver/internal/store"
)

// Cluster is a set of in-process peers that trust each other and share one
// MemoryBus. It backs the demo command.
type Cluster struct {
	Bus   *relay.MemoryBus
	Peers map[domain.PeerID]*App
	order []domain.PeerID
}

// NewCluster creates one App per peer with fresh identities. Every peer has
// every other peer's static key marked verified.
func NewCluster(group crypto.Group, m *metrics.Engine, log *logrus.Entry, peers ...domain.PeerID) (*Cluster, error) {
	if len(peers) < 2 {
		return nil, domain.ErrGroupSize
	}
	ids := make(map[domain.PeerID]domain.Identity, len(peers))
	for _, p := range peers {
		if _, dup := ids[p]; dup {
			return nil, fmt.Errorf("duplicate peer %q", p.String())
		}
		priv, pub, err := crypto.GenerateX25519()
		if err != nil {
			return nil, err
		}
		ids[p] = domain.Identity{PeerID: p, XPub: pub, XPriv: priv}
	}

	c := &Cluster{
		Bus:   relay.NewMemoryBus(""),
		Peers: make(map[domain.PeerID]*App, len(peers)),
		order: append([]domain.PeerID(nil), peers...),
	}
	for _, p := range peers {
		trust := store.NewMemoryTrustStore()
		for _, q := range peers {
			if q == p {
				continue
			}
			if err := trust.SavePeer(domain.PeerRecord{PeerID: q, StaticKey: ids[q].XPub, Verified: true}); err != nil {
				return nil, err
			}
		}
		plog := log.WithField("peer", p.String())
		a, err := New(Deps{
			Self:      p,
			Group:     group,
			Directory: directory.New(ids[p], trust, plog),
			Bus:       c.Bus.As(p),
			KeyPairs:  store.NewMemoryKeyPairStore(group),
			GroupKeys: store.NewMemoryGroupKeyStore(),
			Sessions:  store.NewMemorySessionStore(),
			Pending:   store.NewMemoryPendingStore(),
			Metrics:   m,
			Log:       plog,
		})
		if err != nil {
			return nil, err
		}
		c.Peers[p] = a
	}
	return c, nil
}

// Pump delivers queued envelopes until every queue is empty and returns the
// number delivered.
func (c *Cluster) Pump(ctx context.Context) int {
	total := 0
	for {
		n := 0
		for _, p := range c.order {
			a := c.Peers[p]
			n += c.Bus.Drain(ctx, p, func(env domain.Envelope) {
				a.Shiver.AcceptInbound(ctx, env.Channel, env.Payload)
			})
		}
		if n == 0 || ctx.Err() != nil {
			return total
		}
		total += n
	}
}
