package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Pflanzmann/SharkShiver/internal/directory"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
	"github.com/Pflanzmann/SharkShiver/internal/metrics"
	"github.com/Pflanzmann/SharkShiver/internal/relay"
	"github.com/Pflanzmann/SharkShiver/internal/services/identity"
	"github.com/Pflanzmann/SharkShiver/internal/services/inbox"
	"github.com/Pflanzmann/SharkShiver/internal/services/supervisor"
	"github.com/Pflanzmann/SharkShiver/internal/store"
)

// Wire bundles the stores and services that do not need the passphrase.
type Wire struct {
	Config   Config
	Log      *logrus.Entry
	Identity *identity.Service
	Trust    *store.TrustFileStore
	Sessions *store.SessionFileStore
	Pending  *store.PendingFileStore
}

// NewWire constructs the passphrase-independent part of the graph.
func NewWire(cfg Config) (*Wire, error) {
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}
	log := logrus.NewEntry(cfg.Logger())
	return &Wire{
		Config:   cfg,
		Log:      log,
		Identity: identity.New(store.NewIdentityFileStore(cfg.Home)),
		Trust:    store.NewTrustFileStore(cfg.Home),
		Sessions: store.NewSessionFileStore(cfg.Home),
		Pending:  store.NewPendingFileStore(cfg.Home),
	}, nil
}

// Peer is a running App connected to the relay.
type Peer struct {
	*App
	// Registry holds the engine collectors; ServeMetrics exposes it.
	Registry   *prometheus.Registry
	Relay      *relay.Client
	Inbox      *inbox.Service
	Supervisor *supervisor.Supervisor
}

// Open loads the identity with passphrase and assembles the peer.
func (w *Wire) Open(passphrase string) (*Peer, error) {
	id, err := w.Identity.LoadIdentity(passphrase)
	if err != nil {
		return nil, err
	}
	if w.Config.PeerID != "" && domain.PeerID(w.Config.PeerID) != id.PeerID {
		return nil, fmt.Errorf("config peer_id %q does not match identity %q", w.Config.PeerID, id.PeerID.String())
	}
	group, err := w.Config.Group()
	if err != nil {
		return nil, err
	}

	log := w.Log.WithField("peer", id.PeerID.String())
	reg := prometheus.NewRegistry()
	rc := relay.NewClient(w.Config.RelayURL, id.PeerID,
		relay.WithHTTPClient(w.Config.httpClient()),
		relay.WithRetries(w.Config.SendRetries, 200*time.Millisecond),
		relay.WithLogger(log),
	)

	a, err := New(Deps{
		Self:      id.PeerID,
		Group:     group,
		Directory: directory.New(id, w.Trust, log),
		Bus:       rc,
		KeyPairs:  store.NewKeyPairFileStore(w.Config.Home, passphrase, group),
		GroupKeys: store.NewGroupKeyFileStore(w.Config.Home, passphrase),
		Sessions:  w.Sessions,
		Pending:   w.Pending,
		Manual:    w.Config.ManualAccept,
		Metrics:   metrics.NewEngine(reg),
		Log:       log,
	})
	if err != nil {
		return nil, err
	}
	return &Peer{
		App:        a,
		Registry:   reg,
		Relay:      rc,
		Inbox:      inbox.New(id.PeerID, rc, a.Shiver, log),
		Supervisor: supervisor.New(a.Shiver, 30*time.Second, w.Config.SendRetries, log),
	}, nil
}

// ServeMetrics serves the peer's collectors on addr at /metrics until ctx is
// done.
func (p *Peer) ServeMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
