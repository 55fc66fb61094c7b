package app

import (
	"github.com/sirupsen/logrus"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
	"github.com/Pflanzmann/SharkShiver/internal/metrics"
	"github.com/Pflanzmann/SharkShiver/internal/protocol/gka"
	"github.com/Pflanzmann/SharkShiver/internal/services/shiver"
)

// App is one running peer: the key agreement engine behind its facade, plus
// the pieces that move messages in and out.
type App struct {
	Self    domain.PeerID
	Engine  *gka.Engine
	Shiver  *shiver.Service
	Metrics *metrics.Engine
}

// Deps are the collaborators an App is assembled from.
type Deps struct {
	Self      domain.PeerID
	Group     crypto.Group
	Directory domain.PeerDirectory
	Bus       domain.MessageBus
	KeyPairs  domain.KeyPairStore
	GroupKeys domain.GroupKeyStore
	Sessions  domain.SessionStore
	Pending   domain.PendingStore
	Manual    bool
	Metrics   *metrics.Engine
	Log       *logrus.Entry
}

// New assembles an App from deps.
func New(deps Deps) (*App, error) {
	log := deps.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	engine, err := gka.NewEngine(gka.Config{
		Self:      deps.Self,
		Group:     deps.Group,
		Directory: deps.Directory,
		Bus:       deps.Bus,
		KeyPairs:  deps.KeyPairs,
		GroupKeys: deps.GroupKeys,
		Sessions:  deps.Sessions,
		Logger:    log,
		Metrics:   deps.Metrics,
	})
	if err != nil {
		return nil, err
	}

	opts := []shiver.Option{shiver.WithLogger(log), shiver.WithMetrics(deps.Metrics)}
	if deps.Pending != nil {
		opts = append(opts, shiver.WithPendingStore(deps.Pending))
	}
	if deps.Manual {
		opts = append(opts, shiver.WithManualAcceptance())
	}
	return &App{
		Self:    deps.Self,
		Engine:  engine,
		Shiver:  shiver.New(engine, deps.Directory, deps.GroupKeys, opts...),
		Metrics: deps.Metrics,
	}, nil
}
