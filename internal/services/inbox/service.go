package inbox

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

// Acceptor consumes one sealed credential message. It must not fail; errors
// are reported through its own event listeners.
type Acceptor interface {
	AcceptInbound(ctx context.Context, channel domain.Channel, raw []byte)
}

// Service polls the relay mailbox of one peer.
type Service struct {
	self   domain.PeerID
	relay  domain.RelayClient
	accept Acceptor
	log    *logrus.Entry
}

// New returns an inbox for self.
func New(self domain.PeerID, relay domain.RelayClient, accept Acceptor, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		self:   self,
		relay:  relay,
		accept: accept,
		log:    log.WithField("component", "inbox"),
	}
}

// Poll fetches up to limit envelopes, hands each to the acceptor in order and
// acknowledges the processed count. A bad envelope is handled like any other:
// the acceptor reports it and the loop moves on. Envelopes addressed to a
// different peer are dropped.
func (s *Service) Poll(ctx context.Context, limit int) (int, error) {
	log := s.log.WithField("function", "Poll")

	envs, err := s.relay.FetchMessages(ctx, s.self, limit)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, env := range envs {
		if ctx.Err() != nil {
			break
		}
		if env.To != "" && env.To != s.self {
			log.WithField("to", env.To.String()).Warn("dropping envelope for another peer")
		} else {
			s.accept.AcceptInbound(ctx, env.Channel, env.Payload)
		}
		processed++
	}

	// Ack only what we processed. If zero, do nothing.
	if processed > 0 {
		if err := s.relay.AckMessages(context.WithoutCancel(ctx), s.self, processed); err != nil {
			return processed, err
		}
		log.WithField("count", processed).Debug("envelopes processed")
	}
	return processed, ctx.Err()
}

// Run polls every interval until ctx is done. Poll errors are logged and the
// loop continues.
func (s *Service) Run(ctx context.Context, interval time.Duration, limit int) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if _, err := s.Poll(ctx, limit); err != nil && ctx.Err() == nil {
			s.log.WithField("function", "Run").WithError(err).Warn("poll failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
