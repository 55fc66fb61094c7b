package shiver

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
	"github.com/Pflanzmann/SharkShiver/internal/metrics"
	"github.com/Pflanzmann/SharkShiver/internal/protocol/gka"
	"github.com/Pflanzmann/SharkShiver/internal/store"
)

// Option configures a Service.
type Option func(*Service)

// WithManualAcceptance parks every inbound up-flow message until
// AcceptPending is called for its group.
func WithManualAcceptance() Option {
	return func(s *Service) { s.manual = true }
}

// WithPendingStore sets where parked messages are kept. The default is in
// memory.
func WithPendingStore(ps domain.PendingStore) Option {
	return func(s *Service) { s.pending = ps }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Service) { s.log = l }
}

// WithMetrics counts protocol errors.
func WithMetrics(m *metrics.Engine) Option {
	return func(s *Service) { s.metrics = m }
}

// Service orchestrates one local peer's key agreements.
type Service struct {
	engine    *gka.Engine
	dir       domain.PeerDirectory
	groupKeys domain.GroupKeyStore
	pending   domain.PendingStore
	manual    bool
	log       *logrus.Entry
	metrics   *metrics.Engine
	now       func() time.Time
}

// New returns a Service driving engine. dir must be the directory the engine
// seals with; groupKeys must be the engine's group key store.
func New(engine *gka.Engine, dir domain.PeerDirectory, groupKeys domain.GroupKeyStore, opts ...Option) *Service {
	s := &Service{
		engine:    engine,
		dir:       dir,
		groupKeys: groupKeys,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.pending == nil {
		s.pending = store.NewMemoryPendingStore()
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}
	s.log = s.log.WithField("component", "shiver")
	return s
}

// Self returns the local peer.
func (s *Service) Self() domain.PeerID { return s.engine.Self() }

// StartKeyAgreement initiates an agreement with peers and returns its group
// ID. Completion is signalled through OnGroupKeyReady.
func (s *Service) StartKeyAgreement(ctx context.Context, peers []domain.PeerID) (domain.GroupID, error) {
	return s.engine.Start(ctx, peers)
}

// AcceptInbound handles one sealed credential message delivered on channel.
// It never returns an error: failures are reported to OnProtocolError
// listeners so that the caller's delivery loop can carry on with the next
// message.
func (s *Service) AcceptInbound(ctx context.Context, channel domain.Channel, raw []byte) {
	from, groupID, err := s.acceptInbound(ctx, channel, raw)
	if err == nil {
		return
	}
	perr := &domain.ProtocolError{Channel: channel, Peer: from, GroupID: groupID, Err: err}
	s.metrics.ProtocolError(channel)
	s.log.WithFields(logrus.Fields{
		"function": "AcceptInbound",
		"channel":  channel.String(),
		"peer":     from.String(),
		"group_id": groupID.String(),
	}).WithError(err).Warn("credential message rejected")
	s.engine.Listeners().ProtocolError(channel, from, perr)
}

func (s *Service) acceptInbound(ctx context.Context, channel domain.Channel, raw []byte) (domain.PeerID, domain.GroupID, error) {
	ch, err := domain.ParseChannel(channel.String())
	if err != nil {
		return "", "", err
	}
	plaintext, from, err := s.dir.Open(raw)
	if err != nil {
		return from, "", err
	}
	msg, err := gka.Unmarshal(plaintext)
	if err != nil {
		return from, "", err
	}
	groupID := msg.GroupID()

	switch ch {
	case domain.ChannelUpflow:
		if s.manual {
			return from, groupID, s.park(ctx, from, msg, plaintext)
		}
		s.engine.Listeners().GroupCredentials(groupID, msg.OrderedPeers())
		return from, groupID, s.engine.OnUpflow(ctx, from, msg)
	default:
		return from, groupID, s.engine.OnBroadcast(ctx, from, msg)
	}
}

// park keeps an up-flow for a group the local peer has not joined yet.
// Redelivered copies for a group already under way are dropped.
func (s *Service) park(ctx context.Context, from domain.PeerID, msg *gka.Message, plaintext []byte) error {
	log := s.log.WithFields(logrus.Fields{
		"function": "park",
		"group_id": msg.GroupID().String(),
		"peer":     from.String(),
	})
	st, err := s.engine.State(msg.GroupID())
	if err != nil {
		return err
	}
	switch st {
	case domain.StateNotStarted:
	case domain.StateInvalidated:
		return domain.ErrSessionInvalidated
	case domain.StateFailed:
		return fmt.Errorf("%w: session failed", domain.ErrUnexpectedMessage)
	case domain.StateBroadcasting:
		// Accepted before; the engine resends what it still owes.
		return s.engine.OnUpflow(ctx, from, msg)
	default:
		log.WithField("state", st.String()).Debug("duplicate up-flow not parked")
		return nil
	}
	err = s.pending.SavePending(domain.PendingMessage{
		GroupID:     msg.GroupID(),
		From:        from,
		Peers:       msg.OrderedPeers(),
		Message:     plaintext,
		ReceivedUTC: s.now().UTC().Unix(),
	})
	if err != nil {
		return err
	}
	log.Info("key agreement awaiting acceptance")
	s.engine.Listeners().GroupCredentials(msg.GroupID(), msg.OrderedPeers())
	return nil
}

// Pending lists parked agreements, oldest first.
func (s *Service) Pending() ([]domain.PendingMessage, error) {
	return s.pending.ListPending()
}

// AcceptPending resumes a parked agreement. Unlike AcceptInbound it reports
// failures to the caller.
func (s *Service) AcceptPending(ctx context.Context, groupID domain.GroupID) error {
	p, ok, err := s.pending.LoadPending(groupID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotPending
	}
	msg, err := gka.Unmarshal(p.Message)
	if err != nil {
		return err
	}
	if err := s.engine.OnUpflow(ctx, p.From, msg); err != nil {
		return err
	}
	return s.pending.DeletePending(groupID)
}

// RejectPending drops a parked agreement and invalidates its group so that
// later copies are rejected too.
func (s *Service) RejectPending(groupID domain.GroupID) error {
	if _, ok, err := s.pending.LoadPending(groupID); err != nil {
		return err
	} else if !ok {
		return domain.ErrNotPending
	}
	return s.Invalidate(groupID)
}

// HasKey reports whether a group key is stored for groupID.
func (s *Service) HasKey(groupID domain.GroupID) bool {
	_, ok, err := s.groupKeys.Get(groupID)
	if err != nil {
		s.log.WithFields(logrus.Fields{"function": "HasKey", "group_id": groupID.String()}).WithError(err).Warn("group key lookup failed")
	}
	return ok && err == nil
}

// State returns the local state of an agreement.
func (s *Service) State(groupID domain.GroupID) (domain.SessionState, error) {
	return s.engine.State(groupID)
}

// Invalidate deletes the key pair, group key and any parked message of
// groupID. Messages that arrive later for it are rejected.
func (s *Service) Invalidate(groupID domain.GroupID) error {
	var merr *multierror.Error
	if err := s.engine.Invalidate(groupID); err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := s.pending.DeletePending(groupID); err != nil {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}

// Encrypt seals plaintext under the group key of groupID.
func (s *Service) Encrypt(groupID domain.GroupID, plaintext []byte) ([]byte, error) {
	key, err := s.key(groupID)
	if err != nil {
		return nil, err
	}
	ct, err := crypto.SealGroupPayload(key, groupID, plaintext)
	if err != nil {
		return nil, &domain.EncryptionError{Err: err}
	}
	return ct, nil
}

// Decrypt opens a payload sealed by Encrypt. Payloads sealed under any other
// key fail with DecryptionError.
func (s *Service) Decrypt(groupID domain.GroupID, ciphertext []byte) ([]byte, error) {
	key, err := s.key(groupID)
	if err != nil {
		return nil, err
	}
	pt, err := crypto.OpenGroupPayload(key, groupID, ciphertext)
	if err != nil {
		return nil, &domain.DecryptionError{Err: err}
	}
	return pt, nil
}

func (s *Service) key(groupID domain.GroupID) (domain.GroupKey, error) {
	key, ok, err := s.groupKeys.Get(groupID)
	if err != nil {
		return domain.GroupKey{}, err
	}
	if !ok {
		return domain.GroupKey{}, domain.ErrNoGroupKey
	}
	return key, nil
}

// AddListener registers l for protocol events.
func (s *Service) AddListener(l domain.Listener) { s.engine.Listeners().Add(l) }

// RemoveListener unregisters l.
func (s *Service) RemoveListener(l domain.Listener) { s.engine.Listeners().Remove(l) }
