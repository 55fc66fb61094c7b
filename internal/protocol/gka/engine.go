package gka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
	"github.com/Pflanzmann/SharkShiver/internal/metrics"
)

// Config holds the collaborators of an Engine.
type Config struct {
	// Self is the local peer.
	Self domain.PeerID
	// Group is the DH group shared by every participant.
	Group crypto.Group

	Directory domain.PeerDirectory
	Bus       domain.MessageBus
	KeyPairs  domain.KeyPairStore
	GroupKeys domain.GroupKeyStore
	Sessions  domain.SessionStore

	// Logger defaults to the standard logrus logger.
	Logger *logrus.Entry
	// Metrics may be nil.
	Metrics *metrics.Engine

	// NewGroupID and Now are overridable for tests.
	NewGroupID func() domain.GroupID
	Now        func() time.Time
}

// Engine runs the key agreement state machine for one local peer.
//
// Inbound messages for the same group are handled one at a time; messages for
// different groups may be handled concurrently.
type Engine struct {
	self      domain.PeerID
	group     crypto.Group
	dir       domain.PeerDirectory
	bus       domain.MessageBus
	keyPairs  domain.KeyPairStore
	groupKeys domain.GroupKeyStore
	sessions  domain.SessionStore
	log       *logrus.Entry
	metrics   *metrics.Engine
	newID     func() domain.GroupID
	now       func() time.Time

	locks     *sessionLocks
	listeners *Listeners
}

// NewEngine validates cfg and returns an engine.
func NewEngine(cfg Config) (*Engine, error) {
	switch {
	case cfg.Self == "":
		return nil, errors.New("gka: local peer id is required")
	case cfg.Group == nil:
		return nil, errors.New("gka: dh group is required")
	case cfg.Directory == nil:
		return nil, errors.New("gka: peer directory is required")
	case cfg.Bus == nil:
		return nil, errors.New("gka: message bus is required")
	case cfg.KeyPairs == nil, cfg.GroupKeys == nil, cfg.Sessions == nil:
		return nil, errors.New("gka: key pair, group key and session stores are required")
	}

	e := &Engine{
		self:      cfg.Self,
		group:     cfg.Group,
		dir:       cfg.Directory,
		bus:       cfg.Bus,
		keyPairs:  cfg.KeyPairs,
		groupKeys: cfg.GroupKeys,
		sessions:  cfg.Sessions,
		log:       cfg.Logger,
		metrics:   cfg.Metrics,
		newID:     cfg.NewGroupID,
		now:       cfg.Now,
		locks:     newSessionLocks(),
		listeners: &Listeners{},
	}
	if e.log == nil {
		e.log = logrus.NewEntry(logrus.StandardLogger())
	}
	e.log = e.log.WithFields(logrus.Fields{"component": "gka", "peer": cfg.Self.String()})
	if e.newID == nil {
		e.newID = func() domain.GroupID { return domain.GroupID(uuid.NewString()) }
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// Self returns the local peer.
func (e *Engine) Self() domain.PeerID { return e.self }

// Listeners returns the observer list events are delivered to.
func (e *Engine) Listeners() *Listeners { return e.listeners }

// Start initiates a key agreement with participants and returns the new
// group ID once the first up-flow message has been handed to the bus.
//
// Steps:
//  1. Put the local peer first and drop duplicates.
//  2. Require every other participant to be verified.
//  3. Create the local key pair for a fresh group ID.
//  4. Seed every other participant's entry with the local public value.
//  5. Send the message to the second peer on the up-flow channel.
func (e *Engine) Start(ctx context.Context, participants []domain.PeerID) (domain.GroupID, error) {
	ordered := orderPeers(e.self, participants)
	if len(ordered) < 2 {
		return "", domain.ErrGroupSize
	}
	for _, p := range ordered[1:] {
		if !e.dir.IsVerified(p) {
			return "", &domain.PeerNotVerifiedError{Peer: p}
		}
	}

	groupID := e.newID()
	log := e.log.WithFields(logrus.Fields{"function": "Start", "group_id": groupID.String()})
	unlock := e.locks.lock(groupID)
	defer unlock()

	kp, err := e.keyPairs.GetOrCreate(groupID)
	if err != nil {
		return "", &domain.DHKeyGenerationError{Err: err}
	}

	keys := make(map[domain.PeerID][]byte, len(ordered)-1)
	for _, p := range ordered[1:] {
		keys[p] = kp.Public
	}
	msg, err := NewMessage(groupID, ordered, keys)
	if err != nil {
		return "", err
	}

	if err := e.send(ctx, domain.ChannelUpflow, ordered[1], msg); err != nil {
		// Nothing left the process, so the session never existed.
		_ = e.keyPairs.Delete(groupID)
		return "", err
	}
	if err := e.save(groupID, ordered, domain.RoleInitiator, domain.StateAwaitingNextHop); err != nil {
		return "", err
	}
	e.metrics.SessionStarted()
	log.WithFields(logrus.Fields{
		"peers":    len(ordered),
		"next_hop": ordered[1].String(),
	}).Info("key agreement started")
	return groupID, nil
}

// OnUpflow handles an up-flow message. from is the envelope sender, or empty
// when the transport could not attribute it.
//
// The last peer stays in StateBroadcasting until every broadcast copy was
// sent; a redelivered up-flow in that state sends the copies again.
func (e *Engine) OnUpflow(ctx context.Context, from domain.PeerID, in *Message) error {
	groupID := in.GroupID()
	log := e.log.WithFields(logrus.Fields{"function": "OnUpflow", "group_id": groupID.String()})

	peers := in.OrderedPeers()
	idx := in.IndexOf(e.self)
	switch {
	case idx < 0:
		return domain.ErrNotParticipant
	case idx == 0:
		return fmt.Errorf("%w: up-flow addressed to the initiator", domain.ErrUnexpectedMessage)
	case from != "" && from != peers[idx-1]:
		return fmt.Errorf("%w: got %q, want %q", domain.ErrUnexpectedSender, from.String(), peers[idx-1].String())
	}

	unlock := e.locks.lock(groupID)
	defer unlock()

	state, err := e.fence(groupID)
	if err != nil {
		return err
	}
	isLast := idx == len(peers)-1
	resend := isLast && state == domain.StateBroadcasting
	if state != domain.StateNotStarted && !resend {
		log.WithField("state", state.String()).Debug("duplicate up-flow ignored")
		return nil
	}

	role := domain.RoleIntermediate
	if isLast {
		role = domain.RoleLast
	} else if next := peers[idx+1]; !e.dir.IsVerified(next) {
		return &domain.PeerNotVerifiedError{Peer: next}
	}

	kp, err := e.keyPairs.GetOrCreate(groupID)
	if err != nil {
		return e.fail(groupID, peers, role, &domain.DHKeyGenerationError{Err: err})
	}

	msg := in.Clone()
	var secret []byte
	if isLast && !resend {
		acc, ok := msg.Key(e.self)
		if !ok {
			return domain.ErrMissingContribution
		}
		if secret, err = e.group.Combine(kp.Private, acc); err != nil {
			return e.fail(groupID, peers, role, &domain.DHKeyGenerationError{Err: err})
		}
		defer crypto.Wipe(secret)
	}

	// Raise every carried value to the local exponent. A peer without an
	// entry yet gets the local public value, which later hops build on.
	for _, p := range peers {
		if p == e.self {
			continue
		}
		v, ok := msg.Key(p)
		if !ok {
			msg.PutKey(p, kp.Public)
			continue
		}
		c, err := e.group.Combine(kp.Private, v)
		if err != nil {
			return e.fail(groupID, peers, role, &domain.DHKeyGenerationError{Err: err})
		}
		msg.PutKey(p, c)
	}

	if !isLast {
		next := peers[idx+1]
		if err := e.send(ctx, domain.ChannelUpflow, next, msg); err != nil {
			return err
		}
		log.WithField("next_hop", next.String()).Debug("up-flow forwarded")
		return e.save(groupID, peers, role, domain.StateAwaitingNextHop)
	}

	if resend {
		log.Info("resending broadcast copies")
	} else if err := e.complete(groupID, peers, role, secret, domain.StateBroadcasting); err != nil {
		return err
	}
	if err := e.broadcast(ctx, msg); err != nil {
		log.WithError(err).Warn("broadcast fan-out incomplete")
		return err
	}
	log.WithField("recipients", len(peers)-1).Debug("broadcast sent")
	return e.save(groupID, peers, role, domain.StateComplete)
}

// broadcast strips the local entry from msg and sends every other participant
// a copy carrying only its own entry. Recipients that already finalized
// ignore a repeated copy.
func (e *Engine) broadcast(ctx context.Context, msg *Message) error {
	msg.DeleteKey(e.self)
	peers := msg.OrderedPeers()
	var merr *multierror.Error
	for _, p := range peers {
		if p == e.self {
			continue
		}
		v, ok := msg.Key(p)
		if !ok {
			merr = multierror.Append(merr, fmt.Errorf("%w: no value for %q", domain.ErrMissingContribution, p.String()))
			continue
		}
		out, err := NewMessage(msg.GroupID(), peers, map[domain.PeerID][]byte{p: v})
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		if err := e.send(ctx, domain.ChannelBroadcast, p, out); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("broadcast to %q: %w", p.String(), err))
		}
	}
	return merr.ErrorOrNil()
}

// OnBroadcast handles the broadcast copy sent by the last peer. The local
// key pair must already exist; a broadcast never creates one.
func (e *Engine) OnBroadcast(_ context.Context, from domain.PeerID, in *Message) error {
	groupID := in.GroupID()
	log := e.log.WithFields(logrus.Fields{"function": "OnBroadcast", "group_id": groupID.String()})

	peers := in.OrderedPeers()
	idx := in.IndexOf(e.self)
	switch {
	case idx < 0:
		return domain.ErrNotParticipant
	case idx == len(peers)-1:
		return fmt.Errorf("%w: broadcast addressed to the last peer", domain.ErrUnexpectedMessage)
	case from != "" && from != in.Last():
		return fmt.Errorf("%w: got %q, want %q", domain.ErrUnexpectedSender, from.String(), in.Last().String())
	}
	role := domain.RoleIntermediate
	if idx == 0 {
		role = domain.RoleInitiator
	}

	unlock := e.locks.lock(groupID)
	defer unlock()

	state, err := e.fence(groupID)
	if err != nil {
		return err
	}
	if state == domain.StateComplete {
		log.Debug("duplicate broadcast ignored")
		return nil
	}

	kp, ok, err := e.keyPairs.Get(groupID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUnknownSession
	}
	acc, ok := in.Key(e.self)
	if !ok {
		return domain.ErrMissingContribution
	}

	if err := e.save(groupID, peers, role, domain.StateFinalizing); err != nil {
		return err
	}
	secret, err := e.group.Combine(kp.Private, acc)
	if err != nil {
		return e.fail(groupID, peers, role, &domain.DHKeyGenerationError{Err: err})
	}
	defer crypto.Wipe(secret)
	return e.complete(groupID, peers, role, secret, domain.StateComplete)
}

// State returns the local state of a session. Unknown sessions are
// StateNotStarted.
func (e *Engine) State(groupID domain.GroupID) (domain.SessionState, error) {
	rec, ok, err := e.sessions.LoadSession(groupID)
	if err != nil || !ok {
		return domain.StateNotStarted, err
	}
	return rec.State, nil
}

// Invalidate deletes the key pair and group key of a session and leaves a
// tombstone so that late messages for it are rejected.
func (e *Engine) Invalidate(groupID domain.GroupID) error {
	unlock := e.locks.lock(groupID)
	defer unlock()

	var merr *multierror.Error
	if err := e.keyPairs.Delete(groupID); err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := e.groupKeys.Delete(groupID); err != nil {
		merr = multierror.Append(merr, err)
	}
	rec, ok, err := e.sessions.LoadSession(groupID)
	if err != nil {
		merr = multierror.Append(merr, err)
	}
	if !ok {
		rec = domain.SessionRecord{GroupID: groupID}
	}
	rec.State = domain.StateInvalidated
	rec.UpdatedUTC = e.now().UTC().Unix()
	if err := e.sessions.SaveSession(rec); err != nil {
		merr = multierror.Append(merr, err)
	}
	e.log.WithFields(logrus.Fields{"function": "Invalidate", "group_id": groupID.String()}).Info("session invalidated")
	return merr.ErrorOrNil()
}

// fence returns the stored state of groupID. Invalidated sessions fail with
// ErrSessionInvalidated and failed sessions with ErrUnexpectedMessage.
func (e *Engine) fence(groupID domain.GroupID) (domain.SessionState, error) {
	rec, ok, err := e.sessions.LoadSession(groupID)
	if err != nil || !ok {
		return domain.StateNotStarted, err
	}
	switch rec.State {
	case domain.StateInvalidated:
		return rec.State, domain.ErrSessionInvalidated
	case domain.StateFailed:
		return rec.State, fmt.Errorf("%w: session failed", domain.ErrUnexpectedMessage)
	}
	return rec.State, nil
}

// complete derives and stores the group key, records state, then raises
// key-ready.
func (e *Engine) complete(groupID domain.GroupID, peers []domain.PeerID, role domain.Role, secret []byte, state domain.SessionState) error {
	key, err := crypto.DeriveGroupKey(secret, groupID)
	if err != nil {
		return e.fail(groupID, peers, role, &domain.DHKeyGenerationError{Err: err})
	}
	if err := e.groupKeys.Put(groupID, key); err != nil {
		return err
	}
	if err := e.save(groupID, peers, role, state); err != nil {
		return err
	}
	e.metrics.SessionCompleted()
	e.log.WithFields(logrus.Fields{
		"function": "complete",
		"group_id": groupID.String(),
		"role":     string(role),
		"key_fp":   crypto.Fingerprint(key.Slice()),
	}).Info("group key ready")
	e.listeners.GroupKeyReady(groupID)
	return nil
}

// fail marks the session failed and returns cause.
func (e *Engine) fail(groupID domain.GroupID, peers []domain.PeerID, role domain.Role, cause error) error {
	if err := e.save(groupID, peers, role, domain.StateFailed); err != nil {
		return multierror.Append(cause, err)
	}
	e.log.WithFields(logrus.Fields{"function": "fail", "group_id": groupID.String()}).WithError(cause).Error("session failed")
	return cause
}

func (e *Engine) save(groupID domain.GroupID, peers []domain.PeerID, role domain.Role, state domain.SessionState) error {
	return e.sessions.SaveSession(domain.SessionRecord{
		GroupID:    groupID,
		Peers:      peers,
		Role:       role,
		State:      state,
		UpdatedUTC: e.now().UTC().Unix(),
	})
}

// send seals the encoded message for recipient and hands it to the bus.
func (e *Engine) send(ctx context.Context, ch domain.Channel, recipient domain.PeerID, msg *Message) error {
	raw, err := msg.Marshal()
	if err != nil {
		return err
	}
	sealed, err := e.dir.Seal(raw, recipient)
	if err != nil {
		return fmt.Errorf("seal for %q: %w", recipient.String(), err)
	}
	if err := e.bus.Send(ctx, ch, recipient, sealed); err != nil {
		return fmt.Errorf("send to %q: %w", recipient.String(), err)
	}
	e.metrics.MessageSent(ch)
	return nil
}

// orderPeers puts self first followed by the other participants in input
// order, dropping empties and duplicates.
func orderPeers(self domain.PeerID, participants []domain.PeerID) []domain.PeerID {
	ordered := []domain.PeerID{self}
	seen := map[domain.PeerID]struct{}{self: {}}
	for _, p := range participants {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		ordered = append(ordered, p)
	}
	return ordered
}
