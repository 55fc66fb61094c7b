package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrGroupSize is returned when a key agreement would have fewer than two
	// participants.
	ErrGroupSize = errors.New("group needs at least two participants")

	// ErrNoGroupKey is returned by encrypt/decrypt when no key is stored for
	// the group, either because the agreement has not completed or because
	// the key was invalidated.
	ErrNoGroupKey = errors.New("no group key for group")

	// ErrMalformedMessage is returned when a credential message fails to
	// decode or violates its structural invariants.
	ErrMalformedMessage = errors.New("malformed group credential message")

	// ErrNotParticipant is returned when the local peer is not part of the
	// ordered chain of a message it received.
	ErrNotParticipant = errors.New("local peer is not a participant")

	// ErrUnexpectedMessage is returned when a message arrives on a channel or
	// in a state where it cannot be processed.
	ErrUnexpectedMessage = errors.New("unexpected credential message")

	// ErrUnexpectedSender is returned when the envelope sender is not the hop
	// the chain says should have sent the message.
	ErrUnexpectedSender = errors.New("credential message from unexpected sender")

	// ErrMissingContribution is returned when the value keyed by the local
	// peer is absent from a message that must carry it.
	ErrMissingContribution = errors.New("message carries no contribution for local peer")

	// ErrUnknownSession is returned when a broadcast arrives for a session the
	// local peer holds no key pair for.
	ErrUnknownSession = errors.New("unknown group session")

	// ErrSessionInvalidated is returned for messages that arrive after the
	// session was invalidated locally.
	ErrSessionInvalidated = errors.New("group session was invalidated")

	// ErrUnknownChannel is returned for inbound messages on an unknown path.
	ErrUnknownChannel = errors.New("unknown channel")

	// ErrNotPending is returned when accepting a credential message that is
	// not parked.
	ErrNotPending = errors.New("no pending credential message for group")
)

// PeerNotVerifiedError is returned when a participant or the next hop is not
// verified by the peer directory.
type PeerNotVerifiedError struct {
	Peer PeerID
}

func (e *PeerNotVerifiedError) Error() string {
	return fmt.Sprintf("peer %q is not verified", e.Peer.String())
}

// DHKeyGenerationError wraps a failure of the Diffie-Hellman primitive. It is
// fatal to the session it occurred in.
type DHKeyGenerationError struct {
	Err error
}

func (e *DHKeyGenerationError) Error() string {
	return fmt.Sprintf("dh key generation: %v", e.Err)
}

func (e *DHKeyGenerationError) Unwrap() error { return e.Err }

// EncryptionError wraps a failure of the payload cipher while sealing.
type EncryptionError struct {
	Err error
}

func (e *EncryptionError) Error() string {
	return fmt.Sprintf("encrypt group payload: %v", e.Err)
}

func (e *EncryptionError) Unwrap() error { return e.Err }

// DecryptionError wraps a failure of the payload cipher while opening,
// including authentication failures caused by a wrong key.
type DecryptionError struct {
	Err error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("decrypt group payload: %v", e.Err)
}

func (e *DecryptionError) Unwrap() error { return e.Err }

// ProtocolError describes a failure to handle one inbound message.
type ProtocolError struct {
	Channel Channel
	Peer    PeerID
	GroupID GroupID
	Err     error
}

func (e *ProtocolError) Error() string {
	if e.GroupID != "" {
		return fmt.Sprintf("%s from %q (group %s): %v", e.Channel, e.Peer.String(), e.GroupID.String(), e.Err)
	}
	return fmt.Sprintf("%s from %q: %v", e.Channel, e.Peer.String(), e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
