package interfaces

import (
	domaintypes "github.com/Pflanzmann/SharkShiver/internal/domain/types"
)

// PeerDirectory is the identity and trust capability the protocol relies on.
type PeerDirectory interface {
	// IsVerified reports whether the local peer trusts peer.
	IsVerified(peer domaintypes.PeerID) bool
	// Seal encrypts plaintext so that only recipient can open it.
	Seal(plaintext []byte, recipient domaintypes.PeerID) ([]byte, error)
	// Open decrypts an envelope addressed to the local peer. sender is empty
	// when the directory cannot attribute the envelope.
	Open(envelope []byte) (plaintext []byte, sender domaintypes.PeerID, err error)
}

// Listener receives protocol events. Implementations must not block.
type Listener interface {
	// OnGroupCredentials is raised for every inbound up-flow message before it
	// is processed.
	OnGroupCredentials(groupID domaintypes.GroupID, peers []domaintypes.PeerID)
	// OnGroupKeyReady is raised once the group key for groupID is stored.
	OnGroupKeyReady(groupID domaintypes.GroupID)
	// OnProtocolError is raised when an inbound message could not be handled.
	// peer is empty when the sender is unknown.
	OnProtocolError(channel domaintypes.Channel, peer domaintypes.PeerID, err error)
}

// IdentityService creates, retrieves, and inspects your identity keys.
type IdentityService interface {
	GenerateIdentity(passphrase string, peer domaintypes.PeerID) (
		domaintypes.Identity,
		domaintypes.Fingerprint,
		error,
	)
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
	FingerprintIdentity(passphrase string) (domaintypes.Fingerprint, error)
}
