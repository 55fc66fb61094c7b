package interfaces

import domaintypes "github.com/Pflanzmann/SharkShiver/internal/domain/types"

// IdentityStore persists your long-term static key.
type IdentityStore interface {
	SaveIdentity(passphrase string, id domaintypes.Identity) error
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
}

// TrustStore records the peers you know and whether you verified them.
type TrustStore interface {
	SavePeer(record domaintypes.PeerRecord) error
	LoadPeer(peer domaintypes.PeerID) (domaintypes.PeerRecord, bool, error)
	LookupStaticKey(key domaintypes.X25519Public) (domaintypes.PeerRecord, bool, error)
	ListPeers() ([]domaintypes.PeerRecord, error)
}

// KeyPairStore caches the ephemeral DH key pair the local peer uses for
// each group session.
type KeyPairStore interface {
	// GetOrCreate returns the cached pair for groupID, generating and caching
	// a fresh one on first use.
	GetOrCreate(groupID domaintypes.GroupID) (domaintypes.DHKeyPair, error)
	// Get returns the cached pair without generating one.
	Get(groupID domaintypes.GroupID) (domaintypes.DHKeyPair, bool, error)
	Delete(groupID domaintypes.GroupID) error
}

// GroupKeyStore caches the derived symmetric key per group session.
type GroupKeyStore interface {
	Get(groupID domaintypes.GroupID) (domaintypes.GroupKey, bool, error)
	Put(groupID domaintypes.GroupID, key domaintypes.GroupKey) error
	Delete(groupID domaintypes.GroupID) error
}

// SessionStore persists the per-session protocol state.
type SessionStore interface {
	SaveSession(record domaintypes.SessionRecord) error
	LoadSession(groupID domaintypes.GroupID) (domaintypes.SessionRecord, bool, error)
	DeleteSession(groupID domaintypes.GroupID) error
}

// PendingStore parks inbound up-flow messages awaiting manual acceptance.
type PendingStore interface {
	SavePending(msg domaintypes.PendingMessage) error
	LoadPending(groupID domaintypes.GroupID) (domaintypes.PendingMessage, bool, error)
	DeletePending(groupID domaintypes.GroupID) error
	ListPending() ([]domaintypes.PendingMessage, error)
}
