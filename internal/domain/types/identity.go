package types

// Identity holds the local peer's long-term X25519 static key, used to open
// per-recipient envelopes.
type Identity struct {
	PeerID PeerID        `json:"peer_id"`
	XPub   X25519Public  `json:"xpub"`
	XPriv  X25519Private `json:"xpriv"`
}

// PeerRecord is what the local peer knows about another participant.
type PeerRecord struct {
	PeerID    PeerID       `json:"peer_id"`
	StaticKey X25519Public `json:"static_key"`
	Verified  bool         `json:"verified"`
}
