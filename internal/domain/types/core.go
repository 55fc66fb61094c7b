package types

// PeerID identifies a participant on the transport. Peers are always
// compared by value.
type PeerID string

// String returns the string form of the peer identifier.
func (p PeerID) String() string { return string(p) }

// GroupID names one key-agreement run and the group key it produces.
type GroupID string

// String returns the string form of the group identifier.
func (g GroupID) String() string { return string(g) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// Channel is the logical path a credential message travels on.
type Channel string

const (
	// ChannelUpflow carries the forward leg of the cascade, hop by hop.
	ChannelUpflow Channel = "shiver/group_credential_message/upflow"
	// ChannelBroadcast carries the per-peer finalization copies sent by the
	// last participant.
	ChannelBroadcast Channel = "shiver/group_credential_message/broadcast"
)

// String returns the string form of the channel.
func (c Channel) String() string { return string(c) }
