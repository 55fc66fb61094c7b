package domain

import (
	interfaces "github.com/Pflanzmann/SharkShiver/internal/domain/interfaces"
	types "github.com/Pflanzmann/SharkShiver/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	PeerID        = types.PeerID
	GroupID       = types.GroupID
	Fingerprint   = types.Fingerprint
	Channel       = types.Channel
	X25519Public  = types.X25519Public
	X25519Private = types.X25519Private
	DHKeyPair     = types.DHKeyPair
	GroupKey      = types.GroupKey
	Identity      = types.Identity
	PeerRecord    = types.PeerRecord
	SessionState  = types.SessionState
	SessionRecord = types.SessionRecord
	Role          = types.Role
	Envelope      = types.Envelope

	PendingMessage = types.PendingMessage
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityStore   = interfaces.IdentityStore
	TrustStore      = interfaces.TrustStore
	KeyPairStore    = interfaces.KeyPairStore
	GroupKeyStore   = interfaces.GroupKeyStore
	SessionStore    = interfaces.SessionStore
	PendingStore    = interfaces.PendingStore
	MessageBus      = interfaces.MessageBus
	RelayClient     = interfaces.RelayClient
	PeerDirectory   = interfaces.PeerDirectory
	Listener        = interfaces.Listener
	IdentityService = interfaces.IdentityService
)

// Re-exported constants.
const (
	ChannelUpflow    = types.ChannelUpflow
	ChannelBroadcast = types.ChannelBroadcast

	StateNotStarted      = types.StateNotStarted
	StateAwaitingNextHop = types.StateAwaitingNextHop
	StateFinalizing      = types.StateFinalizing
	StateComplete        = types.StateComplete
	StateFailed          = types.StateFailed
	StateInvalidated     = types.StateInvalidated
	StateBroadcasting    = types.StateBroadcasting

	RoleInitiator    = types.RoleInitiator
	RoleIntermediate = types.RoleIntermediate
	RoleLast         = types.RoleLast
)
