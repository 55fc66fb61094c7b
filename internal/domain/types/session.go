package types

// SessionState tracks where the local peer is in one key agreement.
type SessionState int

const (
	// StateNotStarted is the zero state: no message for the session has been
	// handled yet.
	StateNotStarted SessionState = iota
	// StateAwaitingNextHop means the local contribution has been sent on and
	// the peer waits for the broadcast leg.
	StateAwaitingNextHop
	// StateFinalizing means the final combine is in progress.
	StateFinalizing
	// StateComplete means the group key is stored.
	StateComplete
	// StateFailed means the session hit a fatal error and will never complete.
	StateFailed
	// StateInvalidated marks a session the user cancelled. Messages that
	// arrive later for it are rejected.
	StateInvalidated
	// StateBroadcasting means the last peer stored the group key but not every
	// broadcast copy was handed to the bus. A redelivered up-flow resends them.
	StateBroadcasting
)

var sessionStateNames = map[SessionState]string{
	StateNotStarted:      "not_started",
	StateAwaitingNextHop: "awaiting_next_hop",
	StateFinalizing:      "finalizing",
	StateComplete:        "complete",
	StateFailed:          "failed",
	StateInvalidated:     "invalidated",
	StateBroadcasting:    "broadcasting",
}

// String returns the lower-case name of the state.
func (s SessionState) String() string {
	if n, ok := sessionStateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Role is the position the local peer holds in the ordered chain.
type Role string

const (
	RoleInitiator    Role = "initiator"
	RoleIntermediate Role = "intermediate"
	RoleLast         Role = "last"
)

// SessionRecord is the persisted state of one key agreement.
type SessionRecord struct {
	GroupID    GroupID      `json:"group_id"`
	Peers      []PeerID     `json:"peers"`
	Role       Role         `json:"role"`
	State      SessionState `json:"state"`
	UpdatedUTC int64        `json:"updated_utc"`
}

// PendingMessage is an inbound up-flow message parked until the user accepts
// the key agreement. Message holds the decoded credential message, which
// carries public values only.
type PendingMessage struct {
	GroupID     GroupID  `json:"group_id"`
	From        PeerID   `json:"from"`
	Peers       []PeerID `json:"peers"`
	Message     []byte   `json:"message"`
	ReceivedUTC int64    `json:"received_utc"`
}
