package types

// Envelope is the wire-format unit posted to and fetched from the relay.
// Payload is already sealed for the recipient.
type Envelope struct {
	From      PeerID  `json:"from"`
	To        PeerID  `json:"to"`
	Channel   Channel `json:"channel"`
	Payload   []byte  `json:"payload"`
	Timestamp int64   `json:"timestamp"`
}
