package gka

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/fxamacker/cbor/v2"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

const wireVersion = 1

// Message is the group credential message that carries the cascade state
// from hop to hop.
//
// OrderedPeers is fixed at creation with the initiator at index 0. Keys maps
// a peer to the group element that peer will eventually raise to its own
// exponent. Only public values ever appear in Keys.
//
// While a hop processes a message it mutates it in place through PutKey and
// DeleteKey, then serializes it once per recipient.
type Message struct {
	groupID domain.GroupID
	peers   []domain.PeerID
	keys    map[domain.PeerID][]byte
}

// NewMessage validates and builds a message. The peer slice and key map are
// copied.
func NewMessage(
	groupID domain.GroupID,
	orderedPeers []domain.PeerID,
	initialKeys map[domain.PeerID][]byte,
) (*Message, error) {
	m := &Message{
		groupID: groupID,
		peers:   slices.Clone(orderedPeers),
		keys:    make(map[domain.PeerID][]byte, len(initialKeys)),
	}
	for p, v := range initialKeys {
		m.keys[p] = bytes.Clone(v)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Message) validate() error {
	if m.groupID == "" {
		return fmt.Errorf("%w: empty group id", domain.ErrMalformedMessage)
	}
	if len(m.peers) < 2 {
		return fmt.Errorf("%w: %d peers", domain.ErrMalformedMessage, len(m.peers))
	}
	seen := make(map[domain.PeerID]struct{}, len(m.peers))
	for _, p := range m.peers {
		if p == "" {
			return fmt.Errorf("%w: empty peer id", domain.ErrMalformedMessage)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: duplicate peer %q", domain.ErrMalformedMessage, p.String())
		}
		seen[p] = struct{}{}
	}
	for p, v := range m.keys {
		if _, ok := seen[p]; !ok {
			return fmt.Errorf("%w: key for non-participant %q", domain.ErrMalformedMessage, p.String())
		}
		if len(v) == 0 {
			return fmt.Errorf("%w: empty key for %q", domain.ErrMalformedMessage, p.String())
		}
	}
	return nil
}

// GroupID returns the session this message belongs to.
func (m *Message) GroupID() domain.GroupID { return m.groupID }

// OrderedPeers returns a copy of the chain order.
func (m *Message) OrderedPeers() []domain.PeerID { return slices.Clone(m.peers) }

// Keys returns a deep copy of the key map.
func (m *Message) Keys() map[domain.PeerID][]byte {
	out := make(map[domain.PeerID][]byte, len(m.keys))
	for p, v := range m.keys {
		out[p] = bytes.Clone(v)
	}
	return out
}

// Key returns the value carried for peer.
func (m *Message) Key(peer domain.PeerID) ([]byte, bool) {
	v, ok := m.keys[peer]
	return v, ok
}

// PutKey sets the value carried for peer.
func (m *Message) PutKey(peer domain.PeerID, value []byte) {
	m.keys[peer] = bytes.Clone(value)
}

// DeleteKey drops the value carried for peer.
func (m *Message) DeleteKey(peer domain.PeerID) { delete(m.keys, peer) }

// IndexOf returns the chain position of peer, or -1.
func (m *Message) IndexOf(peer domain.PeerID) int { return slices.Index(m.peers, peer) }

// Initiator returns the first peer of the chain.
func (m *Message) Initiator() domain.PeerID { return m.peers[0] }

// Last returns the final peer of the chain.
func (m *Message) Last() domain.PeerID { return m.peers[len(m.peers)-1] }

// Clone returns a deep copy.
func (m *Message) Clone() *Message {
	return &Message{groupID: m.groupID, peers: m.OrderedPeers(), keys: m.Keys()}
}

// Equal reports whether both messages carry the same group, order and keys.
func (m *Message) Equal(o *Message) bool {
	if m.groupID != o.groupID || !slices.Equal(m.peers, o.peers) || len(m.keys) != len(o.keys) {
		return false
	}
	for p, v := range m.keys {
		w, ok := o.keys[p]
		if !ok || !bytes.Equal(v, w) {
			return false
		}
	}
	return true
}

// wireMessage is the CBOR form. Peer order is an array so it survives the
// round trip exactly; the key map is encoded with sorted keys.
type wireMessage struct {
	Version int               `cbor:"v"`
	GroupID string            `cbor:"gid"`
	Peers   []string          `cbor:"peers"`
	Keys    map[string][]byte `cbor:"keys"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}).DecMode(); err != nil {
		panic(err)
	}
}

// Marshal encodes the message for the wire.
func (m *Message) Marshal() ([]byte, error) {
	w := wireMessage{
		Version: wireVersion,
		GroupID: m.groupID.String(),
		Peers:   make([]string, len(m.peers)),
		Keys:    make(map[string][]byte, len(m.keys)),
	}
	for i, p := range m.peers {
		w.Peers[i] = p.String()
	}
	for p, v := range m.keys {
		w.Keys[p.String()] = v
	}
	return encMode.Marshal(w)
}

// Unmarshal decodes and validates a wire message.
func Unmarshal(b []byte) (*Message, error) {
	var w wireMessage
	if err := decMode.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
	}
	if w.Version != wireVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", domain.ErrMalformedMessage, w.Version)
	}
	m := &Message{
		groupID: domain.GroupID(w.GroupID),
		peers:   make([]domain.PeerID, len(w.Peers)),
		keys:    make(map[domain.PeerID][]byte, len(w.Keys)),
	}
	for i, p := range w.Peers {
		m.peers[i] = domain.PeerID(p)
	}
	for p, v := range w.Keys {
		m.keys[domain.PeerID(p)] = v
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}
