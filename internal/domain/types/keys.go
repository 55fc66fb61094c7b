package types

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// DHKeyPair is the ephemeral Diffie-Hellman key pair a peer holds for one
// group session. Both halves are encoded by the DH group that produced them.
type DHKeyPair struct {
	Private []byte `json:"priv"`
	Public  []byte `json:"pub"`
}

// Clone returns a deep copy of the key pair.
func (kp DHKeyPair) Clone() DHKeyPair {
	return DHKeyPair{
		Private: append([]byte(nil), kp.Private...),
		Public:  append([]byte(nil), kp.Public...),
	}
}

// GroupKeySize is the size in bytes of a derived group key.
const GroupKeySize = 32

// GroupKey is the symmetric key derived at the end of a key agreement.
type GroupKey [GroupKeySize]byte

// Slice returns the key as a []byte.
func (k GroupKey) Slice() []byte { return k[:] }
