package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/curve25519"

	domaintypes "github.com/Pflanzmann/SharkShiver/internal/domain/types"
)

// GenerateX25519 returns a fresh Curve25519 key pair.
// The private key is clamped per RFC 7748.
func GenerateX25519() (priv domaintypes.X25519Private, pub domaintypes.X25519Public, err error) {
	if _, err = rand.Read(priv[:]); err != nil {
		return
	}
	clamp(priv[:])
	pb, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return
	}
	copy(pub[:], pb)
	return
}

// X25519PublicFromPrivate recomputes the public half of a static key.
func X25519PublicFromPrivate(priv domaintypes.X25519Private) (domaintypes.X25519Public, error) {
	var pub domaintypes.X25519Public
	pb, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return pub, err
	}
	copy(pub[:], pb)
	return pub, nil
}

func clamp(kb []byte) {
	kb[0] &= 248
	kb[31] &= 127
	kb[31] |= 64
}
