package crypto

import (
	"fmt"

	"golang.org/x/crypto/curve25519"

	domaintypes "github.com/Pflanzmann/SharkShiver/internal/domain/types"
)

// x25519Group runs the cascade on Curve25519. Scalar multiplication by
// clamped scalars commutes, so combining in any order gives the same point.
type x25519Group struct{}

// NewX25519Group returns the Curve25519 group.
func NewX25519Group() Group { return x25519Group{} }

func (x25519Group) Name() string { return GroupX25519 }

func (x25519Group) GenerateKeyPair() (domaintypes.DHKeyPair, error) {
	priv, pub, err := GenerateX25519()
	if err != nil {
		return domaintypes.DHKeyPair{}, err
	}
	return domaintypes.DHKeyPair{Private: priv.Slice(), Public: pub.Slice()}, nil
}

// Combine multiplies value by the private scalar. curve25519.X25519 rejects
// low-order inputs that would produce the all-zero point.
func (x25519Group) Combine(private, value []byte) ([]byte, error) {
	if len(private) != curve25519.ScalarSize || len(value) != curve25519.PointSize {
		return nil, fmt.Errorf("%w: want %d-byte scalar and point", ErrInvalidElement, curve25519.PointSize)
	}
	out, err := curve25519.X25519(private, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidElement, err)
	}
	return out, nil
}
