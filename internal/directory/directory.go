package directory

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/flynn/noise"
	"github.com/sirupsen/logrus"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

const prologue = "shiver/envelope/v1"

var (
	// ErrUnknownPeer is returned when sealing for a peer with no trust record.
	ErrUnknownPeer = errors.New("unknown peer")
	// ErrUnknownSender is returned when an envelope was sealed by a static key
	// that is not in the trust list.
	ErrUnknownSender = errors.New("envelope from unknown static key")
)

var cipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashSHA256)

// Directory implements domain.PeerDirectory over a TrustStore.
type Directory struct {
	self  domain.Identity
	trust domain.TrustStore
	log   *logrus.Entry
}

// New returns a Directory for the local identity.
func New(self domain.Identity, trust domain.TrustStore, log *logrus.Entry) *Directory {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Directory{
		self:  self,
		trust: trust,
		log:   log.WithField("component", "directory"),
	}
}

// IsVerified reports whether peer is in the trust list and marked verified.
func (d *Directory) IsVerified(peer domain.PeerID) bool {
	rec, ok, err := d.trust.LoadPeer(peer)
	if err != nil {
		d.log.WithFields(logrus.Fields{"function": "IsVerified", "peer": peer.String()}).WithError(err).Warn("trust lookup failed")
		return false
	}
	return ok && rec.Verified
}

// Seal encrypts plaintext to recipient's static key.
func (d *Directory) Seal(plaintext []byte, recipient domain.PeerID) ([]byte, error) {
	rec, ok, err := d.trust.LoadPeer(recipient)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownPeer, recipient.String())
	}

	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cipherSuite,
		Random:        rand.Reader,
		Pattern:       noise.HandshakeX,
		Initiator:     true,
		Prologue:      []byte(prologue),
		StaticKeypair: d.staticKeypair(),
		PeerStatic:    rec.StaticKey.Slice(),
	})
	if err != nil {
		return nil, fmt.Errorf("noise handshake: %w", err)
	}
	out, _, _, err := hs.WriteMessage(nil, plaintext)
	if err != nil {
		return nil, fmt.Errorf("noise write: %w", err)
	}
	return out, nil
}

// Open decrypts an envelope sealed for the local identity and returns the
// sender. Envelopes from unverified peers are rejected with
// PeerNotVerifiedError.
func (d *Directory) Open(envelope []byte) ([]byte, domain.PeerID, error) {
	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cipherSuite,
		Random:        rand.Reader,
		Pattern:       noise.HandshakeX,
		Initiator:     false,
		Prologue:      []byte(prologue),
		StaticKeypair: d.staticKeypair(),
	})
	if err != nil {
		return nil, "", fmt.Errorf("noise handshake: %w", err)
	}
	plaintext, _, _, err := hs.ReadMessage(nil, envelope)
	if err != nil {
		return nil, "", fmt.Errorf("noise read: %w", err)
	}

	var key domain.X25519Public
	copy(key[:], hs.PeerStatic())
	rec, ok, err := d.trust.LookupStaticKey(key)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		d.log.WithFields(logrus.Fields{
			"function": "Open",
			"key_fp":   crypto.Fingerprint(key.Slice()),
		}).Warn("envelope from unknown key dropped")
		return nil, "", ErrUnknownSender
	}
	if !rec.Verified {
		return nil, rec.PeerID, &domain.PeerNotVerifiedError{Peer: rec.PeerID}
	}
	return plaintext, rec.PeerID, nil
}

func (d *Directory) staticKeypair() noise.DHKey {
	return noise.DHKey{
		Private: append([]byte(nil), d.self.XPriv[:]...),
		Public:  append([]byte(nil), d.self.XPub[:]...),
	}
}

// Compile-time assertion that Directory implements domain.PeerDirectory.
var _ domain.PeerDirectory = (*Directory)(nil)
