package identity

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrEmptyPeerID is returned when an identity is created without a peer ID.
	ErrEmptyPeerID = errors.New("peer id must not be empty")

	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
)

// Service manages identity key creation and access using a backing store.
//
// The identity holds the peer ID the local user is known by on the transport
// and the X25519 static key pair other peers seal credential envelopes to.
type Service struct {
	store domain.IdentityStore
}

// New returns an identity service backed by the given store.
func New(s domain.IdentityStore) *Service { return &Service{store: s} }

// GenerateIdentity creates a new identity for peer, saves it sealed with the
// passphrase, and returns it plus a short fingerprint of the static key.
func (s *Service) GenerateIdentity(
	passphrase string,
	peer domain.PeerID,
) (domain.Identity, domain.Fingerprint, error) {
	if peer == "" {
		return domain.Identity{}, "", ErrEmptyPeerID
	}
	if !isSecurePassphrase(passphrase) {
		return domain.Identity{}, "", ErrWeakPassphrase
	}

	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.Identity{}, "", err
	}

	id := domain.Identity{PeerID: peer, XPub: pub, XPriv: priv}
	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		return domain.Identity{}, "", err
	}
	return id, Fingerprint(id.XPub), nil
}

// LoadIdentity opens and returns the local identity.
func (s *Service) LoadIdentity(passphrase string) (domain.Identity, error) {
	return s.store.LoadIdentity(passphrase)
}

// FingerprintIdentity returns a short fingerprint of the local X25519 public key.
func (s *Service) FingerprintIdentity(passphrase string) (domain.Fingerprint, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	return Fingerprint(id.XPub), nil
}

// Fingerprint returns the short fingerprint users compare out of band before
// marking a peer verified.
func Fingerprint(key domain.X25519Public) domain.Fingerprint {
	return domain.Fingerprint(crypto.Fingerprint(key.Slice()))
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
