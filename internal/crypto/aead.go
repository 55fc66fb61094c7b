package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"

	domaintypes "github.com/Pflanzmann/SharkShiver/internal/domain/types"
)

// ErrCiphertextTooShort is returned when a payload cannot hold a nonce and tag.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// SealGroupPayload encrypts plaintext under the group key with
// XChaCha20-Poly1305. The output is nonce || ciphertext || tag and the group
// ID is bound as associated data.
func SealGroupPayload(key domaintypes.GroupKey, groupID domaintypes.GroupID, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key.Slice())
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, []byte(groupID)), nil
}

// OpenGroupPayload reverses SealGroupPayload. A wrong key, wrong group ID or
// modified ciphertext fails authentication.
func OpenGroupPayload(key domaintypes.GroupKey, groupID domaintypes.GroupID, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key.Slice())
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	nonce, body := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	return aead.Open(nil, nonce, body, []byte(groupID))
}
