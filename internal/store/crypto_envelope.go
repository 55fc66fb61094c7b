package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// sealedFormatVersion is the current version of the sealed blob format.
const sealedFormatVersion = 1

// ErrWrongPassphrase is returned when a sealed file cannot be opened, either
// because the passphrase is wrong or because the file was modified.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted store file")

// sealedBlob is the on-disk JSON structure holding the ciphertext together
// with the scrypt parameters needed to re-derive its key.
type sealedBlob struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Label  string `json:"label"`
	Cipher []byte `json:"cipher"`
}

// kdfParams are the scrypt cost parameters used when sealing.
type kdfParams struct {
	N, R, P int
}

func defaultKDFParams() kdfParams { return kdfParams{N: 1 << 15, R: 8, P: 1} }

// seal derives a key from passphrase under a fresh salt and encrypts raw. The
// label names the file's content and is authenticated with the salt, so a
// sealed key pair file cannot be swapped in for a group key file.
func seal(passphrase, label string, raw []byte, kp kdfParams) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	key, err := scrypt.Key([]byte(passphrase), salt[:], kp.N, kp.R, kp.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	// Zero nonce: the key is unique per salt and used for one message.
	var nonce [chacha20poly1305.NonceSize]byte
	ct := aead.Seal(nil, nonce[:], raw, additionalData(label, salt[:]))

	return json.Marshal(sealedBlob{
		V:      sealedFormatVersion,
		Salt:   salt[:],
		N:      kp.N,
		R:      kp.R,
		P:      kp.P,
		Label:  label,
		Cipher: ct,
	})
}

// open reverses seal.
func open(passphrase, label string, b []byte) ([]byte, error) {
	var bl sealedBlob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, err
	}
	if bl.V > sealedFormatVersion {
		return nil, fmt.Errorf("unsupported store version %d", bl.V)
	}
	if bl.Label != label {
		return nil, fmt.Errorf("store file holds %q, want %q", bl.Label, label)
	}

	key, err := scrypt.Key([]byte(passphrase), bl.Salt, bl.N, bl.R, bl.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	pt, err := aead.Open(nil, nonce[:], bl.Cipher, additionalData(label, bl.Salt))
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

func additionalData(label string, salt []byte) []byte {
	ad := make([]byte, 0, len(label)+1+len(salt))
	ad = append(ad, label...)
	ad = append(ad, 0)
	return append(ad, salt...)
}
