package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	domaintypes "github.com/Pflanzmann/SharkShiver/internal/domain/types"
)

const groupKeyInfo = "shiver/group-key/v1"

// DeriveGroupKey derives the session's symmetric key from the raw DH secret.
// The group ID is the HKDF salt so that equal secrets in different sessions
// never yield the same key.
func DeriveGroupKey(secret []byte, groupID domaintypes.GroupID) (domaintypes.GroupKey, error) {
	var key domaintypes.GroupKey
	r := hkdf.New(sha256.New, secret, []byte(groupID), []byte(groupKeyInfo))
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return domaintypes.GroupKey{}, err
	}
	return key, nil
}
