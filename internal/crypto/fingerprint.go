package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const fingerprintBytes = 10

// Fingerprint returns a short fingerprint of a public key for users to
// compare out of band: the first 10 bytes of its SHA-256 as hex, in groups of
// four characters.
func Fingerprint(pub []byte) string {
	sum := sha256.Sum256(pub)
	h := hex.EncodeToString(sum[:fingerprintBytes])

	var b strings.Builder
	for i := 0; i < len(h); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(h[i:min(i+4, len(h))])
	}
	return b.String()
}
