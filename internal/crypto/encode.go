package crypto

import (
	"encoding/base64"
	"fmt"
	"strings"

	domaintypes "github.com/Pflanzmann/SharkShiver/internal/domain/types"
)

// B64 returns standard base64 encoding without newlines.
func B64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// FromB64 decodes standard base64, ignoring surrounding whitespace.
func FromB64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

// ParseX25519Public decodes a base64 static key as printed by B64.
func ParseX25519Public(s string) (domaintypes.X25519Public, error) {
	var key domaintypes.X25519Public
	raw, err := FromB64(s)
	if err != nil {
		return key, fmt.Errorf("decoding static key: %w", err)
	}
	if len(raw) != len(key) {
		return key, fmt.Errorf("static key must be %d bytes, got %d", len(key), len(raw))
	}
	copy(key[:], raw)
	return key, nil
}
