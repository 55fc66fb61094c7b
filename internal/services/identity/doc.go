// Package identity owns the local peer's long-term key.
//
// GenerateIdentity binds a fresh X25519 static key to a peer ID and stores it
// sealed under the user's passphrase. Other peers pin that key in their trust
// store; the directory seals credential envelopes to it.
package identity
