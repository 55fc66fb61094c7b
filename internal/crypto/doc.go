// Package crypto exposes the primitives the group key agreement is built on.
//
// Contents
//
//   - Diffie-Hellman groups behind the Group interface: finite-field MODP
//     over injected DHParameters (NewMODPGroup) and Curve25519 (NewX25519Group)
//   - Group key derivation with HKDF-SHA256 (DeriveGroupKey)
//   - Authenticated payload encryption with XChaCha20-Poly1305
//     (SealGroupPayload, OpenGroupPayload)
//   - X25519 static key generation for peer identities (GenerateX25519)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// A Group combines a private exponent with any group element, not just the
// generator. That is what lets the cascade raise a value carried by the
// message to the local exponent. Both groups are commutative under repeated
// combination, so every peer ends with the same element regardless of order.
package crypto
