// Package store provides persistence for Shiver's protocol state.
//
// Every domain store interface has an in-memory implementation, used by
// tests and the demo, and a file-backed one rooted at the user's configured
// home directory. Secret material (identity keys, ephemeral DH key pairs and
// derived group keys) is sealed on disk with a passphrase-derived key; session
// records and the trust list are plain JSON. All methods are safe for
// concurrent use.
//
// Files:
//   - identity.json.enc  (IdentityFileStore)
//   - keypairs.json.enc  (KeyPairFileStore)
//   - groupkeys.json.enc (GroupKeyFileStore)
//   - sessions.json      (SessionFileStore)
//   - pending.json       (PendingFileStore)
//   - peers.json         (TrustFileStore)
package store
