// Package directory is the reference PeerDirectory: a trust list of peer
// static keys plus one-way Noise X envelopes.
//
// Every envelope is a single Noise X handshake message from the local static
// key to the recipient's static key. The recipient learns the sender's static
// key from the handshake and maps it back to a peer ID through its trust list,
// so envelopes from unknown keys are rejected before the protocol sees them.
package directory
