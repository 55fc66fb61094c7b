// Package shiver is the public face of the group key agreement.
//
// It starts agreements, feeds sealed inbound credential messages to the
// engine, optionally parks inbound agreements until the user accepts them,
// and encrypts and decrypts application payloads under the derived group key.
package shiver
