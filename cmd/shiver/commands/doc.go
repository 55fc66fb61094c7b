// Package commands defines the shiver CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init         Create the local identity and config
//   - fingerprint  Print the identity fingerprint and static key
//   - trust        Record a peer's static key, optionally as verified
//   - peers        List known peers
//   - start        Start a group key agreement with peers
//   - recv         Fetch and process queued credential messages
//   - pending      List agreements waiting for acceptance
//   - accept       Accept a pending agreement
//   - reject       Drop a pending agreement
//   - status       Show session states
//   - encrypt      Encrypt a message with a group key
//   - decrypt      Decrypt a message with a group key
//   - invalidate   Cancel a session and wipe its keys
//   - demo         Run an agreement between in-process peers
//
// # Implementation
//
// The root command loads <home>/config.yaml and builds the passphrase
// independent stores before any subcommand runs. Commands that touch key
// material open the full peer with the passphrase.
package commands
