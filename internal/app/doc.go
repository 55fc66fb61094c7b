// Package app wires application dependencies for the CLI.
//
// Config is read from <home>/config.yaml. Wire builds the file-backed stores
// and the identity service from it; Wire.Open loads the identity with the
// user's passphrase and assembles the running peer (App): directory, engine,
// facade, relay client, inbox and supervisor.
package app
