// Package metrics holds the Prometheus collectors for the key agreement
// engine and the relay. A nil *Engine or *Relay is valid and records nothing.
package metrics
