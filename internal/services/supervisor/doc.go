// Package supervisor retries stalled key agreements.
//
// The engine never times out: a chain that stalls at an offline peer simply
// never completes. A Supervisor starts an agreement, waits a bounded time for
// the key, and when the wait expires invalidates the stalled group and starts
// a fresh one with exponential backoff between attempts.
package supervisor
