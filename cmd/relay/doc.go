// Package main runs the store-and-forward relay shiver peers exchange
// credential messages through. Envelopes are queued per recipient until the
// recipient fetches and acknowledges them.
//
// HTTP API
//
//	POST /msg/{peer}
//	    Enqueue an Envelope destined to {peer}. The channel must be one of the
//	    credential message channels. If Timestamp is zero, the server fills it
//	    with the current Unix time. Returns 202, or 429 when the mailbox is
//	    full.
//
//	GET /msg/{peer}?limit=N
//	    Return up to N queued Envelopes for {peer} without removing them.
//
//	POST /msg/{peer}/ack { "count": N }
//	    Drop the first N queued envelopes for {peer}. If N exceeds the queue
//	    length, the queue is cleared.
//
//	GET /healthz, GET /metrics
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - The relay only sees Noise-sealed payloads; it never sees DH values or
//     group keys.
//   - The default listen address is :8080.
package main
