// Package relay carries sealed credential messages between peers.
//
// It contains three pieces:
//   - MemoryBus, an in-process MessageBus with per-recipient FIFO queues,
//     used by tests and the demo command.
//   - Client, an HTTP RelayClient for the store-and-forward relay. Posts are
//     retried with exponential backoff on transport errors and 5xx replies.
//   - Server, the relay itself: per-peer mailboxes behind a chi router.
//
// All requests are JSON over HTTP and accept a context for cancellation and
// deadlines. Non-2xx statuses are returned as errors with the HTTP method,
// path and status text.
package relay
