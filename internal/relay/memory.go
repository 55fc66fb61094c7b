package relay

import (
	"context"
	"sync"
	"time"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

// MemoryBus is an in-process MessageBus. Each recipient has a FIFO queue.
type MemoryBus struct {
	self   domain.PeerID
	shared *memoryQueues
}

type memoryQueues struct {
	mu     sync.Mutex
	queues map[domain.PeerID][]domain.Envelope
}

// NewMemoryBus returns a bus with empty queues sending as self.
func NewMemoryBus(self domain.PeerID) *MemoryBus {
	return &MemoryBus{self: self, shared: &memoryQueues{queues: make(map[domain.PeerID][]domain.Envelope)}}
}

// As returns a bus sharing the same queues that sends as peer.
func (b *MemoryBus) As(peer domain.PeerID) *MemoryBus {
	return &MemoryBus{self: peer, shared: b.shared}
}

// Send appends the payload to recipient's queue.
func (b *MemoryBus) Send(ctx context.Context, ch domain.Channel, recipient domain.PeerID, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := domain.Envelope{
		From:      b.self,
		To:        recipient,
		Channel:   ch,
		Payload:   append([]byte(nil), payload...),
		Timestamp: time.Now().UTC().Unix(),
	}
	b.shared.mu.Lock()
	b.shared.queues[recipient] = append(b.shared.queues[recipient], env)
	b.shared.mu.Unlock()
	return nil
}

// Pending returns the number of envelopes queued for peer.
func (b *MemoryBus) Pending(peer domain.PeerID) int {
	b.shared.mu.Lock()
	defer b.shared.mu.Unlock()
	return len(b.shared.queues[peer])
}

// Drain removes every envelope queued for peer and hands them to fn in
// order. Envelopes queued by fn are left for the next Drain.
func (b *MemoryBus) Drain(ctx context.Context, peer domain.PeerID, fn func(domain.Envelope)) int {
	b.shared.mu.Lock()
	envs := b.shared.queues[peer]
	delete(b.shared.queues, peer)
	b.shared.mu.Unlock()

	for i, env := range envs {
		if ctx.Err() != nil {
			b.requeue(peer, envs[i:])
			return i
		}
		fn(env)
	}
	return len(envs)
}

func (b *MemoryBus) requeue(peer domain.PeerID, envs []domain.Envelope) {
	b.shared.mu.Lock()
	defer b.shared.mu.Unlock()
	b.shared.queues[peer] = append(envs, b.shared.queues[peer]...)
}

// FetchMessages returns up to limit queued envelopes for peer.
func (b *MemoryBus) FetchMessages(_ context.Context, peer domain.PeerID, limit int) ([]domain.Envelope, error) {
	b.shared.mu.Lock()
	defer b.shared.mu.Unlock()
	q := b.shared.queues[peer]
	if limit > 0 && limit < len(q) {
		q = q[:limit]
	}
	return append([]domain.Envelope(nil), q...), nil
}

// AckMessages drops the first count envelopes of peer's queue.
func (b *MemoryBus) AckMessages(_ context.Context, peer domain.PeerID, count int) error {
	b.shared.mu.Lock()
	defer b.shared.mu.Unlock()
	q := b.shared.queues[peer]
	if count > len(q) {
		count = len(q)
	}
	if count <= 0 {
		return nil
	}
	b.shared.queues[peer] = q[count:]
	return nil
}

var _ domain.RelayClient = (*MemoryBus)(nil)
