package interfaces

import (
	"context"

	domaintypes "github.com/Pflanzmann/SharkShiver/internal/domain/types"
)

// MessageBus hands sealed payloads to the transport. Sending is
// fire-and-forget: a nil error means the transport accepted the payload, not
// that the recipient received it.
type MessageBus interface {
	Send(
		ctx context.Context,
		channel domaintypes.Channel,
		recipient domaintypes.PeerID,
		payload []byte,
	) error
}

// RelayClient is how we talk to the store-and-forward relay server.
type RelayClient interface {
	MessageBus

	FetchMessages(
		ctx context.Context,
		peer domaintypes.PeerID,
		limit int,
	) ([]domaintypes.Envelope, error)
	AckMessages(ctx context.Context, peer domaintypes.PeerID, count int) error
}
