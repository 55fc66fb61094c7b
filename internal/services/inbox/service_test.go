package inbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
	"github.com/Pflanzmann/SharkShiver/internal/relay"
)

type acceptFunc func(ctx context.Context, ch domain.Channel, raw []byte)

func (f acceptFunc) AcceptInbound(ctx context.Context, ch domain.Channel, raw []byte) { f(ctx, ch, raw) }

func TestPoll_ProcessesInOrderAndAcks(t *testing.T) {
	ctx := context.Background()
	bus := relay.NewMemoryBus("alice")
	for _, p := range []string{"1", "2", "3"} {
		require.NoError(t, bus.Send(ctx, domain.ChannelUpflow, "bob", []byte(p)))
	}

	var got []string
	in := New("bob", bus, acceptFunc(func(_ context.Context, ch domain.Channel, raw []byte) {
		assert.Equal(t, domain.ChannelUpflow, ch)
		got = append(got, string(raw))
	}), nil)

	n, err := in.Poll(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"1", "2"}, got)
	assert.Equal(t, 1, bus.Pending("bob"))

	n, err = in.Poll(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, bus.Pending("bob"))
}

func TestPoll_EmptyMailbox(t *testing.T) {
	in := New("bob", relay.NewMemoryBus(""), acceptFunc(func(context.Context, domain.Channel, []byte) {
		t.Fatal("unexpected delivery")
	}), nil)
	n, err := in.Poll(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPoll_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := relay.NewMemoryBus("alice")
	for _, p := range []string{"1", "2", "3"} {
		require.NoError(t, bus.Send(ctx, domain.ChannelUpflow, "bob", []byte(p)))
	}

	in := New("bob", bus, acceptFunc(func(context.Context, domain.Channel, []byte) { cancel() }), nil)
	n, err := in.Poll(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, bus.Pending("bob"))
}
