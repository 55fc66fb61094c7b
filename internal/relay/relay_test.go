package relay

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

func newTestRelay(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(prometheus.NewRegistry(), nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestClient_SendFetchAck(t *testing.T) {
	_, ts := newTestRelay(t)
	ctx := context.Background()

	alice := NewClient(ts.URL, "alice", WithRetries(0, time.Millisecond))
	bob := NewClient(ts.URL+"/", "bob")

	require.NoError(t, alice.Send(ctx, domain.ChannelUpflow, "bob", []byte("one")))
	require.NoError(t, alice.Send(ctx, domain.ChannelBroadcast, "bob", []byte("two")))

	envs, err := bob.FetchMessages(ctx, "bob", 1)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, domain.PeerID("alice"), envs[0].From)
	assert.Equal(t, domain.ChannelUpflow, envs[0].Channel)
	assert.Equal(t, []byte("one"), envs[0].Payload)

	require.NoError(t, bob.AckMessages(ctx, "bob", 1))
	envs, err = bob.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, []byte("two"), envs[0].Payload)

	require.NoError(t, bob.AckMessages(ctx, "bob", 5))
	envs, err = bob.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Empty(t, envs)
}

func TestServer_RejectsUnknownChannel(t *testing.T) {
	_, ts := newTestRelay(t)
	c := NewClient(ts.URL, "alice", WithRetries(0, time.Millisecond))

	err := c.Send(context.Background(), domain.Channel("other"), "bob", []byte("x"))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	_, ts := newTestRelay(t)
	c := NewClient(ts.URL, "alice")
	require.NoError(t, c.Send(context.Background(), domain.ChannelUpflow, "bob", []byte("x")))

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "shiver_relay_envelopes_total 1")
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "alice", WithRetries(5, time.Millisecond))
	require.NoError(t, c.Send(context.Background(), domain.ChannelUpflow, "bob", []byte("x")))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "alice", WithRetries(5, time.Millisecond))
	assert.Error(t, c.Send(context.Background(), domain.ChannelUpflow, "bob", []byte("x")))
	assert.Equal(t, int32(1), calls.Load())
}

func TestMemoryBus_FIFOAndDrain(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus("alice")
	carol := bus.As("carol")

	require.NoError(t, bus.Send(ctx, domain.ChannelUpflow, "bob", []byte("1")))
	require.NoError(t, carol.Send(ctx, domain.ChannelBroadcast, "bob", []byte("2")))
	assert.Equal(t, 2, bus.Pending("bob"))

	var got []domain.Envelope
	n := bus.Drain(ctx, "bob", func(env domain.Envelope) {
		got = append(got, env)
		_ = bus.Send(ctx, domain.ChannelUpflow, "bob", []byte("3"))
	})
	assert.Equal(t, 2, n)
	require.Len(t, got, 2)
	assert.Equal(t, domain.PeerID("alice"), got[0].From)
	assert.Equal(t, domain.PeerID("carol"), got[1].From)
	assert.Equal(t, 2, bus.Pending("bob"))
}

func TestMemoryBus_FetchAck(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus("alice")
	for _, p := range []string{"a", "b", "c"} {
		require.NoError(t, bus.Send(ctx, domain.ChannelUpflow, "bob", []byte(p)))
	}
	envs, err := bus.FetchMessages(ctx, "bob", 2)
	require.NoError(t, err)
	require.Len(t, envs, 2)
	require.NoError(t, bus.AckMessages(ctx, "bob", 2))
	envs, err = bus.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, []byte("c"), envs[0].Payload)
}
