package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

// StatusError is returned for non-2xx relay replies.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay %s %s: %s", e.Method, e.Path, e.Status)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithRetries sets how often a failed post is retried and the first delay.
func WithRetries(n uint64, base time.Duration) ClientOption {
	return func(c *Client) { c.retries, c.retryBase = n, base }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) ClientOption {
	return func(c *Client) { c.log = l }
}

// Client talks to the relay on behalf of one local peer.
type Client struct {
	base      string
	self      domain.PeerID
	http      *http.Client
	retries   uint64
	retryBase time.Duration
	log       *logrus.Entry
	now       func() time.Time
}

// NewClient returns a Client for the relay at base sending as self.
func NewClient(base string, self domain.PeerID, opts ...ClientOption) *Client {
	c := &Client{
		base:      strings.TrimRight(base, "/"),
		self:      self,
		http:      http.DefaultClient,
		retries:   3,
		retryBase: 200 * time.Millisecond,
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = logrus.NewEntry(logrus.StandardLogger())
	}
	c.log = c.log.WithField("component", "relay-client")
	return c
}

// Send posts a sealed payload to recipient's mailbox.
func (c *Client) Send(ctx context.Context, ch domain.Channel, recipient domain.PeerID, payload []byte) error {
	return c.SendMessage(ctx, domain.Envelope{
		From:      c.self,
		To:        recipient,
		Channel:   ch,
		Payload:   payload,
		Timestamp: c.now().UTC().Unix(),
	})
}

// SendMessage posts env to env.To's mailbox.
func (c *Client) SendMessage(ctx context.Context, env domain.Envelope) error {
	return c.postRetried(ctx, "/msg/"+url.PathEscape(env.To.String()), env)
}

// FetchMessages returns up to limit queued envelopes for peer without
// removing them. limit <= 0 fetches everything.
func (c *Client) FetchMessages(ctx context.Context, peer domain.PeerID, limit int) ([]domain.Envelope, error) {
	path := "/msg/" + url.PathEscape(peer.String())
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{Method: http.MethodGet, Path: path, Code: resp.StatusCode, Status: resp.Status}
	}
	var envs []domain.Envelope
	return envs, json.NewDecoder(resp.Body).Decode(&envs)
}

// AckMessages removes the first count envelopes from peer's mailbox.
func (c *Client) AckMessages(ctx context.Context, peer domain.PeerID, count int) error {
	return c.postRetried(ctx, "/msg/"+url.PathEscape(peer.String())+"/ack", ackRequest{Count: count})
}

type ackRequest struct {
	Count int `json:"count"`
}

func (c *Client) postRetried(ctx context.Context, path string, in any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.retryBase))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := c.post(ctx, path, body)
		var se *StatusError
		if err == nil || (errors.As(err, &se) && se.Code < 500) {
			return err
		}
		c.log.WithFields(logrus.Fields{"function": "post", "path": path, "attempt": attempt}).WithError(err).Debug("relay post failed, retrying")
		return retry.RetryableError(err)
	})
}

func (c *Client) post(ctx context.Context, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return &StatusError{Method: http.MethodPost, Path: path, Code: resp.StatusCode, Status: resp.Status}
	}
	return nil
}

var _ domain.RelayClient = (*Client)(nil)
