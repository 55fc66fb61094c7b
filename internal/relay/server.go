package relay

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
	"github.com/Pflanzmann/SharkShiver/internal/metrics"
)

const (
	maxEnvelopeBytes = 1 << 20
	// DefaultMailboxSize bounds the envelopes queued per peer.
	DefaultMailboxSize = 4096
)

var errMailboxFull = errors.New("mailbox full")

// Server is the store-and-forward relay. Envelopes wait in per-peer mailboxes
// until the peer fetches and acknowledges them; nothing is persisted.
type Server struct {
	mu        sync.Mutex
	mailboxes map[domain.PeerID][]domain.Envelope
	limit     int

	metrics  *metrics.Relay
	gatherer prometheus.Gatherer
	log      *logrus.Entry
}

// NewServer returns a relay registering its collectors with reg. reg may be
// nil, in which case /metrics is not served.
func NewServer(reg *prometheus.Registry, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		mailboxes: make(map[domain.PeerID][]domain.Envelope),
		limit:     DefaultMailboxSize,
		log:       log.WithField("component", "relay"),
	}
	if reg != nil {
		s.metrics = metrics.NewRelay(reg)
		s.gatherer = reg
	} else {
		s.metrics = metrics.NewRelay(nil)
	}
	return s
}

// Router returns the HTTP routes of the relay.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/msg/{peer}", func(r chi.Router) {
		r.Post("/", s.handleSend)
		r.Get("/", s.handleFetch)
		r.Post("/ack", s.handleAck)
	})
	return r
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	peer := domain.PeerID(chi.URLParam(r, "peer"))
	var env domain.Envelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes)).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if env.To == "" {
		env.To = peer
	}
	if env.To != peer {
		http.Error(w, "recipient does not match path", http.StatusBadRequest)
		return
	}
	if _, err := domain.ParseChannel(env.Channel.String()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.enqueue(env); err != nil {
		http.Error(w, err.Error(), http.StatusTooManyRequests)
		return
	}
	s.log.WithFields(logrus.Fields{
		"function": "handleSend",
		"from":     env.From.String(),
		"to":       env.To.String(),
		"channel":  env.Channel.String(),
	}).Debug("envelope queued")
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	peer := domain.PeerID(chi.URLParam(r, "peer"))
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	envs := s.peek(peer, limit)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(envs)
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	peer := domain.PeerID(chi.URLParam(r, "peer"))
	var req ackRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil || req.Count < 0 {
		http.Error(w, "invalid ack", http.StatusBadRequest)
		return
	}
	s.ack(peer, req.Count)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) enqueue(env domain.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.mailboxes[env.To]) >= s.limit {
		return errMailboxFull
	}
	s.mailboxes[env.To] = append(s.mailboxes[env.To], env)
	s.metrics.Enqueued(1)
	return nil
}

func (s *Server) peek(peer domain.PeerID, limit int) []domain.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.mailboxes[peer]
	if limit > 0 && limit < len(q) {
		q = q[:limit]
	}
	return append([]domain.Envelope{}, q...)
}

func (s *Server) ack(peer domain.PeerID, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.mailboxes[peer]
	if count > len(q) {
		count = len(q)
	}
	if count == len(q) {
		delete(s.mailboxes, peer)
	} else {
		s.mailboxes[peer] = q[count:]
	}
	s.metrics.Acked(count)
}
