package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
	"github.com/Pflanzmann/SharkShiver/internal/protocol/gka"
)

// ErrTimeout is returned when no attempt completed within its wait.
var ErrTimeout = errors.New("key agreement timed out")

// Agreement is the part of the facade the supervisor drives.
type Agreement interface {
	StartKeyAgreement(ctx context.Context, peers []domain.PeerID) (domain.GroupID, error)
	HasKey(groupID domain.GroupID) bool
	Invalidate(groupID domain.GroupID) error
	AddListener(l domain.Listener)
	RemoveListener(l domain.Listener)
}

// Supervisor re-triggers agreements that do not complete in time.
type Supervisor struct {
	agreement Agreement
	timeout   time.Duration
	retries   uint64
	backoff   time.Duration
	log       *logrus.Entry
}

// New returns a Supervisor waiting timeout per attempt and retrying up to
// retries times.
func New(a Agreement, timeout time.Duration, retries uint64, log *logrus.Entry) *Supervisor {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Supervisor{
		agreement: a,
		timeout:   timeout,
		retries:   retries,
		backoff:   time.Second,
		log:       log.WithField("component", "supervisor"),
	}
}

// WithBackoff sets the delay before the first retry. It doubles after each
// further failure.
func (s *Supervisor) WithBackoff(d time.Duration) *Supervisor {
	s.backoff = d
	return s
}

// Establish runs agreements with peers until one completes and returns its
// group ID. Errors that a retry cannot fix, such as ErrGroupSize or an
// unverified peer, are returned at once.
func (s *Supervisor) Establish(ctx context.Context, peers []domain.PeerID) (domain.GroupID, error) {
	ready := make(chan domain.GroupID, 16)
	l := &gka.ListenerFuncs{KeyReady: func(g domain.GroupID) {
		select {
		case ready <- g:
		default:
		}
	}}
	s.agreement.AddListener(l)
	defer s.agreement.RemoveListener(l)

	var (
		result  domain.GroupID
		attempt int
	)
	b := retry.WithMaxRetries(s.retries, retry.NewExponential(s.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		log := s.log.WithFields(logrus.Fields{"function": "Establish", "attempt": attempt})

		g, err := s.agreement.StartKeyAgreement(ctx, peers)
		if err != nil {
			if permanent(err) {
				return err
			}
			log.WithError(err).Warn("start failed")
			return retry.RetryableError(err)
		}
		log = log.WithField("group_id", g.String())

		if err := s.wait(ctx, g, ready); err != nil {
			if ierr := s.agreement.Invalidate(g); ierr != nil {
				log.WithError(ierr).Warn("invalidate stalled group")
			}
			if errors.Is(err, ErrTimeout) {
				log.Info("agreement stalled, retrying")
				return retry.RetryableError(err)
			}
			return err
		}
		result = g
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("after %d attempts: %w", attempt, err)
	}
	return result, nil
}

func (s *Supervisor) wait(ctx context.Context, g domain.GroupID, ready <-chan domain.GroupID) error {
	if s.agreement.HasKey(g) {
		return nil
	}
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	for {
		select {
		case r := <-ready:
			if r == g {
				return nil
			}
		case <-timer.C:
			return ErrTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func permanent(err error) bool {
	var nv *domain.PeerNotVerifiedError
	return errors.Is(err, domain.ErrGroupSize) || errors.As(err, &nv)
}
