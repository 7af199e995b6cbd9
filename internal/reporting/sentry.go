// Package reporting forwards internal session failures to Sentry.
package reporting

import (
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"vozbusca/internal/config"
	"vozbusca/internal/domain"
	"vozbusca/internal/ports"
)

const flushTimeout = 2 * time.Second

// Hub is the subset of *sentry.Hub the sink needs.
type Hub interface {
	WithScope(f func(scope *sentry.Scope))
	CaptureException(err error) *sentry.EventID
}

// Init configures the global Sentry client. It returns a nil hub when no DSN
// is configured.
func Init(cfg config.ReportingConfig, release string) (*sentry.Hub, error) {
	if cfg.SentryDSN == "" {
		return nil, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     release,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry init failed: %w", err)
	}
	return sentry.CurrentHub(), nil
}

// Flush waits for buffered events to be delivered.
func Flush() {
	sentry.Flush(flushTimeout)
}

// Sink passes every emission through to next and captures internal errors.
// Expected failures such as missing permission or unparseable requests are
// not reported.
type Sink struct {
	next ports.EventSink
	hub  Hub

	mu        sync.Mutex
	sessionID string
	state     domain.SessionState
}

func NewSink(next ports.EventSink, hub Hub) *Sink {
	return &Sink{next: next, hub: hub}
}

func (s *Sink) SessionChanged(snapshot domain.Snapshot) {
	s.mu.Lock()
	s.sessionID = snapshot.SessionID
	s.state = snapshot.State
	s.mu.Unlock()

	if s.next != nil {
		s.next.SessionChanged(snapshot)
	}
}

func (s *Sink) SessionResult(result domain.Result) {
	if s.next != nil {
		s.next.SessionResult(result)
	}
}

func (s *Sink) SessionError(err domain.RecognitionError) {
	if err.Kind == domain.ErrorKindInternal && s.hub != nil {
		s.mu.Lock()
		sessionID, state := s.sessionID, s.state
		s.mu.Unlock()

		failure := err
		s.hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("error_kind", string(failure.Kind))
			scope.SetTag("session_state", string(state))
			scope.SetExtra("session_id", sessionID)
			s.hub.CaptureException(&failure)
		})
	}

	if s.next != nil {
		s.next.SessionError(err)
	}
}
