package reporting

import (
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/require"

	"vozbusca/internal/config"
	"vozbusca/internal/domain"
)

type fakeHub struct {
	captured []error
}

func (h *fakeHub) WithScope(f func(scope *sentry.Scope)) {
	f(sentry.NewScope())
}

func (h *fakeHub) CaptureException(err error) *sentry.EventID {
	h.captured = append(h.captured, err)
	id := sentry.EventID("event")
	return &id
}

type recordingSink struct {
	snapshots int
	results   int
	errors    []domain.RecognitionError
}

func (r *recordingSink) SessionChanged(domain.Snapshot) { r.snapshots++ }
func (r *recordingSink) SessionResult(domain.Result)    { r.results++ }
func (r *recordingSink) SessionError(err domain.RecognitionError) {
	r.errors = append(r.errors, err)
}

func TestSinkCapturesOnlyInternalErrors(t *testing.T) {
	t.Parallel()

	hub := &fakeHub{}
	next := &recordingSink{}
	sink := NewSink(next, hub)

	cause := errors.New("vocabulary table corrupted")
	sink.SessionChanged(domain.Snapshot{SessionID: "s-1", State: domain.SessionStateProcessing})
	sink.SessionError(*domain.NewRecognitionError(domain.ErrorKindPermissionDenied, nil))
	sink.SessionError(*domain.NewRecognitionError(domain.ErrorKindParseFailure, nil))
	sink.SessionError(*domain.NewRecognitionError(domain.ErrorKindInternal, cause))
	sink.SessionResult(domain.Result{})

	require.Len(t, hub.captured, 1)
	require.ErrorIs(t, hub.captured[0], cause)

	var recognition *domain.RecognitionError
	require.ErrorAs(t, hub.captured[0], &recognition)
	require.Equal(t, domain.ErrorKindInternal, recognition.Kind)

	require.Equal(t, 1, next.snapshots)
	require.Equal(t, 1, next.results)
	require.Len(t, next.errors, 3)
}

func TestSinkWithoutHubOnlyForwards(t *testing.T) {
	t.Parallel()

	next := &recordingSink{}
	sink := NewSink(next, nil)
	sink.SessionError(*domain.NewRecognitionError(domain.ErrorKindInternal, nil))

	require.Len(t, next.errors, 1)
}

func TestInitWithoutDSNIsDisabled(t *testing.T) {
	t.Parallel()

	hub, err := Init(config.ReportingConfig{Environment: "test"}, "dev")
	require.NoError(t, err)
	require.Nil(t, hub)
}

func TestInitRejectsMalformedDSN(t *testing.T) {
	t.Parallel()

	_, err := Init(config.ReportingConfig{SentryDSN: "not a dsn"}, "dev")
	require.Error(t, err)
}
