package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"vozbusca/internal/domain"
	"vozbusca/internal/pubsub"
	"vozbusca/internal/usecase"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSession struct {
	events *pubsub.Broadcaster

	mu       sync.Mutex
	startErr error
	onStart  func(*pubsub.Broadcaster)
	onStop   func(*pubsub.Broadcaster)
	stops    int
	cancels  int
}

func (f *fakeSession) Start(context.Context) error {
	if f.onStart != nil {
		f.onStart(f.events)
	}
	return f.startErr
}

func (f *fakeSession) Stop() error {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
	if f.onStop != nil {
		f.onStop(f.events)
	}
	return nil
}

func (f *fakeSession) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
}

func (f *fakeSession) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops, f.cancels
}

func TestConsolePrintsSuccessfulSession(t *testing.T) {
	t.Parallel()

	events := pubsub.NewBroadcaster()
	defer events.Stop()

	session := &fakeSession{
		events: events,
		onStart: func(b *pubsub.Broadcaster) {
			b.SessionChanged(domain.Snapshot{SessionID: "s1", State: domain.SessionStateRequestingPermission})
			b.SessionChanged(domain.Snapshot{SessionID: "s1", State: domain.SessionStateListening})
			b.SessionChanged(domain.Snapshot{SessionID: "s1", State: domain.SessionStateListening, InterimText: "casa por"})
			b.SessionChanged(domain.Snapshot{SessionID: "s1", State: domain.SessionStateListening, FinalText: "Casa por menos de 2000 soles"})
		},
		onStop: func(b *pubsub.Broadcaster) {
			b.SessionChanged(domain.Snapshot{SessionID: "s1", State: domain.SessionStateProcessing})
			b.SessionResult(domain.Result{
				SessionID:  "s1",
				Transcript: "Casa por menos de 2000 soles",
				Encoded:    "maxPrice=2000&propertyType=house",
				SlotCount:  2,
			})
			b.SessionChanged(domain.Snapshot{SessionID: "s1", State: domain.SessionStateSuccess})
		},
	}

	var out bytes.Buffer
	c := newConsole(&out, "https://inmuebles.example.pe/buscar")
	if err := c.Listen(context.Background(), session, events, strings.NewReader("\n")); err != nil {
		t.Fatalf("listen failed: %v", err)
	}

	printed := out.String()
	for _, want := range []string{
		"Solicitando acceso al micrófono...",
		"Escuchando.",
		"» casa por",
		"» Casa por menos de 2000 soles",
		"Procesando tu búsqueda...",
		"Filtros (2): maxPrice=2000&propertyType=house",
		"Ver resultados: https://inmuebles.example.pe/buscar?maxPrice=2000&propertyType=house",
		"Búsqueda lista.",
	} {
		if !strings.Contains(printed, want) {
			t.Fatalf("expected %q in output:\n%s", want, printed)
		}
	}
	if strings.Count(printed, "Escuchando.") != 1 {
		t.Fatalf("expected state message once:\n%s", printed)
	}
	if stops, _ := session.counts(); stops != 1 {
		t.Fatalf("expected one stop, got %d", stops)
	}
}

func TestConsoleReportsSessionError(t *testing.T) {
	t.Parallel()

	events := pubsub.NewBroadcaster()
	defer events.Stop()

	failure := domain.NewRecognitionError(domain.ErrorKindPermissionDenied, nil)
	session := &fakeSession{
		events:   events,
		startErr: failure,
		onStart: func(b *pubsub.Broadcaster) {
			b.SessionChanged(domain.Snapshot{State: domain.SessionStateRequestingPermission})
			b.SessionError(*failure)
			b.SessionChanged(domain.Snapshot{State: domain.SessionStateError, Error: failure})
		},
	}

	reader, writer := io.Pipe()
	defer writer.Close()

	var out bytes.Buffer
	err := newConsole(&out, "http://localhost:3000/buscar").Listen(context.Background(), session, events, reader)
	if !errors.Is(err, errSessionFailed) {
		t.Fatalf("expected session failure, got %v", err)
	}
	if !strings.Contains(out.String(), "Error: "+domain.DefaultMessage(domain.ErrorKindPermissionDenied)) {
		t.Fatalf("expected permission message, got:\n%s", out.String())
	}
}

func TestConsoleIgnoresInputAfterSessionSettles(t *testing.T) {
	t.Parallel()

	events := pubsub.NewBroadcaster()
	defer events.Stop()

	failure := domain.NewRecognitionError(domain.ErrorKindNetworkUnavailable, nil)
	session := &fakeSession{
		events:   events,
		startErr: failure,
		onStart: func(b *pubsub.Broadcaster) {
			b.SessionError(*failure)
			b.SessionChanged(domain.Snapshot{State: domain.SessionStateError, Error: failure})
		},
	}

	reader, writer := io.Pipe()
	err := newConsole(io.Discard, "").Listen(context.Background(), session, events, reader)
	if !errors.Is(err, errSessionFailed) {
		t.Fatalf("expected session failure, got %v", err)
	}

	if _, err := writer.Write([]byte("\n")); err != nil {
		t.Fatalf("write input: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close input: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if stops, _ := session.counts(); stops != 0 {
		t.Fatalf("expected no stop after listen returned, got %d", stops)
	}
}

func TestConsoleReturnsStartRejection(t *testing.T) {
	t.Parallel()

	events := pubsub.NewBroadcaster()
	defer events.Stop()

	session := &fakeSession{events: events, startErr: domain.NewRecognitionError(domain.ErrorKindInternal, usecase.ErrSessionActive)}
	err := newConsole(io.Discard, "").Listen(context.Background(), session, events, strings.NewReader(""))
	if !errors.Is(err, usecase.ErrSessionActive) {
		t.Fatalf("expected start rejection, got %v", err)
	}
}

func TestConsoleCancelsOnContextDone(t *testing.T) {
	t.Parallel()

	events := pubsub.NewBroadcaster()
	defer events.Stop()

	session := &fakeSession{
		events: events,
		onStart: func(b *pubsub.Broadcaster) {
			b.SessionChanged(domain.Snapshot{State: domain.SessionStateListening})
		},
	}

	reader, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	if err := newConsole(&out, "").Listen(ctx, session, events, reader); err != nil {
		t.Fatalf("expected clean cancel, got %v", err)
	}
	stops, cancels := session.counts()
	if cancels != 1 || stops != 0 {
		t.Fatalf("expected one cancel and no stop, got cancels=%d stops=%d", cancels, stops)
	}
	if !strings.Contains(out.String(), "Búsqueda cancelada.") {
		t.Fatalf("expected cancel message, got:\n%s", out.String())
	}
}

func TestConsoleReportsInvalidSearchLink(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	newConsole(&out, "ftp://inmuebles").printResult(domain.Result{Transcript: "casa", Encoded: "propertyType=house", SlotCount: 1})
	if !strings.Contains(out.String(), "No se pudo armar el enlace de búsqueda") {
		t.Fatalf("expected link error, got:\n%s", out.String())
	}
}

func TestJoinTranscript(t *testing.T) {
	t.Parallel()

	cases := map[[2]string]string{
		{"", ""}:             "",
		{"casa", ""}:         "casa",
		{"", "en"}:           "en",
		{"casa", "en surco"}: "casa en surco",
	}
	for in, want := range cases {
		if got := joinTranscript(in[0], in[1]); got != want {
			t.Fatalf("joinTranscript(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}
