package usecase

import (
	"context"
	"sync"
	"testing"

	"vozbusca/internal/domain"
	"vozbusca/internal/intent"
	"vozbusca/internal/ports"
	"vozbusca/internal/query"
	"vozbusca/internal/vocab"
)

type fakeCapability struct {
	mu        sync.Mutex
	listeners []ports.StreamListener
	aborted   []ports.StreamListener
	openErr   error
	closeErr  error
	onOpen    func(ctx context.Context, listener ports.StreamListener)
	onClose   func(listener ports.StreamListener)

	openCalls  int
	closeCalls int
	abortCalls int
}

func (f *fakeCapability) OpenStream(ctx context.Context, listener ports.StreamListener) error {
	f.mu.Lock()
	f.openCalls++
	f.listeners = append(f.listeners, listener)
	hook := f.onOpen
	err := f.openErr
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, listener)
	}
	return err
}

func (f *fakeCapability) CloseStream(listener ports.StreamListener) error {
	f.mu.Lock()
	f.closeCalls++
	hook := f.onClose
	err := f.closeErr
	f.mu.Unlock()

	if hook != nil {
		hook(listener)
	}
	return err
}

func (f *fakeCapability) AbortStream(listener ports.StreamListener) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abortCalls++
	f.aborted = append(f.aborted, listener)
	return nil
}

func (f *fakeCapability) abortedListeners() []ports.StreamListener {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.StreamListener(nil), f.aborted...)
}

func (f *fakeCapability) listener(t *testing.T, index int) ports.StreamListener {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if index >= len(f.listeners) {
		t.Fatalf("stream %d was never opened", index)
	}
	return f.listeners[index]
}

func (f *fakeCapability) counts() (open, closed, aborted int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openCalls, f.closeCalls, f.abortCalls
}

type fakeEventSink struct {
	mu        sync.Mutex
	snapshots []domain.Snapshot
	results   []domain.Result
	errors    []domain.RecognitionError
}

func (f *fakeEventSink) SessionChanged(snapshot domain.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snapshot)
}

func (f *fakeEventSink) SessionResult(result domain.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
}

func (f *fakeEventSink) SessionError(err domain.RecognitionError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, err)
}

func (f *fakeEventSink) snapshotStates() []domain.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Snapshot(nil), f.snapshots...)
}

func (f *fakeEventSink) snapshotResults() []domain.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Result(nil), f.results...)
}

func (f *fakeEventSink) snapshotErrors() []domain.RecognitionError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.RecognitionError(nil), f.errors...)
}

func (f *fakeEventSink) counts() (snapshots, results, errs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots), len(f.results), len(f.errors)
}

type panickingParser struct{}

func (panickingParser) Parse(string) domain.ParseOutcome {
	panic("table corrupted")
}

func newTestController(t *testing.T, capability ports.SpeechCapability, events ports.EventSink) *SessionController {
	t.Helper()
	parser, err := intent.New(vocab.Default())
	if err != nil {
		t.Fatalf("parser init failed: %v", err)
	}
	return NewSessionController(capability, parser, query.Codec{}, events, nil)
}

func final(text string) domain.TranscriptFragment {
	return domain.TranscriptFragment{Text: text, IsFinal: true}
}

func interim(text string) domain.TranscriptFragment {
	return domain.TranscriptFragment{Text: text}
}

// startListening starts a session and confirms the stream.
func startListening(t *testing.T, controller *SessionController, capability *fakeCapability, index int) ports.StreamListener {
	t.Helper()
	if err := controller.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	listener := capability.listener(t, index)
	listener.StreamOpened()
	if state := controller.State(); state != domain.SessionStateListening {
		t.Fatalf("expected listening, got %s", state)
	}
	return listener
}
