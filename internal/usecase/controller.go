package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vozbusca/internal/domain"
	"vozbusca/internal/ports"
)

var (
	ErrNoActiveSession = errors.New("no active voice search session")
	ErrSessionActive   = errors.New("a voice search session is already active")
)

// SessionController owns one voice search session at a time and drives it
// through the capture state machine.
//
// Every inbound call and listener callback runs its transition under one
// lock, so host callbacks from any goroutine are applied one at a time.
// Sink methods are invoked while that lock is held and must not call back
// into the controller synchronously.
type SessionController struct {
	capability ports.SpeechCapability
	events     ports.EventSink
	finalizer  transcriptFinalizer
	logger     *zap.Logger
	newID      func() string

	mu         sync.Mutex
	state      domain.SessionState
	sessionID  string
	generation uint64
	transcript *transcriptAggregator
	errorFlag  bool
	lastErr    *domain.RecognitionError

	// listener owns the current stream; cancelSession releases the context
	// handed to OpenStream. stopping is set between Stop and the engine's
	// StreamEnded.
	listener      *streamListener
	cancelSession context.CancelFunc
	stopping      bool
}

func NewSessionController(
	capability ports.SpeechCapability,
	parser ports.IntentParser,
	encoder ports.QueryEncoder,
	events ports.EventSink,
	logger *zap.Logger,
) *SessionController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionController{
		capability: capability,
		events:     events,
		finalizer:  newTranscriptFinalizer(parser, encoder),
		logger:     logger,
		newID:      uuid.NewString,
		state:      domain.SessionStateIdle,
		transcript: newTranscriptAggregator(),
	}
}

// Start opens a new capture session. It is rejected while another session
// is still requesting permission, listening or processing.
func (c *SessionController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Active() {
		c.mu.Unlock()
		rejection := domain.NewRecognitionError(domain.ErrorKindInternal, ErrSessionActive)
		rejection.Message = "Ya hay una búsqueda por voz en curso."
		return rejection
	}

	c.releaseLocked()
	c.generation++
	generation := c.generation
	c.sessionID = c.newID()
	c.transcript.Reset()
	c.errorFlag = false
	c.lastErr = nil
	c.stopping = false
	c.listener = nil

	if c.capability == nil {
		failure := domain.NewRecognitionError(domain.ErrorKindNotSupported, ports.ErrNotSupported)
		c.failLocked(failure)
		c.mu.Unlock()
		return failure
	}

	listener := &streamListener{controller: c, generation: generation}
	sessionCtx, cancel := context.WithCancel(ctx)
	c.listener = listener
	c.cancelSession = cancel
	c.transitionLocked(domain.SessionStateRequestingPermission)
	c.mu.Unlock()

	openErr := c.capability.OpenStream(sessionCtx, listener)

	c.mu.Lock()
	if c.generation != generation {
		// Cancelled or restarted while the stream was opening.
		c.mu.Unlock()
		if openErr == nil {
			c.abortStream(listener)
		}
		return nil
	}
	if openErr == nil {
		c.mu.Unlock()
		return nil
	}
	if !c.state.Active() {
		// The listener already reported the failure.
		failure := c.lastErr
		c.mu.Unlock()
		if failure != nil {
			return failure
		}
		return openErr
	}

	failure := domain.NewRecognitionError(classifyOpenError(openErr), openErr)
	c.errorFlag = true
	c.failLocked(failure)
	c.mu.Unlock()
	return failure
}

// Stop ends capture. The session moves to processing and finalizes once the
// engine has flushed its last results and ended the stream. Fragments keep
// merging until then and further Stop calls are rejected.
func (c *SessionController) Stop() error {
	c.mu.Lock()
	switch c.state {
	case domain.SessionStateRequestingPermission:
		// Nothing has been heard yet.
		listener := c.listener
		c.finishLocked()
		c.mu.Unlock()
		c.abortStream(listener)
		return nil
	case domain.SessionStateListening:
	default:
		c.mu.Unlock()
		return ErrNoActiveSession
	}

	generation := c.generation
	listener := c.listener
	c.stopping = true
	c.transitionLocked(domain.SessionStateProcessing)
	c.mu.Unlock()

	err := c.capability.CloseStream(listener)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ports.ErrNoStream) {
		c.logger.Warn("failed to close speech stream", zap.Error(err))
	}

	// No StreamEnded will follow; finalize what was heard.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == generation && c.stopping {
		c.finishLocked()
	}
	return nil
}

// Cancel discards the current session from any state without emitting
// anything. Events delivered for the discarded stream are ignored.
func (c *SessionController) Cancel() {
	c.mu.Lock()
	previous := c.state
	listener := c.listener
	// A stream still opening sees its context done before it can register.
	c.releaseLocked()
	c.generation++
	c.transcript.Reset()
	c.errorFlag = false
	c.lastErr = nil
	c.stopping = false
	c.listener = nil
	c.state = domain.SessionStateIdle
	sessionID := c.sessionID
	c.mu.Unlock()

	if previous == domain.SessionStateIdle {
		return
	}
	c.logger.Debug("session cancelled", zap.String("session", sessionID), zap.String("from", string(previous)))
	c.abortStream(listener)
}

// State returns the current session state.
func (c *SessionController) State() domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the current session status.
func (c *SessionController) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *SessionController) onOpened(generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation || c.state != domain.SessionStateRequestingPermission {
		return
	}
	c.transitionLocked(domain.SessionStateListening)
}

func (c *SessionController) onFragments(generation uint64, batch []domain.TranscriptFragment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation || c.errorFlag {
		return
	}
	switch c.state {
	case domain.SessionStateRequestingPermission:
		// Engines that never confirm the open start with their first result.
		c.state = domain.SessionStateListening
	case domain.SessionStateListening:
	case domain.SessionStateProcessing:
		if !c.stopping {
			return
		}
	default:
		return
	}

	c.transcript.Merge(batch)
	c.emitSnapshotLocked()
}

func (c *SessionController) onEnded(generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return
	}
	if c.errorFlag {
		// The failure was already reported; end quietly.
		c.transcript.Reset()
		c.lastErr = nil
		c.transitionLocked(domain.SessionStateIdle)
		return
	}
	if c.capturingLocked() {
		c.finishLocked()
	}
}

func (c *SessionController) onFailed(generation uint64, code ports.EngineErrorCode, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation || c.errorFlag {
		return
	}
	if !c.capturingLocked() {
		return
	}

	c.errorFlag = true
	c.failLocked(domain.NewRecognitionError(classifyEngineCode(code), fmt.Errorf("engine error %q: %s", code, message)))
}

// capturingLocked reports whether engine events still belong to the session.
func (c *SessionController) capturingLocked() bool {
	switch c.state {
	case domain.SessionStateRequestingPermission, domain.SessionStateListening:
		return true
	case domain.SessionStateProcessing:
		return c.stopping
	default:
		return false
	}
}

func (c *SessionController) finishLocked() {
	c.stopping = false
	final := c.transcript.Final()
	if final == "" {
		c.failLocked(domain.NewRecognitionError(domain.ErrorKindNoSpeechDetected, nil))
		return
	}

	if c.state != domain.SessionStateProcessing {
		c.transitionLocked(domain.SessionStateProcessing)
	}

	result, failure := c.finalizer.Finalize(c.sessionID, final)
	if failure != nil {
		c.failLocked(failure)
		return
	}

	c.transcript.Reset()
	c.releaseLocked()
	c.state = domain.SessionStateSuccess
	c.logger.Info("voice search parsed",
		zap.String("session", c.sessionID),
		zap.Int("slots", result.SlotCount),
		zap.String("query", result.Encoded))
	if c.events != nil {
		c.events.SessionResult(result)
	}
	c.emitSnapshotLocked()
}

func (c *SessionController) failLocked(failure *domain.RecognitionError) {
	c.transcript.Reset()
	c.stopping = false
	c.releaseLocked()
	c.lastErr = failure
	c.state = domain.SessionStateError

	fields := []zap.Field{zap.String("session", c.sessionID), zap.String("kind", string(failure.Kind))}
	if cause := failure.Unwrap(); cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	if failure.Kind == domain.ErrorKindInternal {
		c.logger.Error("voice search failed", fields...)
	} else {
		c.logger.Warn("voice search failed", fields...)
	}

	if c.events != nil {
		c.events.SessionError(*failure)
	}
	c.emitSnapshotLocked()
}

func (c *SessionController) transitionLocked(state domain.SessionState) {
	c.logger.Debug("session state changed",
		zap.String("session", c.sessionID),
		zap.String("from", string(c.state)),
		zap.String("to", string(state)))
	c.state = state
	c.emitSnapshotLocked()
}

func (c *SessionController) emitSnapshotLocked() {
	if c.events == nil {
		return
	}
	c.events.SessionChanged(c.snapshotLocked())
}

func (c *SessionController) snapshotLocked() domain.Snapshot {
	transcript := c.transcript.Snapshot()
	snapshot := domain.Snapshot{
		SessionID:   c.sessionID,
		State:       c.state,
		FinalText:   transcript.FinalText,
		InterimText: transcript.InterimText,
	}
	if c.state == domain.SessionStateError && c.lastErr != nil {
		failure := *c.lastErr
		snapshot.Error = &failure
	}
	return snapshot
}

// releaseLocked cancels the context of the current stream.
func (c *SessionController) releaseLocked() {
	if c.cancelSession != nil {
		c.cancelSession()
		c.cancelSession = nil
	}
}

func (c *SessionController) abortStream(listener *streamListener) {
	if c.capability == nil || listener == nil {
		return
	}
	if err := c.capability.AbortStream(listener); err != nil {
		c.logger.Warn("failed to abort speech stream", zap.Error(err))
	}
}

// streamListener binds host callbacks to the stream generation they were
// opened for.
type streamListener struct {
	controller *SessionController
	generation uint64
}

func (l *streamListener) StreamOpened() {
	l.controller.onOpened(l.generation)
}

func (l *streamListener) Fragments(batch []domain.TranscriptFragment) {
	l.controller.onFragments(l.generation, batch)
}

func (l *streamListener) StreamEnded() {
	l.controller.onEnded(l.generation)
}

func (l *streamListener) StreamFailed(code ports.EngineErrorCode, message string) {
	l.controller.onFailed(l.generation, code, message)
}
