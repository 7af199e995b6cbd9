package ports

import (
	"context"
	"errors"
	"io"

	"vozbusca/internal/domain"
)

// Open failures a SpeechCapability reports from OpenStream. The session
// classifies them with errors.Is.
var (
	ErrNotSupported            = errors.New("speech capability not supported")
	ErrInsecureContext         = errors.New("speech capability requires a secure context")
	ErrPermissionDenied        = errors.New("microphone permission denied")
	ErrAudioCaptureUnavailable = errors.New("no audio capture device available")
	ErrNetworkUnavailable      = errors.New("speech capability network unavailable")

	// ErrNoStream is returned by CloseStream when the listener owns no live stream.
	ErrNoStream = errors.New("no live speech stream")
)

// EngineErrorCode is the coarse error code delivered by the host engine.
type EngineErrorCode string

const (
	EngineErrorNotAllowed          EngineErrorCode = "not-allowed"
	EngineErrorServiceNotAllowed   EngineErrorCode = "service-not-allowed"
	EngineErrorNoSpeech            EngineErrorCode = "no-speech"
	EngineErrorAudioCapture        EngineErrorCode = "audio-capture"
	EngineErrorNetwork             EngineErrorCode = "network"
	EngineErrorAborted             EngineErrorCode = "aborted"
	EngineErrorLanguageUnsupported EngineErrorCode = "language-not-supported"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// StreamListener receives the host engine's event stream. Calls may come
// from any goroutine.
type StreamListener interface {
	StreamOpened()
	Fragments(batch []domain.TranscriptFragment)
	StreamEnded()
	StreamFailed(code EngineErrorCode, message string)
}

// SpeechCapability is the host streaming transcription engine.
//
// A stream belongs to the listener it was opened with. OpenStream must not
// register a stream once ctx is done. CloseStream asks the engine to flush
// and finish; pending finals and then StreamEnded follow. AbortStream tears
// the stream down immediately and any event delivered after it may be
// dropped. Both leave streams owned by other listeners alone.
type SpeechCapability interface {
	OpenStream(ctx context.Context, listener StreamListener) error
	CloseStream(listener StreamListener) error
	AbortStream(listener StreamListener) error
}

// IntentParser extracts search slots from a final transcript.
type IntentParser interface {
	Parse(transcript string) domain.ParseOutcome
}

// QueryEncoder produces the canonical query string handed to the search service.
type QueryEncoder interface {
	Encode(q domain.ParsedQuery) string
}

// EventSink emits session snapshots and outcomes to the presentation layer.
type EventSink interface {
	SessionChanged(snapshot domain.Snapshot)
	SessionResult(result domain.Result)
	SessionError(err domain.RecognitionError)
}
