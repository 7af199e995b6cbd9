package domain

// SessionState models the voice search capture lifecycle.
type SessionState string

const (
	SessionStateIdle                 SessionState = "idle"
	SessionStateRequestingPermission SessionState = "requesting_permission"
	SessionStateListening            SessionState = "listening"
	SessionStateProcessing           SessionState = "processing"
	SessionStateSuccess              SessionState = "success"
	SessionStateError                SessionState = "error"
)

// Active reports whether a session in this state still owns the capture stream.
func (s SessionState) Active() bool {
	switch s {
	case SessionStateRequestingPermission, SessionStateListening, SessionStateProcessing:
		return true
	default:
		return false
	}
}

// TranscriptFragment is one hypothesis delivered by the host speech capability.
type TranscriptFragment struct {
	Text     string `json:"text"`
	IsFinal  bool   `json:"isFinal"`
	Sequence int    `json:"sequence"`
}

// AccumulatedTranscript is the working transcript of the active session.
type AccumulatedTranscript struct {
	FinalText   string `json:"finalText"`
	InterimText string `json:"interimText"`
}

// Snapshot is emitted to subscribers on every session state change.
type Snapshot struct {
	SessionID   string            `json:"sessionId,omitempty"`
	State       SessionState      `json:"state"`
	FinalText   string            `json:"finalText"`
	InterimText string            `json:"interimText"`
	Error       *RecognitionError `json:"error,omitempty"`
}

// Result is emitted once per successful session.
type Result struct {
	SessionID  string      `json:"sessionId"`
	Transcript string      `json:"transcript"`
	Query      ParsedQuery `json:"query"`
	Encoded    string      `json:"encoded"`
	SlotCount  int         `json:"slotCount"`
}
