package pubsub

import (
	"time"

	"vozbusca/internal/domain"
)

// sinkKickTimeout bounds how long a session transition waits on a full
// subscriber.
const sinkKickTimeout = 250 * time.Millisecond

type EventKind string

const (
	EventSnapshot EventKind = "snapshot"
	EventResult   EventKind = "result"
	EventError    EventKind = "error"
)

// SessionEvent is one session emission. Exactly one payload matches Kind.
type SessionEvent struct {
	Kind     EventKind                `json:"kind"`
	Snapshot *domain.Snapshot         `json:"snapshot,omitempty"`
	Result   *domain.Result           `json:"result,omitempty"`
	Error    *domain.RecognitionError `json:"error,omitempty"`
}

// Broadcaster is a ports.EventSink that republishes session emissions to
// subscribers.
type Broadcaster struct {
	*PubSub[SessionEvent]
}

// NewBroadcaster returns a Broadcaster whose subscribers are dropped once they
// stay full for sinkKickTimeout. The session publishes while holding its own
// lock, so a stalled subscriber delays every transition by up to that long.
// Options override the default.
func NewBroadcaster(opts ...Option) *Broadcaster {
	opts = append([]Option{WithKickTimeout(sinkKickTimeout)}, opts...)
	return &Broadcaster{PubSub: New[SessionEvent](opts...)}
}

func (b *Broadcaster) SessionChanged(snapshot domain.Snapshot) {
	b.Publish(SessionEvent{Kind: EventSnapshot, Snapshot: &snapshot})
}

func (b *Broadcaster) SessionResult(result domain.Result) {
	b.Publish(SessionEvent{Kind: EventResult, Result: &result})
}

func (b *Broadcaster) SessionError(err domain.RecognitionError) {
	b.Publish(SessionEvent{Kind: EventError, Error: &err})
}
