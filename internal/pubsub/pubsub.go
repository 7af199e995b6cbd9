// Package pubsub fans session events out to any number of presentation
// subscribers.
package pubsub

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBuffer      = 32
	defaultKickTimeout = 2 * time.Second
)

type Publisher[E any] interface {
	Publish(evt E)
}

type Subscriber[E any] interface {
	Subscribe(ctx context.Context) Subscription[E]
}

type Subscription[E any] interface {
	ResultChan() <-chan E
	Stop()
}

type Option func(*options)

type options struct {
	buffer      int
	kickTimeout time.Duration
	logger      *zap.Logger
}

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(size int) Option {
	return func(o *options) {
		if size >= 0 {
			o.buffer = size
		}
	}
}

// WithKickTimeout sets how long Publish waits on a full subscriber before
// dropping it.
func WithKickTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.kickTimeout = timeout
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// PubSub delivers every published event to every live subscription in
// publish order.
type PubSub[E any] struct {
	opts options

	mutex         sync.RWMutex
	subscriptions map[int64]*subscription[E]
	seq           int64
	stopped       bool
}

func New[E any](opts ...Option) *PubSub[E] {
	o := options{buffer: defaultBuffer, kickTimeout: defaultKickTimeout, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &PubSub[E]{opts: o, subscriptions: map[int64]*subscription[E]{}}
}

// Stop ends every subscription; later subscriptions are closed immediately.
func (p *PubSub[E]) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.stopped = true
	for _, s := range p.subscriptions {
		s.cancel()
	}
}

// Subscribe registers a subscription that lives until Stop or until ctx is
// done.
func (p *PubSub[E]) Subscribe(ctx context.Context) Subscription[E] {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.stopped {
		return closedSubscription[E]{}
	}

	p.seq++
	ctx, cancel := context.WithCancel(ctx)
	s := &subscription[E]{
		id:     p.seq,
		cancel: cancel,
		pubsub: p,
		ch:     make(chan E, p.opts.buffer),
		caller: callerOf(2),
	}
	p.subscriptions[s.id] = s

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return s
}

func (p *PubSub[E]) Publish(evt E) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.stopped {
		return
	}

	for _, s := range p.subscriptions {
		select {
		case s.ch <- evt:
			continue
		default:
		}

		timer := time.NewTimer(p.opts.kickTimeout)
		select {
		case s.ch <- evt:
			timer.Stop()
		case <-timer.C:
			p.opts.logger.Warn("dropping slow subscriber",
				zap.Int64("subscription", s.id),
				zap.String("subscribed_at", s.caller),
				zap.Duration("timeout", p.opts.kickTimeout))
			go s.Stop()
		}
	}
}

// Len reports the number of live subscriptions.
func (p *PubSub[E]) Len() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return len(p.subscriptions)
}

type subscription[E any] struct {
	pubsub *PubSub[E]
	id     int64
	cancel context.CancelFunc
	ch     chan E
	caller string
	closed bool
}

// Stop unsubscribes and closes the result channel, discarding anything
// still buffered.
func (s *subscription[E]) Stop() {
	s.pubsub.mutex.Lock()
	if s.closed {
		s.pubsub.mutex.Unlock()
		return
	}
	s.closed = true
	delete(s.pubsub.subscriptions, s.id)
	s.pubsub.mutex.Unlock()

	close(s.ch)
	s.cancel()
	for range s.ch {
	}
}

func (s *subscription[E]) ResultChan() <-chan E {
	return s.ch
}

type closedSubscription[E any] struct{}

func (closedSubscription[E]) Stop() {}

func (closedSubscription[E]) ResultChan() <-chan E {
	ch := make(chan E)
	close(ch)
	return ch
}

func callerOf(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return file + ":" + strconv.Itoa(line)
}
