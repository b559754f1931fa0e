package broker

import (
	"PetAdoptAPI/internal/feed"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Subscription is a live registration with the broker. Each one runs its own delivery goroutine.
type Subscription struct {
	broker  *Broker
	scope   scope
	key     uuid.UUID
	handler Handler

	queue  chan feed.Change
	resync chan struct{}
	quit   chan struct{}
	done   chan struct{}

	mu       sync.Mutex
	disposed bool
	once     sync.Once
}

func newSubscription(b *Broker, sc scope, key uuid.UUID, handler Handler, size int) *Subscription {
	return &Subscription{
		broker:  b,
		scope:   sc,
		key:     key,
		handler: handler,
		queue:   make(chan feed.Change, size),
		resync:  make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// enqueue never blocks the dispatcher. A full queue turns into a resync request.
func (s *Subscription) enqueue(change feed.Change) {
	select {
	case s.queue <- change:
	default:
		slog.Warn("Subscription queue full, scheduling resync", "scope", s.scope.String(), "key", s.key)
		s.requestResync()
	}
}

func (s *Subscription) requestResync() {
	select {
	case s.resync <- struct{}{}:
	default:
	}
}

func (s *Subscription) run() {
	defer close(s.done)

	for {
		select {
		case <-s.quit:
			return
		case change := <-s.queue:
			s.deliver(change)
		case <-s.resync:
			s.drain()
			s.deliver(s.resyncChange())
		}
	}
}

// drain discards queued changes that a resync supersedes.
func (s *Subscription) drain() {
	for {
		select {
		case <-s.queue:
		default:
			return
		}
	}
}

func (s *Subscription) resyncChange() feed.Change {
	change := feed.Change{Op: feed.OpResync}
	if s.scope == scopeChat {
		change.Table = feed.TableMessages
		change.ChatID = s.key
	} else {
		change.Table = feed.TableChats
	}
	return change
}

func (s *Subscription) deliver(change feed.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}

	defer func() {
		if v := recover(); v != nil {
			slog.Error("Subscription handler panicked", "scope", s.scope.String(), "key", s.key, "panic", v)
		}
	}()
	s.handler(change)
}

// Dispose cancels the subscription. It is idempotent and, once it returns, the handler will not
// be invoked again. It waits for an in-flight handler call, so it must not be called from the
// subscription's own handler.
func (s *Subscription) Dispose() {
	s.once.Do(func() {
		s.broker.remove(s)

		s.mu.Lock()
		s.disposed = true
		s.mu.Unlock()

		close(s.quit)
		<-s.done
	})
}
