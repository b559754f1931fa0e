package feed

import (
	"context"
	"sync"
)

// LocalFeed delivers changes in process. It backs tests and single-instance deployments.
type LocalFeed struct {
	mu        sync.RWMutex
	listeners map[*localListener]struct{}
	buffer    int
}

type localListener struct {
	ch   chan Change
	done chan struct{}
}

func NewLocalFeed() *LocalFeed {
	return &LocalFeed{
		listeners: make(map[*localListener]struct{}),
		buffer:    256,
	}
}

func (f *LocalFeed) Publish(ctx context.Context, change Change) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for l := range f.listeners {
		select {
		case l.ch <- change:
		case <-l.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *LocalFeed) Listen(ctx context.Context, ready func(), handle func(Change)) error {
	l := &localListener{
		ch:   make(chan Change, f.buffer),
		done: make(chan struct{}),
	}

	f.mu.Lock()
	f.listeners[l] = struct{}{}
	f.mu.Unlock()

	defer func() {
		close(l.done)
		f.mu.Lock()
		delete(f.listeners, l)
		f.mu.Unlock()
	}()

	if ready != nil {
		ready()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change := <-l.ch:
			handle(change)
		}
	}
}

// Listeners reports how many listeners are attached.
func (f *LocalFeed) Listeners() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.listeners)
}
