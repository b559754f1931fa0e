// Package broker routes change events from a feed to in-process subscribers.
//
// Two scopes exist: a conversation scope that sees message inserts and updates for one
// conversation, and a user scope that sees conversation inserts and updates where the user
// is either party. Delivery is at-least-once and ordered per subscription. When a subscriber
// may have missed events (its queue overflowed or the feed was re-established) it receives a
// change with Op feed.OpResync and is expected to re-fetch.
package broker

import (
	"PetAdoptAPI/internal/feed"
	"PetAdoptAPI/internal/helper"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultQueueSize = 64

type scope int

const (
	scopeChat scope = iota
	scopeUser
)

func (s scope) String() string {
	if s == scopeChat {
		return "chat"
	}
	return "user"
}

// Handler receives changes for one subscription. Calls for the same subscription never overlap.
type Handler func(feed.Change)

type Broker struct {
	feed        feed.Feed
	backoffBase time.Duration
	backoffMax  time.Duration
	queueSize   int

	mu    sync.RWMutex
	chats map[uuid.UUID]map[*Subscription]struct{}
	users map[uuid.UUID]map[*Subscription]struct{}
}

func New(f feed.Feed, backoffBase, backoffMax time.Duration) *Broker {
	if backoffBase <= 0 {
		backoffBase = 200 * time.Millisecond
	}
	if backoffMax < backoffBase {
		backoffMax = backoffBase
	}

	return &Broker{
		feed:        f,
		backoffBase: backoffBase,
		backoffMax:  backoffMax,
		queueSize:   defaultQueueSize,
		chats:       make(map[uuid.UUID]map[*Subscription]struct{}),
		users:       make(map[uuid.UUID]map[*Subscription]struct{}),
	}
}

// Publish forwards change to the feed. It exists so writers depend on one object.
func (b *Broker) Publish(ctx context.Context, change feed.Change) error {
	return b.feed.Publish(ctx, change)
}

// Run listens to the feed until ctx is done, re-establishing the listener with exponential
// backoff whenever it fails.
func (b *Broker) Run(ctx context.Context) {
	attempt := 0
	established := false

	for {
		ready := func() {
			if established {
				slog.Info("Change feed listener re-established", "attempts", attempt)
				b.resyncAll()
			}
			established = true
			attempt = 0
		}

		err := b.feed.Listen(ctx, ready, b.dispatch)
		if ctx.Err() != nil {
			return
		}

		delay := helper.Backoff(attempt, b.backoffBase, b.backoffMax)
		attempt++
		slog.Warn("Change feed listener stopped, resubscribing", "error", err, "attempt", attempt, "delay", delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// SubscribeChat delivers message changes of one conversation.
func (b *Broker) SubscribeChat(chatID uuid.UUID, handler Handler) *Subscription {
	return b.subscribe(scopeChat, chatID, handler)
}

// SubscribeUser delivers changes to conversations where userID is owner or interested.
func (b *Broker) SubscribeUser(userID uuid.UUID, handler Handler) *Subscription {
	return b.subscribe(scopeUser, userID, handler)
}

func (b *Broker) subscribe(sc scope, key uuid.UUID, handler Handler) *Subscription {
	sub := newSubscription(b, sc, key, handler, b.queueSize)

	b.mu.Lock()
	index := b.index(sc)
	set, ok := index[key]
	if !ok {
		set = make(map[*Subscription]struct{})
		index[key] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()

	go sub.run()

	slog.Debug("Subscription opened", "scope", sc.String(), "key", key)
	return sub
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	index := b.index(sub.scope)
	if set, ok := index[sub.key]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(index, sub.key)
		}
	}
}

func (b *Broker) index(sc scope) map[uuid.UUID]map[*Subscription]struct{} {
	if sc == scopeChat {
		return b.chats
	}
	return b.users
}

func (b *Broker) dispatch(change feed.Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	switch change.Table {
	case feed.TableMessages:
		for sub := range b.chats[change.ChatID] {
			sub.enqueue(change)
		}
	case feed.TableChats:
		for sub := range b.users[change.OwnerID] {
			sub.enqueue(change)
		}
		if change.InterestedID != change.OwnerID {
			for sub := range b.users[change.InterestedID] {
				sub.enqueue(change)
			}
		}
	default:
		slog.Warn("Ignoring change for unknown table", "table", change.Table)
	}
}

func (b *Broker) resyncAll() {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, index := range []map[uuid.UUID]map[*Subscription]struct{}{b.chats, b.users} {
		for _, set := range index {
			for sub := range set {
				sub.requestResync()
			}
		}
	}
}

// Subscriptions reports the number of live subscriptions.
func (b *Broker) Subscriptions() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, set := range b.chats {
		n += len(set)
	}
	for _, set := range b.users {
		n += len(set)
	}
	return n
}
