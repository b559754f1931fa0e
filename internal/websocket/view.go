package websocket

import (
	"PetAdoptAPI/internal/broker"
	"PetAdoptAPI/internal/constant"
	"PetAdoptAPI/internal/feed"
	"PetAdoptAPI/internal/helper"
	"PetAdoptAPI/internal/model"
	"PetAdoptAPI/internal/service"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// snapshotMaxMessages bounds the history sent with a chat snapshot. Older pages are loaded over HTTP.
const snapshotMaxMessages = 1000

// liveView is the state shared by the inbox and chat views. Changes that arrive before the first
// snapshot has been sent are held in pending and applied right after it.
type liveView struct {
	session *Session
	ctx     context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	sub      *broker.Subscription
	ready    bool
	disposed bool
	pending  []feed.Change
}

func (v *liveView) init(s *Session) {
	v.session = s
	v.ctx, v.cancel = context.WithCancel(context.Background())
}

// attach stores sub, or disposes it when the view was closed while subscribing.
func (v *liveView) attach(sub *broker.Subscription) bool {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		sub.Dispose()
		return false
	}
	v.sub = sub
	v.mu.Unlock()
	return true
}

// close cancels in-flight fetches and the subscription. Results that arrive afterwards are discarded.
// It must not run on the subscription's own goroutine.
func (v *liveView) close() {
	v.cancel()

	v.mu.Lock()
	v.disposed = true
	sub := v.sub
	v.pending = nil
	v.mu.Unlock()

	if sub != nil {
		sub.Dispose()
	}
}

type inboxView struct {
	liveView
}

func newInboxView(s *Session) *inboxView {
	v := &inboxView{}
	v.init(s)
	return v
}

func (v *inboxView) start() {
	sub := v.session.services.Broker.SubscribeUser(v.session.userID, v.handle)
	if v.attach(sub) {
		go v.load()
	}
}

func (v *inboxView) handle(change feed.Change) {
	if change.Op == feed.OpResync {
		v.load()
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.disposed {
		return
	}
	if !v.ready {
		v.pending = append(v.pending, change)
		return
	}
	v.refreshRow(change.ChatID)
}

// load sends a full inbox snapshot.
func (v *inboxView) load() {
	inbox, err := v.session.services.Inbox.ListConversations(v.ctx, v.session.userID, model.GetChatsRequest{})

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.disposed {
		return
	}
	if err != nil {
		logViewError("inbox", err, v.session.userID)
		v.session.sendError(ActionWatchInbox, err)
	} else {
		v.session.out.sendEvent(Event{Type: EventInboxSnapshot, Payload: inbox})
	}

	refreshed := make(map[uuid.UUID]bool)
	for _, change := range v.pending {
		if !refreshed[change.ChatID] {
			refreshed[change.ChatID] = true
			v.refreshRow(change.ChatID)
		}
	}
	v.pending = nil
	v.ready = true
}

// refreshRow re-reads the denormalized row rather than trusting the change payload. Callers hold v.mu.
func (v *inboxView) refreshRow(chatID uuid.UUID) {
	row, err := v.session.services.Inbox.GetInboxRow(v.ctx, v.session.userID, chatID)
	if err != nil {
		logViewError("inbox", err, v.session.userID)
		return
	}
	v.session.out.sendEvent(Event{Type: EventInboxRow, Payload: row, Meta: &EventMeta{ChatID: &chatID}})
}

type chatView struct {
	liveView
	chatID uuid.UUID
	seen   map[uuid.UUID]bool
	names  map[uuid.UUID]string
}

func newChatView(s *Session, chatID uuid.UUID) *chatView {
	v := &chatView{
		chatID: chatID,
		seen:   make(map[uuid.UUID]bool),
		names:  make(map[uuid.UUID]string),
	}
	v.init(s)
	return v
}

// start subscribes before fetching history so no message committed in between is lost.
func (v *chatView) start() {
	sub := v.session.services.Broker.SubscribeChat(v.chatID, v.handle)
	if v.attach(sub) {
		go v.load()
	}
}

func (v *chatView) handle(change feed.Change) {
	if change.Op == feed.OpResync {
		v.load()
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.disposed {
		return
	}
	if !v.ready {
		v.pending = append(v.pending, change)
		return
	}
	v.apply(change)
}

func (v *chatView) load() {
	detail, err := v.session.services.Chats.GetConversation(v.ctx, v.session.userID, v.chatID)
	if err != nil {
		v.fail(err)
		return
	}

	messages, hasMore, err := v.fetchHistory()
	if err != nil {
		v.fail(err)
		return
	}

	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return
	}

	v.names[detail.OwnerID] = detail.OwnerName
	v.names[detail.InterestedID] = detail.InterestedName
	for _, m := range messages {
		v.seen[m.ID] = true
	}

	v.session.out.sendEvent(Event{
		Type:    EventChatSnapshot,
		Payload: ChatSnapshot{Chat: detail, Messages: messages, HasMore: hasMore},
		Meta:    &EventMeta{ChatID: &v.chatID},
	})

	for _, change := range v.pending {
		v.apply(change)
	}
	v.pending = nil
	v.ready = true
	v.mu.Unlock()

	if detail.UnreadCount > 0 {
		go v.markRead()
	}
}

func (v *chatView) fetchHistory() ([]model.MessageResponse, bool, error) {
	all := make([]model.MessageResponse, 0)
	for {
		page, hasNext, err := v.session.services.Messages.GetMessages(v.ctx, v.session.userID, v.chatID,
			model.GetMessagesRequest{Limit: constant.MaxHistoryPage, Offset: len(all)})
		if err != nil {
			return nil, false, err
		}
		all = append(all, page...)

		if !hasNext || len(page) == 0 {
			return all, false, nil
		}
		if len(all) >= snapshotMaxMessages {
			return all, true, nil
		}
	}
}

// fail reports a load error. Access errors end the view since retrying cannot succeed.
func (v *chatView) fail(err error) {
	if v.ctx.Err() != nil {
		return
	}

	logViewError("chat", err, v.session.userID)
	v.session.sendError(ActionWatchChat, err)

	var appErr *helper.AppError
	if errors.As(err, &appErr) && (appErr.Code == http.StatusForbidden || appErr.Code == http.StatusNotFound) {
		v.session.forget(v)
		// load may be running on the subscription goroutine, where close must not be called.
		go v.close()
	}
}

// apply upserts one live message. Callers hold v.mu.
func (v *chatView) apply(change feed.Change) {
	msg := change.Message
	if msg == nil || msg.ChatID != v.chatID {
		return
	}

	name, ok := v.names[msg.SenderID]
	if !ok {
		name = constant.UnknownUserPlaceholder
	}
	resp := service.MessageToResponse(msg, name)

	switch change.Op {
	case feed.OpInsert:
		if v.seen[msg.ID] {
			return
		}
		v.seen[msg.ID] = true
		v.session.out.sendEvent(Event{Type: EventMessageNew, Payload: resp, Meta: &EventMeta{ChatID: &v.chatID}})

		if msg.SenderID != v.session.userID {
			go v.markRead()
		}
	case feed.OpUpdate:
		v.seen[msg.ID] = true
		v.session.out.sendEvent(Event{Type: EventMessageUpdate, Payload: resp, Meta: &EventMeta{ChatID: &v.chatID}})
	}
}

// markRead clears the viewer's unread state while the conversation is on screen.
func (v *chatView) markRead() {
	if v.session.services.Reads == nil || v.ctx.Err() != nil {
		return
	}
	if err := v.session.services.Reads.MarkRead(v.ctx, v.session.userID, v.chatID); err != nil {
		slog.Debug("Live mark read rejected", "error", err, "chatID", v.chatID, "userID", v.session.userID)
	}
}
