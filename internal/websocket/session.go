package websocket

import (
	"PetAdoptAPI/internal/broker"
	"PetAdoptAPI/internal/helper"
	"PetAdoptAPI/internal/model"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

type ConversationSource interface {
	GetConversation(ctx context.Context, userID, chatID uuid.UUID) (*model.ChatDetailResponse, error)
}

type HistorySource interface {
	GetMessages(ctx context.Context, userID, chatID uuid.UUID, req model.GetMessagesRequest) ([]model.MessageResponse, bool, error)
}

type InboxSource interface {
	ListConversations(ctx context.Context, userID uuid.UUID, req model.GetChatsRequest) (*model.InboxResponse, error)
	GetInboxRow(ctx context.Context, userID, chatID uuid.UUID) (*model.InboxRow, error)
}

type ReadMarker interface {
	MarkRead(ctx context.Context, userID, chatID uuid.UUID) error
}

type Subscriber interface {
	SubscribeChat(chatID uuid.UUID, handler broker.Handler) *broker.Subscription
	SubscribeUser(userID uuid.UUID, handler broker.Handler) *broker.Subscription
}

// Services are the read paths and the broker a session builds its views from.
type Services struct {
	Chats    ConversationSource
	Messages HistorySource
	Inbox    InboxSource
	Reads    ReadMarker
	Broker   Subscriber
}

type eventSink interface {
	sendEvent(event Event)
}

// Session holds the live views of one connection: at most one inbox view and one view per chat.
type Session struct {
	out      eventSink
	userID   uuid.UUID
	services Services

	mu     sync.Mutex
	closed bool
	inbox  *inboxView
	chats  map[uuid.UUID]*chatView
}

func newSession(out eventSink, userID uuid.UUID, services Services) *Session {
	return &Session{
		out:      out,
		userID:   userID,
		services: services,
		chats:    make(map[uuid.UUID]*chatView),
	}
}

func (s *Session) sendError(action Action, err error) {
	payload := ErrorPayload{Action: action, Code: http.StatusInternalServerError, Message: helper.MsgInternalServerError}

	var appErr *helper.AppError
	if errors.As(err, &appErr) {
		payload.Code = appErr.Code
		payload.Message = appErr.Message
	}
	s.out.sendEvent(Event{Type: EventError, Payload: payload})
}

func (s *Session) Handle(cmd Command) {
	switch cmd.Action {
	case ActionWatchInbox:
		s.watchInbox()
	case ActionUnwatchInbox:
		s.unwatchInbox()
	case ActionWatchChat, ActionUnwatchChat:
		chatID, err := uuid.Parse(cmd.ChatID)
		if err != nil {
			s.sendError(cmd.Action, helper.NewBadRequestError("Invalid chat_id"))
			return
		}
		if cmd.Action == ActionWatchChat {
			s.watchChat(chatID)
		} else {
			s.unwatchChat(chatID)
		}
	default:
		s.sendError(cmd.Action, helper.NewBadRequestError("Unsupported action"))
	}
}

func (s *Session) watchInbox() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	old := s.inbox
	view := newInboxView(s)
	s.inbox = view
	s.mu.Unlock()

	if old != nil {
		old.close()
	}
	view.start()
}

func (s *Session) unwatchInbox() {
	s.mu.Lock()
	old := s.inbox
	s.inbox = nil
	s.mu.Unlock()

	if old != nil {
		old.close()
	}
}

func (s *Session) watchChat(chatID uuid.UUID) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	old := s.chats[chatID]
	view := newChatView(s, chatID)
	s.chats[chatID] = view
	s.mu.Unlock()

	if old != nil {
		old.close()
	}
	view.start()
}

func (s *Session) unwatchChat(chatID uuid.UUID) {
	s.mu.Lock()
	old := s.chats[chatID]
	delete(s.chats, chatID)
	s.mu.Unlock()

	if old != nil {
		old.close()
	}
}

// forget drops view from the session if it is still the current view of its chat.
func (s *Session) forget(view *chatView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chats[view.chatID] == view {
		delete(s.chats, view.chatID)
	}
}

// Close disposes every view. Later watch commands are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	inbox := s.inbox
	chats := make([]*chatView, 0, len(s.chats))
	for _, v := range s.chats {
		chats = append(chats, v)
	}
	s.inbox = nil
	s.chats = make(map[uuid.UUID]*chatView)
	s.mu.Unlock()

	if inbox != nil {
		inbox.close()
	}
	for _, v := range chats {
		v.close()
	}
}

// Views reports the number of open views.
func (s *Session) Views() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.chats)
	if s.inbox != nil {
		n++
	}
	return n
}

func logViewError(view string, err error, userID uuid.UUID) {
	if errors.Is(err, context.Canceled) {
		return
	}
	var appErr *helper.AppError
	if errors.As(err, &appErr) && appErr.Code < http.StatusInternalServerError {
		return
	}
	slog.Warn("Failed to refresh live view", "view", view, "error", err, "userID", userID)
}
