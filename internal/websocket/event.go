package websocket

import (
	"PetAdoptAPI/internal/model"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInboxSnapshot EventType = "inbox.snapshot"
	EventInboxRow      EventType = "inbox.row"

	EventChatSnapshot  EventType = "chat.snapshot"
	EventMessageNew    EventType = "message.new"
	EventMessageUpdate EventType = "message.update"

	EventError EventType = "error"
)

type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
	Meta    *EventMeta  `json:"meta,omitempty"`
}

type EventMeta struct {
	Timestamp int64      `json:"timestamp"`
	ChatID    *uuid.UUID `json:"chat_id,omitempty"`
}

type Action string

const (
	ActionWatchInbox   Action = "watch_inbox"
	ActionUnwatchInbox Action = "unwatch_inbox"
	ActionWatchChat    Action = "watch_chat"
	ActionUnwatchChat  Action = "unwatch_chat"
)

// Command is a client frame.
type Command struct {
	Action Action `json:"action"`
	ChatID string `json:"chat_id,omitempty"`
}

type ChatSnapshot struct {
	Chat     *model.ChatDetailResponse `json:"chat"`
	Messages []model.MessageResponse   `json:"messages"`
	HasMore  bool                      `json:"has_more"`
}

type ErrorPayload struct {
	Action  Action `json:"action,omitempty"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}
