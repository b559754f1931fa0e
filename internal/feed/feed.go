// Package feed carries row-level change events from the writers to every live-update broker.
package feed

import (
	"PetAdoptAPI/internal/entity"
	"context"
	"time"

	"github.com/google/uuid"
)

type Table string

const (
	TableChats    Table = "chats"
	TableMessages Table = "messages"
)

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	// OpResync is never published. Brokers hand it to subscribers that may have missed events.
	OpResync Op = "RESYNC"
)

// Change describes one committed insert or update. Chat changes carry both party ids so they can be
// routed to inboxes without another lookup.
type Change struct {
	Table        Table                `json:"table"`
	Op           Op                   `json:"op"`
	ChatID       uuid.UUID            `json:"chat_id"`
	OwnerID      uuid.UUID            `json:"owner_id,omitempty"`
	InterestedID uuid.UUID            `json:"interested_id,omitempty"`
	Message      *entity.Message      `json:"message,omitempty"`
	Chat         *entity.Conversation `json:"chat,omitempty"`
	At           time.Time            `json:"at"`
}

func MessageChange(op Op, msg *entity.Message) Change {
	return Change{
		Table:   TableMessages,
		Op:      op,
		ChatID:  msg.ChatID,
		Message: msg,
		At:      time.Now().UTC(),
	}
}

func ChatChange(op Op, conv *entity.Conversation) Change {
	return Change{
		Table:        TableChats,
		Op:           op,
		ChatID:       conv.ID,
		OwnerID:      conv.OwnerID,
		InterestedID: conv.InterestedID,
		Chat:         conv,
		At:           time.Now().UTC(),
	}
}

// Publisher is the write side of a feed. Writers publish only after their transaction commits.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Feed is a change-event transport.
type Feed interface {
	Publisher
	// Listen blocks, invoking handle for every change, until ctx is done or the transport fails.
	// ready is called once the listener is established.
	Listen(ctx context.Context, ready func(), handle func(Change)) error
}
