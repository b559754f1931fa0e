package repository

import (
	"PetAdoptAPI/internal/entity"
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict is returned when an insert violates a uniqueness constraint.
	ErrConflict = errors.New("repository: conflict")
)

type ChatStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error)
	FindByPetAndInterested(ctx context.Context, petID, interestedID uuid.UUID) (*entity.Conversation, error)
	// Create inserts c. It returns ErrConflict when a conversation for (pet, interested) already exists.
	Create(ctx context.Context, c *entity.Conversation) error
	// AppendMessage stores msg and, in the same transaction, refreshes the preview and
	// timestamp and increments the unread counter of recipient.
	AppendMessage(ctx context.Context, msg *entity.Message, recipient entity.Role) (*entity.Conversation, error)
	// MarkRead zeroes reader's counter and flags every unread message sent by the other party.
	// It returns the messages that changed and whether anything changed at all.
	MarkRead(ctx context.Context, chatID, readerID uuid.UUID, reader entity.Role) ([]*entity.Message, bool, error)
	ListInbox(ctx context.Context, userID uuid.UUID) ([]*entity.InboxRecord, error)
	GetInboxRecord(ctx context.Context, chatID uuid.UUID) (*entity.InboxRecord, error)
	// ReconcileUnreadCounts recomputes both counters from the messages table and returns how many conversations drifted.
	ReconcileUnreadCounts(ctx context.Context) (int64, error)
}

type MessageStore interface {
	// ListByChat returns messages ascending by (created_at, id).
	ListByChat(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]*entity.Message, error)
}

type PetStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Pet, error)
	Create(ctx context.Context, p *entity.Pet) error
}

type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	// GetByIDs returns the profiles that exist. Missing ids are simply absent from the map.
	GetByIDs(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*entity.Profile, error)
	// Upsert inserts p or refreshes name and avatar of the profile sharing its email, returning the stored row.
	Upsert(ctx context.Context, p *entity.Profile) (*entity.Profile, error)
}
