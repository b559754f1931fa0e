package entity

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's position in a conversation. It is derived from the conversation row and never stored.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleInterested Role = "interested"
)

// Other returns the counterpart role.
func (r Role) Other() Role {
	if r == RoleOwner {
		return RoleInterested
	}
	return RoleOwner
}

// Conversation is the single thread between a pet's owner and one interested user.
type Conversation struct {
	ID                    uuid.UUID `json:"id"`
	PetID                 uuid.UUID `json:"pet_id"`
	OwnerID               uuid.UUID `json:"owner_id"`
	InterestedID          uuid.UUID `json:"interested_id"`
	LastMessagePreview    *string   `json:"last_message_preview,omitempty"`
	LastMessageAt         time.Time `json:"last_message_at"`
	OwnerUnreadCount      int       `json:"owner_unread_count"`
	InterestedUnreadCount int       `json:"interested_unread_count"`
	CreatedAt             time.Time `json:"created_at"`
}

func NewConversation(petID, ownerID, interestedID uuid.UUID, now time.Time) *Conversation {
	return &Conversation{
		ID:            uuid.New(),
		PetID:         petID,
		OwnerID:       ownerID,
		InterestedID:  interestedID,
		LastMessageAt: now,
		CreatedAt:     now,
	}
}

// RoleOf reports the role userID plays here. ok is false for anyone who is not a party.
func (c *Conversation) RoleOf(userID uuid.UUID) (role Role, ok bool) {
	switch userID {
	case uuid.Nil:
		return "", false
	case c.OwnerID:
		return RoleOwner, true
	case c.InterestedID:
		return RoleInterested, true
	}
	return "", false
}

func (c *Conversation) PartyID(role Role) uuid.UUID {
	if role == RoleOwner {
		return c.OwnerID
	}
	return c.InterestedID
}

func (c *Conversation) UnreadFor(role Role) int {
	if role == RoleOwner {
		return c.OwnerUnreadCount
	}
	return c.InterestedUnreadCount
}

// Parties returns the owner and interested ids.
func (c *Conversation) Parties() []uuid.UUID {
	return []uuid.UUID{c.OwnerID, c.InterestedID}
}

// InboxRecord is a conversation joined with the pet and both party profiles.
// Joined columns are nil when the referenced row is missing.
type InboxRecord struct {
	Conversation
	PetName        *string
	PetImageURL    *string
	OwnerName      *string
	InterestedName *string
}

// CounterpartName returns the display name of the party opposite role.
func (r *InboxRecord) CounterpartName(role Role) *string {
	if role == RoleOwner {
		return r.InterestedName
	}
	return r.OwnerName
}
