package model

import (
	"github.com/google/uuid"
)

type CreateChatRequest struct {
	PetID   uuid.UUID `json:"pet_id" validate:"required"`
	OwnerID uuid.UUID `json:"owner_id" validate:"required"`
}

type GetChatsRequest struct {
	Query  string `json:"q" validate:"omitempty,max=100"`
	Filter string `json:"filter" validate:"omitempty,oneof=all unread"`
}

type ChatResponse struct {
	ID        uuid.UUID `json:"id"`
	PetID     uuid.UUID `json:"pet_id"`
	CreatedAt string    `json:"created_at"`
}

type ChatDetailResponse struct {
	ID    uuid.UUID `json:"id"`
	PetID uuid.UUID `json:"pet_id"`

	// Pet name, "Pet" when the pet row is gone
	PetName string `json:"pet_name"`

	// Resolved image URL of the pet
	PetImageURL *string `json:"pet_image_url"`

	OwnerID        uuid.UUID `json:"owner_id"`
	OwnerName      string    `json:"owner_name"`
	InterestedID   uuid.UUID `json:"interested_id"`
	InterestedName string    `json:"interested_name"`

	// Role of the current user: owner or interested
	Role    string `json:"role"`
	IsOwner bool   `json:"is_owner"`

	OtherUserID   uuid.UUID `json:"other_user_id"`
	OtherUserName string    `json:"other_user_name"`

	// Number of unread messages for the current user
	UnreadCount int `json:"unread_count"`
}

type InboxRow struct {
	ID uuid.UUID `json:"id"`

	PetID       uuid.UUID `json:"pet_id"`
	PetName     string    `json:"pet_name"`
	PetImageURL *string   `json:"pet_image_url"`

	// The party that is not the current user
	OtherUserID   uuid.UUID `json:"other_user_id"`
	OtherUserName string    `json:"other_user_name"`

	// Preview of the last message, or a placeholder when nothing was sent yet
	LastMessagePreview string `json:"last_message_preview"`
	LastMessageAt      string `json:"last_message_at"`

	// Unread messages for the current user
	UnreadCount int  `json:"unread_count"`
	IsOwner     bool `json:"is_owner"`
}

type InboxResponse struct {
	Chats       []InboxRow `json:"chats"`
	TotalUnread int        `json:"total_unread"`
}
