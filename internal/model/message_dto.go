package model

import "github.com/google/uuid"

type SendMessageRequest struct {
	Content string `json:"content" validate:"notblank,max=4000"`
}

type GetMessagesRequest struct {
	Limit  int `json:"limit" validate:"omitempty,gt=0"`
	Offset int `json:"offset" validate:"omitempty,min=0"`
}

type MessageResponse struct {
	ID       uuid.UUID `json:"id"`
	ChatID   uuid.UUID `json:"chat_id"`
	SenderID uuid.UUID `json:"sender_id"`

	// Display name of the sender, "Unknown" when the profile is gone
	SenderName string `json:"sender_name"`

	Content   string `json:"content"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}
