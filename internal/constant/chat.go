package constant

import "time"

// Placeholders rendered when joined rows are missing.
const (
	PetNamePlaceholder     = "Pet"
	PreviewPlaceholder     = "No messages yet"
	UnknownUserPlaceholder = "Unknown"
	DetailUserPlaceholder  = "User"
)

const (
	InboxFilterUnread = "unread"
	MaxHistoryPage    = 100
)

// How often the loser of a conversation-creation race re-reads the winner's row.
const (
	ChatResolveRetries   = 3
	ChatResolveBaseDelay = 20 * time.Millisecond
)
