package entity

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID        uuid.UUID
	FullName  *string
	Email     string
	AvatarURL *string
	CreatedAt time.Time
}

// DisplayName falls back to fallback when the profile has no usable name.
func (p *Profile) DisplayName(fallback string) string {
	if p == nil || p.FullName == nil || *p.FullName == "" {
		return fallback
	}
	return *p.FullName
}
