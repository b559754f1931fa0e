package entity

import (
	"time"

	"github.com/google/uuid"
)

type Pet struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Name        string
	ImageURL    *string
	IsAvailable bool
	CreatedAt   time.Time
}
