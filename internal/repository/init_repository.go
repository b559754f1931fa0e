package repository

import (
	"PetAdoptAPI/internal/adapter"
	"PetAdoptAPI/internal/config"

	entsql "entgo.io/ent/dialect/sql"
)

type Repository struct {
	Chat      ChatStore
	Message   MessageStore
	Pet       PetStore
	Profile   ProfileStore
	Session   *SessionRepository
	RateLimit *RateLimitRepository
}

// NewRepository wires the Postgres stores. Session and RateLimit stay nil without Redis.
func NewRepository(drv *entsql.Driver, redisAdapter *adapter.RedisAdapter, cfg *config.AppConfig) *Repository {
	repo := &Repository{
		Chat:    NewChatRepository(drv),
		Message: NewMessageRepository(drv),
		Pet:     NewPetRepository(drv),
		Profile: NewProfileRepository(drv),
	}

	if redisAdapter != nil {
		repo.Session = NewSessionRepository(redisAdapter, cfg)
		repo.RateLimit = NewRateLimitRepository(redisAdapter)
	}

	return repo
}
