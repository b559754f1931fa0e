package service

import (
	"PetAdoptAPI/internal/adapter"
	"PetAdoptAPI/internal/config"
	"PetAdoptAPI/internal/constant"
	"PetAdoptAPI/internal/entity"
	"PetAdoptAPI/internal/feed"
	"PetAdoptAPI/internal/helper"
	"PetAdoptAPI/internal/model"
	"PetAdoptAPI/internal/repository"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ChatService struct {
	repo           *repository.Repository
	cfg            *config.AppConfig
	validator      *validator.Validate
	changes        feed.Publisher
	storageAdapter *adapter.StorageAdapter
}

func NewChatService(repo *repository.Repository, cfg *config.AppConfig, validator *validator.Validate, changes feed.Publisher, storageAdapter *adapter.StorageAdapter) *ChatService {
	return &ChatService{
		repo:           repo,
		cfg:            cfg,
		validator:      validator,
		changes:        changes,
		storageAdapter: storageAdapter,
	}
}

func chatToResponse(c *entity.Conversation) *model.ChatResponse {
	return &model.ChatResponse{
		ID:        c.ID,
		PetID:     c.PetID,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

// GetOrCreateConversation returns the single conversation for (petID, interestedID), creating it on first contact.
func (s *ChatService) GetOrCreateConversation(ctx context.Context, petID, ownerID, interestedID uuid.UUID) (*entity.Conversation, error) {
	if ownerID == interestedID {
		return nil, helper.NewBadRequestError("Cannot start a conversation with yourself")
	}

	pet, err := s.repo.Pet.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NewNotFoundError("Pet not found")
		}
		slog.Error("Failed to load pet", "error", err, "petID", petID)
		return nil, helper.NewServiceUnavailableError("")
	}

	if pet.OwnerID != ownerID {
		return nil, helper.NewBadRequestError("Owner does not match the pet")
	}

	profiles, err := s.repo.Profile.GetByIDs(ctx, ownerID, interestedID)
	if err != nil {
		slog.Error("Failed to load conversation parties", "error", err, "ownerID", ownerID, "interestedID", interestedID)
		return nil, helper.NewServiceUnavailableError("")
	}
	if profiles[ownerID] == nil || profiles[interestedID] == nil {
		return nil, helper.NewNotFoundError("One or both users not found")
	}

	existing, err := s.repo.Chat.FindByPetAndInterested(ctx, petID, interestedID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		slog.Error("Failed to check existing conversation", "error", err, "petID", petID, "interestedID", interestedID)
		return nil, helper.NewServiceUnavailableError("")
	}

	if !pet.IsAvailable {
		return nil, helper.NewBadRequestError("Pet is no longer available for adoption")
	}

	conv := entity.NewConversation(petID, ownerID, interestedID, time.Now().UTC())
	if err := s.repo.Chat.Create(ctx, conv); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return s.resolveCreationRace(ctx, petID, interestedID)
		}
		slog.Error("Failed to create conversation", "error", err, "petID", petID, "interestedID", interestedID)
		return nil, helper.NewServiceUnavailableError("")
	}

	slog.Info("Conversation created", "chatID", conv.ID, "petID", petID, "ownerID", ownerID, "interestedID", interestedID)
	publish(ctx, s.changes, feed.ChatChange(feed.OpInsert, conv))

	return conv, nil
}

// resolveCreationRace re-reads the row committed by the concurrent creator that won the unique index.
func (s *ChatService) resolveCreationRace(ctx context.Context, petID, interestedID uuid.UUID) (*entity.Conversation, error) {
	find := func() (*entity.Conversation, bool, error) {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		conv, err := s.repo.Chat.FindByPetAndInterested(ctx, petID, interestedID)
		if err != nil {
			return nil, errors.Is(err, repository.ErrNotFound), err
		}
		return conv, false, nil
	}

	conv, err := helper.RetryWithBackoff(find, constant.ChatResolveRetries, constant.ChatResolveBaseDelay)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Error("Failed to read conversation after creation conflict", "error", err, "petID", petID, "interestedID", interestedID)
		return nil, helper.NewServiceUnavailableError("")
	}
	return conv, nil
}

// StartConversation is the pet-page entry point: the caller is the interested party and the owner comes from the pet.
func (s *ChatService) StartConversation(ctx context.Context, userID, petID uuid.UUID) (*model.ChatResponse, error) {
	pet, err := s.repo.Pet.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NewNotFoundError("Pet not found")
		}
		slog.Error("Failed to load pet", "error", err, "petID", petID)
		return nil, helper.NewServiceUnavailableError("")
	}

	conv, err := s.GetOrCreateConversation(ctx, pet.ID, pet.OwnerID, userID)
	if err != nil {
		return nil, err
	}
	return chatToResponse(conv), nil
}

func (s *ChatService) CreateConversation(ctx context.Context, userID uuid.UUID, req model.CreateChatRequest) (*model.ChatResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		slog.Warn("Validation failed", "error", err, "userID", userID)
		return nil, helper.NewBadRequestError("")
	}

	conv, err := s.GetOrCreateConversation(ctx, req.PetID, req.OwnerID, userID)
	if err != nil {
		return nil, err
	}
	return chatToResponse(conv), nil
}

func (s *ChatService) GetConversation(ctx context.Context, userID, chatID uuid.UUID) (*model.ChatDetailResponse, error) {
	rec, err := s.repo.Chat.GetInboxRecord(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NewNotFoundError("Chat not found")
		}
		slog.Error("Failed to load conversation", "error", err, "chatID", chatID)
		return nil, helper.NewServiceUnavailableError("")
	}

	role, ok := rec.RoleOf(userID)
	if !ok {
		return nil, helper.NewForbiddenError("You are not a participant of this chat")
	}

	ownerName := valueOr(rec.OwnerName, constant.DetailUserPlaceholder)
	interestedName := valueOr(rec.InterestedName, constant.DetailUserPlaceholder)
	otherName := interestedName
	if role == entity.RoleInterested {
		otherName = ownerName
	}

	return &model.ChatDetailResponse{
		ID:             rec.ID,
		PetID:          rec.PetID,
		PetName:        valueOr(rec.PetName, constant.PetNamePlaceholder),
		PetImageURL:    s.storageAdapter.ResolveURL(ctx, rec.PetImageURL),
		OwnerID:        rec.OwnerID,
		OwnerName:      ownerName,
		InterestedID:   rec.InterestedID,
		InterestedName: interestedName,
		Role:           string(role),
		IsOwner:        role == entity.RoleOwner,
		OtherUserID:    rec.PartyID(role.Other()),
		OtherUserName:  otherName,
		UnreadCount:    rec.UnreadFor(role),
	}, nil
}

// loadParticipant returns the conversation and the caller's role, or NotFound/Forbidden.
func loadParticipant(ctx context.Context, chats repository.ChatStore, chatID, userID uuid.UUID) (*entity.Conversation, entity.Role, error) {
	conv, err := chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", helper.NewNotFoundError("Chat not found")
		}
		slog.Error("Failed to load conversation", "error", err, "chatID", chatID)
		return nil, "", helper.NewServiceUnavailableError("")
	}

	role, ok := conv.RoleOf(userID)
	if !ok {
		return nil, "", helper.NewForbiddenError("You are not a participant of this chat")
	}
	return conv, role, nil
}

// publish hands committed changes to the feed. Failures only delay live views, so they are logged.
func publish(ctx context.Context, changes feed.Publisher, events ...feed.Change) {
	if changes == nil {
		return
	}
	for _, change := range events {
		if err := changes.Publish(context.WithoutCancel(ctx), change); err != nil {
			slog.Warn("Failed to publish change", "error", err, "table", change.Table, "op", change.Op, "chatID", change.ChatID)
		}
	}
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
