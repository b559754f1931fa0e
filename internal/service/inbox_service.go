package service

import (
	"PetAdoptAPI/internal/adapter"
	"PetAdoptAPI/internal/config"
	"PetAdoptAPI/internal/constant"
	"PetAdoptAPI/internal/entity"
	"PetAdoptAPI/internal/helper"
	"PetAdoptAPI/internal/model"
	"PetAdoptAPI/internal/repository"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type InboxService struct {
	repo           *repository.Repository
	cfg            *config.AppConfig
	validator      *validator.Validate
	storageAdapter *adapter.StorageAdapter
}

func NewInboxService(repo *repository.Repository, cfg *config.AppConfig, validator *validator.Validate, storageAdapter *adapter.StorageAdapter) *InboxService {
	return &InboxService{
		repo:           repo,
		cfg:            cfg,
		validator:      validator,
		storageAdapter: storageAdapter,
	}
}

// toInboxRow projects a joined conversation onto the caller's point of view.
func (s *InboxService) toInboxRow(ctx context.Context, rec *entity.InboxRecord, role entity.Role) model.InboxRow {
	preview := constant.PreviewPlaceholder
	if rec.LastMessagePreview != nil && strings.TrimSpace(*rec.LastMessagePreview) != "" {
		preview = helper.TruncatePreview(*rec.LastMessagePreview, s.cfg.ChatPreviewMaxRunes)
	}

	return model.InboxRow{
		ID:                 rec.ID,
		PetID:              rec.PetID,
		PetName:            valueOr(rec.PetName, constant.PetNamePlaceholder),
		PetImageURL:        s.storageAdapter.ResolveURL(ctx, rec.PetImageURL),
		OtherUserID:        rec.PartyID(role.Other()),
		OtherUserName:      valueOr(rec.CounterpartName(role), constant.UnknownUserPlaceholder),
		LastMessagePreview: preview,
		LastMessageAt:      rec.LastMessageAt.Format(time.RFC3339Nano),
		UnreadCount:        rec.UnreadFor(role),
		IsOwner:            role == entity.RoleOwner,
	}
}

// ListConversations returns the caller's inbox, most recent activity first. TotalUnread always
// covers every conversation, regardless of the search term or filter.
func (s *InboxService) ListConversations(ctx context.Context, userID uuid.UUID, req model.GetChatsRequest) (*model.InboxResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		slog.Warn("Validation failed", "error", err, "userID", userID)
		return nil, helper.NewBadRequestError("")
	}

	records, err := s.repo.Chat.ListInbox(ctx, userID)
	if err != nil {
		slog.Error("Failed to list conversations", "error", err, "userID", userID)
		return nil, helper.NewServiceUnavailableError("")
	}

	query := strings.ToLower(strings.TrimSpace(req.Query))
	unreadOnly := req.Filter == constant.InboxFilterUnread

	resp := &model.InboxResponse{
		Chats: make([]model.InboxRow, 0, len(records)),
	}

	for _, rec := range records {
		role, ok := rec.RoleOf(userID)
		if !ok {
			continue
		}

		row := s.toInboxRow(ctx, rec, role)
		resp.TotalUnread += row.UnreadCount

		if unreadOnly && row.UnreadCount == 0 {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(row.PetName), query) &&
			!strings.Contains(strings.ToLower(row.OtherUserName), query) {
			continue
		}

		resp.Chats = append(resp.Chats, row)
	}

	return resp, nil
}

// GetInboxRow re-reads a single row. Live inbox views use it instead of trusting change payloads.
func (s *InboxService) GetInboxRow(ctx context.Context, userID, chatID uuid.UUID) (*model.InboxRow, error) {
	rec, err := s.repo.Chat.GetInboxRecord(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NewNotFoundError("Chat not found")
		}
		slog.Error("Failed to load inbox row", "error", err, "chatID", chatID)
		return nil, helper.NewServiceUnavailableError("")
	}

	role, ok := rec.RoleOf(userID)
	if !ok {
		return nil, helper.NewForbiddenError("You are not a participant of this chat")
	}

	row := s.toInboxRow(ctx, rec, role)
	return &row, nil
}
