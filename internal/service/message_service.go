package service

import (
	"PetAdoptAPI/internal/config"
	"PetAdoptAPI/internal/constant"
	"PetAdoptAPI/internal/entity"
	"PetAdoptAPI/internal/feed"
	"PetAdoptAPI/internal/helper"
	"PetAdoptAPI/internal/model"
	"PetAdoptAPI/internal/repository"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type MessageService struct {
	repo        *repository.Repository
	cfg         *config.AppConfig
	validator   *validator.Validate
	changes     feed.Publisher
	sendLimiter *config.RateLimiter
}

func NewMessageService(repo *repository.Repository, cfg *config.AppConfig, validator *validator.Validate, changes feed.Publisher, sendLimiter *config.RateLimiter) *MessageService {
	return &MessageService{
		repo:        repo,
		cfg:         cfg,
		validator:   validator,
		changes:     changes,
		sendLimiter: sendLimiter,
	}
}

// MessageToResponse renders a stored message with its sender display name.
func MessageToResponse(m *entity.Message, senderName string) model.MessageResponse {
	return model.MessageResponse{
		ID:         m.ID,
		ChatID:     m.ChatID,
		SenderID:   m.SenderID,
		SenderName: senderName,
		Content:    m.Content,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339Nano),
	}
}

func (s *MessageService) SendMessage(ctx context.Context, userID, chatID uuid.UUID, req model.SendMessageRequest) (*model.MessageResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		slog.Warn("Validation failed", "error", err, "userID", userID)
		return nil, helper.NewBadRequestError("Message content is required")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, helper.NewBadRequestError("Message content is required")
	}
	if limit := s.cfg.ChatMessageMaxLength; limit > 0 && utf8.RuneCountInString(content) > limit {
		return nil, helper.NewBadRequestError(fmt.Sprintf("Message content exceeds %d characters", limit))
	}

	if s.sendLimiter != nil {
		if ok, wait := s.sendLimiter.Allow(userID.String()); !ok {
			retryAfter := int(math.Ceil(wait.Seconds()))
			return nil, helper.NewTooManyRequestsError(fmt.Sprintf("Sending too fast, retry in %d seconds", max(retryAfter, 1)))
		}
	}

	conv, role, err := loadParticipant(ctx, s.repo.Chat, chatID, userID)
	if err != nil {
		return nil, err
	}

	msg := &entity.Message{
		ID:        uuid.Must(uuid.NewV7()),
		ChatID:    conv.ID,
		SenderID:  userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	updated, err := s.repo.Chat.AppendMessage(ctx, msg, role.Other())
	if err != nil {
		slog.Error("Failed to store message", "error", err, "chatID", chatID, "senderID", userID)
		return nil, helper.NewServiceUnavailableError("")
	}

	senderName := constant.UnknownUserPlaceholder
	if profile, err := s.repo.Profile.GetByID(ctx, userID); err == nil {
		senderName = profile.DisplayName(constant.UnknownUserPlaceholder)
	} else {
		slog.Warn("Failed to resolve sender name", "error", err, "senderID", userID)
	}

	publish(ctx, s.changes,
		feed.MessageChange(feed.OpInsert, msg),
		feed.ChatChange(feed.OpUpdate, updated),
	)

	resp := MessageToResponse(msg, senderName)
	return &resp, nil
}

// GetMessages returns one page of history in (created_at, id) order. hasNext reports whether more
// messages follow the page.
func (s *MessageService) GetMessages(ctx context.Context, userID, chatID uuid.UUID, req model.GetMessagesRequest) ([]model.MessageResponse, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		slog.Warn("Validation failed", "error", err, "userID", userID)
		return nil, false, helper.NewBadRequestError("")
	}

	if _, _, err := loadParticipant(ctx, s.repo.Chat, chatID, userID); err != nil {
		return nil, false, err
	}

	limit := s.PageSize(req.Limit)

	msgs, err := s.repo.Message.ListByChat(ctx, chatID, limit+1, req.Offset)
	if err != nil {
		slog.Error("Failed to list messages", "error", err, "chatID", chatID)
		return nil, false, helper.NewServiceUnavailableError("")
	}

	hasNext := len(msgs) > limit
	if hasNext {
		msgs = msgs[:limit]
	}

	names := s.senderNames(ctx, msgs)

	resp := make([]model.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, MessageToResponse(m, names[m.SenderID]))
	}
	return resp, hasNext, nil
}

// PageSize applies the configured default and the hard cap to a requested page size.
func (s *MessageService) PageSize(requested int) int {
	limit := requested
	if limit <= 0 {
		limit = s.cfg.ChatHistoryPageSize
	}
	if limit <= 0 || limit > constant.MaxHistoryPage {
		limit = constant.MaxHistoryPage
	}
	return limit
}

// senderNames resolves display names for every distinct sender, falling back to a placeholder.
func (s *MessageService) senderNames(ctx context.Context, msgs []*entity.Message) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string)
	ids := make([]uuid.UUID, 0, 2)
	for _, m := range msgs {
		if _, ok := names[m.SenderID]; !ok {
			names[m.SenderID] = constant.UnknownUserPlaceholder
			ids = append(ids, m.SenderID)
		}
	}
	if len(ids) == 0 {
		return names
	}

	profiles, err := s.repo.Profile.GetByIDs(ctx, ids...)
	if err != nil {
		slog.Warn("Failed to resolve sender names", "error", err)
		return names
	}
	for id, p := range profiles {
		names[id] = p.DisplayName(constant.UnknownUserPlaceholder)
	}
	return names
}
