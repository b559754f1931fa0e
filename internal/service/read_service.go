package service

import (
	"PetAdoptAPI/internal/entity"
	"PetAdoptAPI/internal/feed"
	"PetAdoptAPI/internal/helper"
	"PetAdoptAPI/internal/repository"
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

type ReadService struct {
	repo    *repository.Repository
	changes feed.Publisher
}

func NewReadService(repo *repository.Repository, changes feed.Publisher) *ReadService {
	return &ReadService{
		repo:    repo,
		changes: changes,
	}
}

// MarkRead zeroes the caller's unread counter and flags the other party's messages as read.
// Only NotFound and Forbidden reach the caller. Store failures are logged and swallowed so that
// opening a conversation never fails because of read tracking.
func (s *ReadService) MarkRead(ctx context.Context, userID, chatID uuid.UUID) error {
	conv, role, err := loadParticipant(ctx, s.repo.Chat, chatID, userID)
	if err != nil {
		if !helper.HasCode(err, http.StatusServiceUnavailable) {
			return err
		}
		slog.Warn("Skipping mark read, conversation lookup failed", "error", err, "chatID", chatID, "userID", userID)
		return nil
	}

	marked, changed, err := s.repo.Chat.MarkRead(ctx, conv.ID, userID, role)
	if err != nil {
		slog.Warn("Failed to mark conversation read", "error", err, "chatID", chatID, "userID", userID)
		return nil
	}
	if !changed {
		return nil
	}

	events := make([]feed.Change, 0, len(marked)+1)
	for _, m := range marked {
		events = append(events, feed.MessageChange(feed.OpUpdate, m))
	}

	refreshed := *conv
	if role == entity.RoleOwner {
		refreshed.OwnerUnreadCount = 0
	} else {
		refreshed.InterestedUnreadCount = 0
	}
	events = append(events, feed.ChatChange(feed.OpUpdate, &refreshed))

	publish(ctx, s.changes, events...)
	return nil
}
