package repository

import (
	"PetAdoptAPI/internal/entity"
	"PetAdoptAPI/internal/repository/schema"
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var messageColumns = []string{
	"id",
	"chat_id",
	"sender_id",
	"content",
	"is_read",
	"created_at",
}

type MessageRepository struct {
	drv dialect.Driver
}

func NewMessageRepository(drv dialect.Driver) *MessageRepository {
	return &MessageRepository{
		drv: drv,
	}
}

func scanMessage(rows entsql.ColumnScanner) (*entity.Message, error) {
	var m entity.Message
	if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	return &m, nil
}

func (r *MessageRepository) ListByChat(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	t := builder.Table(schema.MessagesTableName)
	query, args := builder.Select(t.Columns(messageColumns...)...).
		From(t).
		Where(entsql.EQ(t.C("chat_id"), chatID)).
		OrderBy(t.C("created_at"), t.C("id")).
		Limit(limit).
		Offset(offset).
		Query()

	return queryAll(ctx, r.drv, query, args, scanMessage)
}
