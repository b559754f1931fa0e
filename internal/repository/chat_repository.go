package repository

import (
	"PetAdoptAPI/internal/entity"
	"PetAdoptAPI/internal/repository/schema"
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var chatColumns = []string{
	"id",
	"pet_id",
	"owner_id",
	"interested_id",
	"last_message_preview",
	"last_message_at",
	"owner_unread_count",
	"interested_unread_count",
	"created_at",
}

// reconcileUnreadQuery rewrites both counters from the unread rows of the messages table.
// Only conversations whose stored counters drifted are touched. A row whose counters moved
// after the statement snapshot was taken is left for the next run.
const reconcileUnreadQuery = `
UPDATE chats AS c
SET owner_unread_count = s.owner_unread, interested_unread_count = s.interested_unread
FROM (
	SELECT ch.id,
		ch.owner_unread_count AS seen_owner,
		ch.interested_unread_count AS seen_interested,
		COUNT(m.id) FILTER (WHERE m.sender_id <> ch.owner_id AND NOT m.is_read) AS owner_unread,
		COUNT(m.id) FILTER (WHERE m.sender_id <> ch.interested_id AND NOT m.is_read) AS interested_unread
	FROM chats AS ch
	LEFT JOIN messages AS m ON m.chat_id = ch.id
	GROUP BY ch.id
) AS s
WHERE s.id = c.id
	AND c.owner_unread_count = s.seen_owner
	AND c.interested_unread_count = s.seen_interested
	AND (c.owner_unread_count <> s.owner_unread OR c.interested_unread_count <> s.interested_unread)`

type ChatRepository struct {
	drv dialect.Driver
}

func NewChatRepository(drv dialect.Driver) *ChatRepository {
	return &ChatRepository{
		drv: drv,
	}
}

func unreadColumn(role entity.Role) string {
	if role == entity.RoleOwner {
		return "owner_unread_count"
	}
	return "interested_unread_count"
}

// ifNotOlder sets column to v unless the chat already holds a message newer than at.
// A send that commits late must not roll the preview back.
func ifNotOlder(at time.Time, column string, v any) entsql.Querier {
	return entsql.ExprFunc(func(b *entsql.Builder) {
		b.WriteString("CASE WHEN ").Ident("last_message_at").WriteString(" <= ").Arg(at).
			WriteString(" THEN ").Arg(v).
			WriteString(" ELSE ").Ident(column).WriteString(" END")
	})
}

func scanConversation(rows entsql.ColumnScanner) (*entity.Conversation, error) {
	var (
		c       entity.Conversation
		preview sql.NullString
	)
	if err := rows.Scan(
		&c.ID, &c.PetID, &c.OwnerID, &c.InterestedID, &preview,
		&c.LastMessageAt, &c.OwnerUnreadCount, &c.InterestedUnreadCount, &c.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan chat: %w", err)
	}
	c.LastMessagePreview = nullableString(preview)
	return &c, nil
}

func scanInboxRecord(rows entsql.ColumnScanner) (*entity.InboxRecord, error) {
	var (
		r                                       entity.InboxRecord
		preview, petName, petImage, owner, intr sql.NullString
	)
	if err := rows.Scan(
		&r.ID, &r.PetID, &r.OwnerID, &r.InterestedID, &preview,
		&r.LastMessageAt, &r.OwnerUnreadCount, &r.InterestedUnreadCount, &r.CreatedAt,
		&petName, &petImage, &owner, &intr,
	); err != nil {
		return nil, fmt.Errorf("failed to scan inbox row: %w", err)
	}
	r.LastMessagePreview = nullableString(preview)
	r.PetName = nullableString(petName)
	r.PetImageURL = nullableString(petImage)
	r.OwnerName = nullableString(owner)
	r.InterestedName = nullableString(intr)
	return &r, nil
}

func (r *ChatRepository) selectChats() (*entsql.Selector, *entsql.SelectTable) {
	t := builder.Table(schema.ChatsTableName)
	return builder.Select(t.Columns(chatColumns...)...).From(t), t
}

func (r *ChatRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	sel, t := r.selectChats()
	query, args := sel.Where(entsql.EQ(t.C("id"), id)).Query()
	return queryOne(ctx, r.drv, query, args, scanConversation)
}

func (r *ChatRepository) FindByPetAndInterested(ctx context.Context, petID, interestedID uuid.UUID) (*entity.Conversation, error) {
	sel, t := r.selectChats()
	query, args := sel.Where(entsql.And(
		entsql.EQ(t.C("pet_id"), petID),
		entsql.EQ(t.C("interested_id"), interestedID),
	)).Query()
	return queryOne(ctx, r.drv, query, args, scanConversation)
}

func (r *ChatRepository) Create(ctx context.Context, c *entity.Conversation) error {
	query, args := builder.Insert(schema.ChatsTableName).
		Columns(chatColumns...).
		Values(c.ID, c.PetID, c.OwnerID, c.InterestedID, c.LastMessagePreview,
			c.LastMessageAt, c.OwnerUnreadCount, c.InterestedUnreadCount, c.CreatedAt).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *ChatRepository) AppendMessage(ctx context.Context, msg *entity.Message, recipient entity.Role) (*entity.Conversation, error) {
	var updated *entity.Conversation

	err := withTx(ctx, r.drv, func(tx dialect.Tx) error {
		insert, insertArgs := builder.Insert(schema.MessagesTableName).
			Columns(messageColumns...).
			Values(msg.ID, msg.ChatID, msg.SenderID, msg.Content, msg.IsRead, msg.CreatedAt).
			Query()
		if err := tx.Exec(ctx, insert, insertArgs, nil); err != nil {
			return mapError(err)
		}

		update, updateArgs := builder.Update(schema.ChatsTableName).
			Set("last_message_preview", ifNotOlder(msg.CreatedAt, "last_message_preview", msg.Content)).
			Set("last_message_at", ifNotOlder(msg.CreatedAt, "last_message_at", msg.CreatedAt)).
			Add(unreadColumn(recipient), 1).
			Where(entsql.EQ("id", msg.ChatID)).
			Returning(chatColumns...).
			Query()

		conv, err := queryOne(ctx, tx, update, updateArgs, scanConversation)
		if err != nil {
			return err
		}
		updated = conv
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *ChatRepository) MarkRead(ctx context.Context, chatID, readerID uuid.UUID, reader entity.Role) ([]*entity.Message, bool, error) {
	var (
		marked  []*entity.Message
		changed bool
	)

	err := withTx(ctx, r.drv, func(tx dialect.Tx) error {
		sel, t := r.selectChats()
		lock, lockArgs := sel.Where(entsql.EQ(t.C("id"), chatID)).ForUpdate().Query()
		conv, err := queryOne(ctx, tx, lock, lockArgs, scanConversation)
		if err != nil {
			return err
		}

		flag, flagArgs := builder.Update(schema.MessagesTableName).
			Set("is_read", true).
			Where(entsql.And(
				entsql.EQ("chat_id", chatID),
				entsql.NEQ("sender_id", readerID),
				entsql.EQ("is_read", false),
			)).
			Returning(messageColumns...).
			Query()
		marked, err = queryAll(ctx, tx, flag, flagArgs, scanMessage)
		if err != nil {
			return err
		}

		unread := conv.UnreadFor(reader)
		if unread != 0 {
			reset, resetArgs := builder.Update(schema.ChatsTableName).
				Set(unreadColumn(reader), 0).
				Where(entsql.EQ("id", chatID)).
				Query()
			if err := tx.Exec(ctx, reset, resetArgs, nil); err != nil {
				return mapError(err)
			}
		}

		changed = unread != 0 || len(marked) > 0
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	entity.SortMessages(marked)
	return marked, changed, nil
}

func (r *ChatRepository) inboxSelector() (*entsql.Selector, *entsql.SelectTable) {
	c := builder.Table(schema.ChatsTableName).As("c")
	p := builder.Table(schema.PetsTableName).As("p")
	o := builder.Table(schema.ProfilesTableName).As("o")
	i := builder.Table(schema.ProfilesTableName).As("i")

	columns := append(c.Columns(chatColumns...), p.C("name"), p.C("image_url"), o.C("full_name"), i.C("full_name"))

	sel := builder.Select(columns...).
		From(c).
		LeftJoin(p).On(c.C("pet_id"), p.C("id")).
		LeftJoin(o).On(c.C("owner_id"), o.C("id")).
		LeftJoin(i).On(c.C("interested_id"), i.C("id"))

	return sel, c
}

func (r *ChatRepository) ListInbox(ctx context.Context, userID uuid.UUID) ([]*entity.InboxRecord, error) {
	sel, c := r.inboxSelector()
	query, args := sel.
		Where(entsql.Or(
			entsql.EQ(c.C("owner_id"), userID),
			entsql.EQ(c.C("interested_id"), userID),
		)).
		OrderBy(entsql.Desc(c.C("last_message_at")), entsql.Desc(c.C("id"))).
		Query()

	return queryAll(ctx, r.drv, query, args, scanInboxRecord)
}

func (r *ChatRepository) GetInboxRecord(ctx context.Context, chatID uuid.UUID) (*entity.InboxRecord, error) {
	sel, c := r.inboxSelector()
	query, args := sel.Where(entsql.EQ(c.C("id"), chatID)).Query()
	return queryOne(ctx, r.drv, query, args, scanInboxRecord)
}

func (r *ChatRepository) ReconcileUnreadCounts(ctx context.Context) (int64, error) {
	var res sql.Result
	if err := r.drv.Exec(ctx, reconcileUnreadQuery, []any{}, &res); err != nil {
		return 0, fmt.Errorf("failed to reconcile unread counters: %w", err)
	}
	return res.RowsAffected()
}
