// Package schema describes the relational tables backing the chat store and migrates them with ent's schema engine.
package schema

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	ProfilesTableName = "profiles"
	PetsTableName     = "pets"
	ChatsTableName    = "chats"
	MessagesTableName = "messages"

	// UniquePetInterestedIndex guarantees one conversation per (pet, interested user).
	UniquePetInterestedIndex = "unique_pet_interested"
)

const textSize = 2147483647

var (
	ProfilesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "full_name", Type: field.TypeString, Nullable: true, Size: textSize},
		{Name: "email", Type: field.TypeString, Unique: true},
		{Name: "avatar_url", Type: field.TypeString, Nullable: true, Size: textSize},
		{Name: "created_at", Type: field.TypeTime},
	}
	ProfilesTable = &schema.Table{
		Name:       ProfilesTableName,
		Columns:    ProfilesColumns,
		PrimaryKey: []*schema.Column{ProfilesColumns[0]},
	}

	PetsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "owner_id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString},
		{Name: "image_url", Type: field.TypeString, Nullable: true, Size: textSize},
		{Name: "is_available", Type: field.TypeBool, Default: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	PetsTable = &schema.Table{
		Name:       PetsTableName,
		Columns:    PetsColumns,
		PrimaryKey: []*schema.Column{PetsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "pets_profiles_pets",
				Columns:    []*schema.Column{PetsColumns[1]},
				RefColumns: []*schema.Column{ProfilesColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "pet_owner_id", Columns: []*schema.Column{PetsColumns[1]}},
		},
	}

	ChatsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "pet_id", Type: field.TypeUUID},
		{Name: "owner_id", Type: field.TypeUUID},
		{Name: "interested_id", Type: field.TypeUUID},
		{Name: "last_message_preview", Type: field.TypeString, Nullable: true, Size: textSize},
		{Name: "last_message_at", Type: field.TypeTime},
		{Name: "owner_unread_count", Type: field.TypeInt, Default: 0},
		{Name: "interested_unread_count", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
	}
	ChatsTable = &schema.Table{
		Name:       ChatsTableName,
		Columns:    ChatsColumns,
		PrimaryKey: []*schema.Column{ChatsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "chats_pets_chats",
				Columns:    []*schema.Column{ChatsColumns[1]},
				RefColumns: []*schema.Column{PetsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "chats_profiles_owned_chats",
				Columns:    []*schema.Column{ChatsColumns[2]},
				RefColumns: []*schema.Column{ProfilesColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "chats_profiles_interested_chats",
				Columns:    []*schema.Column{ChatsColumns[3]},
				RefColumns: []*schema.Column{ProfilesColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: UniquePetInterestedIndex, Unique: true, Columns: []*schema.Column{ChatsColumns[1], ChatsColumns[3]}},
			{Name: "chat_owner_id", Columns: []*schema.Column{ChatsColumns[2]}},
			{Name: "chat_interested_id", Columns: []*schema.Column{ChatsColumns[3]}},
		},
	}

	MessagesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "chat_id", Type: field.TypeUUID},
		{Name: "sender_id", Type: field.TypeUUID},
		{Name: "content", Type: field.TypeString, Size: textSize},
		{Name: "is_read", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
	}
	MessagesTable = &schema.Table{
		Name:       MessagesTableName,
		Columns:    MessagesColumns,
		PrimaryKey: []*schema.Column{MessagesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "messages_chats_messages",
				Columns:    []*schema.Column{MessagesColumns[1]},
				RefColumns: []*schema.Column{ChatsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "messages_profiles_messages",
				Columns:    []*schema.Column{MessagesColumns[2]},
				RefColumns: []*schema.Column{ProfilesColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "message_chat_id_created_at_id", Columns: []*schema.Column{MessagesColumns[1], MessagesColumns[5], MessagesColumns[0]}},
		},
	}

	Tables = []*schema.Table{
		ProfilesTable,
		PetsTable,
		ChatsTable,
		MessagesTable,
	}
)

func init() {
	PetsTable.ForeignKeys[0].RefTable = ProfilesTable
	ChatsTable.ForeignKeys[0].RefTable = PetsTable
	ChatsTable.ForeignKeys[1].RefTable = ProfilesTable
	ChatsTable.ForeignKeys[2].RefTable = ProfilesTable
	MessagesTable.ForeignKeys[0].RefTable = ChatsTable
	MessagesTable.ForeignKeys[1].RefTable = ProfilesTable
}

// Migrate creates or upgrades the tables, indexes and foreign keys.
func Migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv, schema.WithForeignKeys(true))
	if err != nil {
		return fmt.Errorf("failed to prepare migration: %w", err)
	}

	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
