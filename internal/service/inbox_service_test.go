package service_test

import (
	"PetAdoptAPI/internal/helper"
	"PetAdoptAPI/internal/model"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListConversations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	owner := env.createProfile(t, "Olivia")
	adam := env.createProfile(t, "Adam")
	nameless := env.createProfile(t, "")
	biscuit := env.createPet(t, owner.ID, "Biscuit")
	pepper := env.createPet(t, owner.ID, "Pepper")

	first, err := env.chat.GetOrCreateConversation(ctx, biscuit.ID, owner.ID, adam.ID)
	require.NoError(t, err)
	second, err := env.chat.GetOrCreateConversation(ctx, pepper.ID, owner.ID, nameless.ID)
	require.NoError(t, err)

	_, err = env.message.SendMessage(ctx, adam.ID, first.ID, model.SendMessageRequest{Content: strings.Repeat("long preview ", 20)})
	require.NoError(t, err)

	t.Run("Owner Inbox", func(t *testing.T) {
		inbox, err := env.inbox.ListConversations(ctx, owner.ID, model.GetChatsRequest{})
		require.NoError(t, err)
		require.Len(t, inbox.Chats, 2)
		assert.Equal(t, 1, inbox.TotalUnread)

		top := inbox.Chats[0]
		assert.Equal(t, first.ID, top.ID)
		assert.Equal(t, "Biscuit", top.PetName)
		assert.Equal(t, adam.ID, top.OtherUserID)
		assert.Equal(t, "Adam", top.OtherUserName)
		assert.Equal(t, 1, top.UnreadCount)
		assert.True(t, top.IsOwner)
		assert.True(t, strings.HasSuffix(top.LastMessagePreview, "…"))
		assert.LessOrEqual(t, len([]rune(top.LastMessagePreview)), env.cfg.ChatPreviewMaxRunes+1)

		quiet := inbox.Chats[1]
		assert.Equal(t, second.ID, quiet.ID)
		assert.Equal(t, "No messages yet", quiet.LastMessagePreview)
		assert.Equal(t, "Unknown", quiet.OtherUserName)
		assert.Equal(t, 0, quiet.UnreadCount)
	})

	t.Run("Interested Inbox", func(t *testing.T) {
		inbox, err := env.inbox.ListConversations(ctx, adam.ID, model.GetChatsRequest{})
		require.NoError(t, err)
		require.Len(t, inbox.Chats, 1)

		row := inbox.Chats[0]
		assert.False(t, row.IsOwner)
		assert.Equal(t, owner.ID, row.OtherUserID)
		assert.Equal(t, "Olivia", row.OtherUserName)
		assert.Equal(t, 0, row.UnreadCount)
	})

	t.Run("Unread Filter", func(t *testing.T) {
		inbox, err := env.inbox.ListConversations(ctx, owner.ID, model.GetChatsRequest{Filter: "unread"})
		require.NoError(t, err)
		require.Len(t, inbox.Chats, 1)
		assert.Equal(t, first.ID, inbox.Chats[0].ID)
		assert.Equal(t, 1, inbox.TotalUnread)
	})

	t.Run("Search", func(t *testing.T) {
		inbox, err := env.inbox.ListConversations(ctx, owner.ID, model.GetChatsRequest{Query: "PEPP"})
		require.NoError(t, err)
		require.Len(t, inbox.Chats, 1)
		assert.Equal(t, second.ID, inbox.Chats[0].ID)

		inbox, err = env.inbox.ListConversations(ctx, owner.ID, model.GetChatsRequest{Query: "adam"})
		require.NoError(t, err)
		require.Len(t, inbox.Chats, 1)
		assert.Equal(t, first.ID, inbox.Chats[0].ID)
	})

	t.Run("Invalid Filter", func(t *testing.T) {
		_, err := env.inbox.ListConversations(ctx, owner.ID, model.GetChatsRequest{Filter: "archived"})
		assert.True(t, helper.HasCode(err, http.StatusBadRequest))
	})

	t.Run("Reorders On Activity", func(t *testing.T) {
		_, err := env.message.SendMessage(ctx, nameless.ID, second.ID, model.SendMessageRequest{Content: "hello"})
		require.NoError(t, err)

		inbox, err := env.inbox.ListConversations(ctx, owner.ID, model.GetChatsRequest{})
		require.NoError(t, err)
		require.Len(t, inbox.Chats, 2)
		assert.Equal(t, second.ID, inbox.Chats[0].ID)
		assert.Equal(t, 2, inbox.TotalUnread)
	})
}

func TestGetInboxRow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	owner := env.createProfile(t, "Olivia")
	adam := env.createProfile(t, "Adam")
	stranger := env.createProfile(t, "Stranger")
	pet := env.createPet(t, owner.ID, "Biscuit")
	conv, err := env.chat.GetOrCreateConversation(ctx, pet.ID, owner.ID, adam.ID)
	require.NoError(t, err)

	row, err := env.inbox.GetInboxRow(ctx, adam.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Olivia", row.OtherUserName)

	_, err = env.inbox.GetInboxRow(ctx, stranger.ID, conv.ID)
	assert.True(t, helper.HasCode(err, http.StatusForbidden))
}

func TestListConversations_PetRemoved(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	owner := env.createProfile(t, "Olivia")
	adam := env.createProfile(t, "Adam")
	pet := env.createPet(t, owner.ID, "Biscuit")
	conv, err := env.chat.GetOrCreateConversation(ctx, pet.ID, owner.ID, adam.ID)
	require.NoError(t, err)
	_, err = env.message.SendMessage(ctx, adam.ID, conv.ID, model.SendMessageRequest{Content: "still there?"})
	require.NoError(t, err)

	env.repo.Pet.(interface{ Remove(uuid.UUID) }).Remove(pet.ID)

	inbox, err := env.inbox.ListConversations(ctx, owner.ID, model.GetChatsRequest{})
	require.NoError(t, err)
	require.Len(t, inbox.Chats, 1)
	assert.Equal(t, "Pet", inbox.Chats[0].PetName)
	assert.Nil(t, inbox.Chats[0].PetImageURL)
	assert.Equal(t, "still there?", inbox.Chats[0].LastMessagePreview)

	row, err := env.inbox.GetInboxRow(ctx, adam.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pet", row.PetName)

	inbox, err = env.inbox.ListConversations(ctx, owner.ID, model.GetChatsRequest{Query: "pet"})
	require.NoError(t, err)
	assert.Len(t, inbox.Chats, 1)
}

// Two interested users contact the same owner about one pet, and the owner answers each of them.
func TestAdoptionConversationScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	owner := env.createProfile(t, "Owner")
	u1 := env.createProfile(t, "U1")
	u2 := env.createProfile(t, "U2")
	pet := env.createPet(t, owner.ID, "P")

	c1, err := env.chat.StartConversation(ctx, u1.ID, pet.ID)
	require.NoError(t, err)
	c2, err := env.chat.StartConversation(ctx, u2.ID, pet.ID)
	require.NoError(t, err)
	require.NotEqual(t, c1.ID, c2.ID)

	_, err = env.message.SendMessage(ctx, u1.ID, c1.ID, model.SendMessageRequest{Content: "Hi from U1"})
	require.NoError(t, err)
	_, err = env.message.SendMessage(ctx, u2.ID, c2.ID, model.SendMessageRequest{Content: "Hi from U2"})
	require.NoError(t, err)

	inbox, err := env.inbox.ListConversations(ctx, owner.ID, model.GetChatsRequest{})
	require.NoError(t, err)
	require.Len(t, inbox.Chats, 2)
	assert.Equal(t, c2.ID, inbox.Chats[0].ID)
	assert.Equal(t, 2, inbox.TotalUnread)

	require.NoError(t, env.read.MarkRead(ctx, owner.ID, c1.ID))
	_, err = env.message.SendMessage(ctx, owner.ID, c1.ID, model.SendMessageRequest{Content: "Hello U1"})
	require.NoError(t, err)

	ownerInbox, err := env.inbox.ListConversations(ctx, owner.ID, model.GetChatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, c1.ID, ownerInbox.Chats[0].ID)
	assert.Equal(t, 1, ownerInbox.TotalUnread)

	u1Inbox, err := env.inbox.ListConversations(ctx, u1.ID, model.GetChatsRequest{})
	require.NoError(t, err)
	require.Len(t, u1Inbox.Chats, 1)
	assert.Equal(t, 1, u1Inbox.Chats[0].UnreadCount)
	assert.Equal(t, "Hello U1", u1Inbox.Chats[0].LastMessagePreview)

	u2Inbox, err := env.inbox.ListConversations(ctx, u2.ID, model.GetChatsRequest{})
	require.NoError(t, err)
	require.Len(t, u2Inbox.Chats, 1)
	assert.Equal(t, 0, u2Inbox.Chats[0].UnreadCount)

	_, err = env.message.SendMessage(ctx, u2.ID, c1.ID, model.SendMessageRequest{Content: "sneaky"})
	assert.True(t, helper.HasCode(err, http.StatusForbidden))
}
