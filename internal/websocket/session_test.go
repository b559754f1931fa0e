package websocket

import (
	"PetAdoptAPI/internal/broker"
	"PetAdoptAPI/internal/config"
	"PetAdoptAPI/internal/entity"
	"PetAdoptAPI/internal/feed"
	"PetAdoptAPI/internal/model"
	"PetAdoptAPI/internal/repository"
	"PetAdoptAPI/internal/repository/memory"
	"PetAdoptAPI/internal/service"
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) sendEvent(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSink) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type liveEnv struct {
	repo     *repository.Repository
	broker   *broker.Broker
	chat     *service.ChatService
	message  *service.MessageService
	services Services
	cancel   context.CancelFunc
}

func newLiveEnv(t *testing.T) *liveEnv {
	t.Helper()

	cfg := &config.AppConfig{ChatPreviewMaxRunes: 80, ChatMessageMaxLength: 4000, ChatHistoryPageSize: 50}
	repo := memory.NewRepository(memory.NewStore())
	v := config.NewValidator()
	changes := feed.NewLocalFeed()
	b := broker.New(changes, 10*time.Millisecond, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	require.Eventually(t, func() bool { return changes.Listeners() == 1 }, time.Second, 5*time.Millisecond)
	t.Cleanup(cancel)

	chats := service.NewChatService(repo, cfg, v, b, nil)
	messages := service.NewMessageService(repo, cfg, v, b, nil)

	return &liveEnv{
		repo:    repo,
		broker:  b,
		chat:    chats,
		message: messages,
		services: Services{
			Chats:    chats,
			Messages: messages,
			Inbox:    service.NewInboxService(repo, cfg, v, nil),
			Reads:    service.NewReadService(repo, b),
			Broker:   b,
		},
		cancel: cancel,
	}
}

func (e *liveEnv) seed(t *testing.T) (owner, adopter, stranger *entity.Profile, conv *entity.Conversation) {
	t.Helper()
	ctx := context.Background()

	profile := func(name string) *entity.Profile {
		p, err := e.repo.Profile.Upsert(ctx, &entity.Profile{ID: uuid.New(), FullName: &name, Email: name + "@example.com"})
		require.NoError(t, err)
		return p
	}
	owner, adopter, stranger = profile("olivia"), profile("adam"), profile("stranger")

	pet := &entity.Pet{ID: uuid.New(), OwnerID: owner.ID, Name: "Biscuit", IsAvailable: true}
	require.NoError(t, e.repo.Pet.Create(ctx, pet))

	conv, err := e.chat.GetOrCreateConversation(ctx, pet.ID, owner.ID, adopter.ID)
	require.NoError(t, err)
	return owner, adopter, stranger, conv
}

func TestSession_WatchChat(t *testing.T) {
	ctx := context.Background()
	env := newLiveEnv(t)
	owner, adopter, _, conv := env.seed(t)

	_, err := env.message.SendMessage(ctx, adopter.ID, conv.ID, model.SendMessageRequest{Content: "before watch"})
	require.NoError(t, err)

	sink := &recordingSink{}
	session := newSession(sink, owner.ID, env.services)
	defer session.Close()

	session.Handle(Command{Action: ActionWatchChat, ChatID: conv.ID.String()})

	require.Eventually(t, func() bool { return len(sink.ofType(EventChatSnapshot)) == 1 }, time.Second, 5*time.Millisecond)
	snapshot := sink.ofType(EventChatSnapshot)[0].Payload.(ChatSnapshot)
	require.Len(t, snapshot.Messages, 1)
	assert.Equal(t, "before watch", snapshot.Messages[0].Content)
	assert.True(t, snapshot.Chat.IsOwner)

	_, err = env.message.SendMessage(ctx, adopter.ID, conv.ID, model.SendMessageRequest{Content: "live"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(sink.ofType(EventMessageNew)) == 1 }, time.Second, 5*time.Millisecond)
	live := sink.ofType(EventMessageNew)[0].Payload.(model.MessageResponse)
	assert.Equal(t, "live", live.Content)
	assert.Equal(t, "adam", live.SenderName)

	// The viewer is the recipient, so the view clears the unread counter on its own.
	assert.Eventually(t, func() bool {
		stored, err := env.repo.Chat.GetByID(ctx, conv.ID)
		return err == nil && stored.OwnerUnreadCount == 0
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(sink.ofType(EventMessageUpdate)) >= 1 }, time.Second, 5*time.Millisecond)
}

func TestSession_WatchChatForbidden(t *testing.T) {
	env := newLiveEnv(t)
	_, _, stranger, conv := env.seed(t)

	sink := &recordingSink{}
	session := newSession(sink, stranger.ID, env.services)
	defer session.Close()

	session.Handle(Command{Action: ActionWatchChat, ChatID: conv.ID.String()})

	require.Eventually(t, func() bool { return len(sink.ofType(EventError)) == 1 }, time.Second, 5*time.Millisecond)
	payload := sink.ofType(EventError)[0].Payload.(ErrorPayload)
	assert.Equal(t, http.StatusForbidden, payload.Code)
	assert.Equal(t, ActionWatchChat, payload.Action)

	assert.Eventually(t, func() bool { return session.Views() == 0 && env.broker.Subscriptions() == 0 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, sink.ofType(EventChatSnapshot))
}

func TestSession_WatchInbox(t *testing.T) {
	ctx := context.Background()
	env := newLiveEnv(t)
	owner, adopter, _, conv := env.seed(t)

	sink := &recordingSink{}
	session := newSession(sink, owner.ID, env.services)
	defer session.Close()

	session.Handle(Command{Action: ActionWatchInbox})
	require.Eventually(t, func() bool { return len(sink.ofType(EventInboxSnapshot)) == 1 }, time.Second, 5*time.Millisecond)

	inbox := sink.ofType(EventInboxSnapshot)[0].Payload.(*model.InboxResponse)
	require.Len(t, inbox.Chats, 1)
	assert.Equal(t, "No messages yet", inbox.Chats[0].LastMessagePreview)

	_, err := env.message.SendMessage(ctx, adopter.ID, conv.ID, model.SendMessageRequest{Content: "hello"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(sink.ofType(EventInboxRow)) >= 1 }, time.Second, 5*time.Millisecond)
	rows := sink.ofType(EventInboxRow)
	row := rows[len(rows)-1].Payload.(*model.InboxRow)
	assert.Equal(t, conv.ID, row.ID)
	assert.Equal(t, "hello", row.LastMessagePreview)
	assert.Equal(t, 1, row.UnreadCount)
}

func TestSession_ReplaceAndClose(t *testing.T) {
	env := newLiveEnv(t)
	owner, _, _, conv := env.seed(t)

	sink := &recordingSink{}
	session := newSession(sink, owner.ID, env.services)

	session.Handle(Command{Action: ActionWatchInbox})
	session.Handle(Command{Action: ActionWatchInbox})
	session.Handle(Command{Action: ActionWatchChat, ChatID: conv.ID.String()})
	session.Handle(Command{Action: ActionWatchChat, ChatID: conv.ID.String()})

	assert.Equal(t, 2, session.Views())
	assert.Equal(t, 2, env.broker.Subscriptions())

	session.Handle(Command{Action: ActionUnwatchInbox})
	assert.Equal(t, 1, session.Views())
	assert.Equal(t, 1, env.broker.Subscriptions())

	session.Close()
	assert.Equal(t, 0, session.Views())
	assert.Equal(t, 0, env.broker.Subscriptions())

	session.Handle(Command{Action: ActionWatchInbox})
	assert.Equal(t, 0, env.broker.Subscriptions())
}

func TestSession_InvalidCommands(t *testing.T) {
	env := newLiveEnv(t)
	sink := &recordingSink{}
	session := newSession(sink, uuid.New(), env.services)
	defer session.Close()

	session.Handle(Command{Action: ActionWatchChat, ChatID: "not-a-uuid"})
	session.Handle(Command{Action: "dance"})

	errs := sink.ofType(EventError)
	require.Len(t, errs, 2)
	assert.Equal(t, http.StatusBadRequest, errs[0].Payload.(ErrorPayload).Code)
	assert.Equal(t, http.StatusBadRequest, errs[1].Payload.(ErrorPayload).Code)
}

func TestChatView_DuplicateInsertEmittedOnce(t *testing.T) {
	env := newLiveEnv(t)
	owner, adopter, _, conv := env.seed(t)

	sink := &recordingSink{}
	view := newChatView(newSession(sink, owner.ID, env.services), conv.ID)
	defer view.close()

	view.load()
	require.Len(t, sink.ofType(EventChatSnapshot), 1)

	msg := &entity.Message{ID: uuid.Must(uuid.NewV7()), ChatID: conv.ID, SenderID: adopter.ID, Content: "twice", CreatedAt: time.Now().UTC()}
	view.handle(feed.MessageChange(feed.OpInsert, msg))
	view.handle(feed.MessageChange(feed.OpInsert, msg))

	news := sink.ofType(EventMessageNew)
	require.Len(t, news, 1)
	assert.Equal(t, msg.ID, news[0].Payload.(model.MessageResponse).ID)
}

func TestChatView_PendingInsertAlreadyInSnapshot(t *testing.T) {
	ctx := context.Background()
	env := newLiveEnv(t)
	owner, adopter, _, conv := env.seed(t)

	_, err := env.message.SendMessage(ctx, adopter.ID, conv.ID, model.SendMessageRequest{Content: "in history"})
	require.NoError(t, err)
	history, err := env.repo.Message.ListByChat(ctx, conv.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)

	sink := &recordingSink{}
	view := newChatView(newSession(sink, owner.ID, env.services), conv.ID)
	defer view.close()

	// Delivered live while history was still loading.
	fresh := &entity.Message{ID: uuid.Must(uuid.NewV7()), ChatID: conv.ID, SenderID: adopter.ID, Content: "fresh", CreatedAt: time.Now().UTC()}
	view.handle(feed.MessageChange(feed.OpInsert, history[0]))
	view.handle(feed.MessageChange(feed.OpInsert, fresh))
	view.handle(feed.MessageChange(feed.OpInsert, history[0]))
	assert.Empty(t, sink.ofType(EventMessageNew))

	view.load()

	snapshots := sink.ofType(EventChatSnapshot)
	require.Len(t, snapshots, 1)
	snapshot := snapshots[0].Payload.(ChatSnapshot)
	require.Len(t, snapshot.Messages, 1)
	assert.Equal(t, history[0].ID, snapshot.Messages[0].ID)

	news := sink.ofType(EventMessageNew)
	require.Len(t, news, 1)
	assert.Equal(t, "fresh", news[0].Payload.(model.MessageResponse).Content)
}
