package service_test

import (
	"PetAdoptAPI/internal/config"
	"PetAdoptAPI/internal/entity"
	"PetAdoptAPI/internal/feed"
	"PetAdoptAPI/internal/repository"
	"PetAdoptAPI/internal/repository/memory"
	"PetAdoptAPI/internal/service"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingFeed struct {
	mu      sync.Mutex
	changes []feed.Change
}

func (f *recordingFeed) Publish(_ context.Context, change feed.Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, change)
	return nil
}

func (f *recordingFeed) Listen(ctx context.Context, ready func(), _ func(feed.Change)) error {
	ready()
	<-ctx.Done()
	return ctx.Err()
}

func (f *recordingFeed) published(table feed.Table, op feed.Op) []feed.Change {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []feed.Change
	for _, c := range f.changes {
		if c.Table == table && c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

type testEnv struct {
	store   *memory.Store
	repo    *repository.Repository
	cfg     *config.AppConfig
	changes *recordingFeed

	chat    *service.ChatService
	message *service.MessageService
	read    *service.ReadService
	inbox   *service.InboxService
	auth    *service.AuthService
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		AppEnv:               "test",
		JWTSecret:            "secret",
		JWTExp:               24,
		ChatPreviewMaxRunes:  80,
		ChatMessageMaxLength: 4000,
		ChatHistoryPageSize:  50,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	repo := memory.NewRepository(store)
	cfg := testConfig()
	v := config.NewValidator()
	changes := &recordingFeed{}

	return &testEnv{
		store:   store,
		repo:    repo,
		cfg:     cfg,
		changes: changes,
		chat:    service.NewChatService(repo, cfg, v, changes, nil),
		message: service.NewMessageService(repo, cfg, v, changes, nil),
		read:    service.NewReadService(repo, changes),
		inbox:   service.NewInboxService(repo, cfg, v, nil),
		auth:    service.NewAuthService(repo, cfg, v),
	}
}

func (e *testEnv) createProfile(t *testing.T, name string) *entity.Profile {
	t.Helper()

	p := &entity.Profile{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@example.com",
		CreatedAt: time.Now().UTC(),
	}
	if name != "" {
		p.FullName = &name
	}
	stored, err := e.repo.Profile.Upsert(context.Background(), p)
	require.NoError(t, err)
	return stored
}

func (e *testEnv) createPet(t *testing.T, ownerID uuid.UUID, name string) *entity.Pet {
	t.Helper()

	p := &entity.Pet{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        name,
		IsAvailable: true,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, e.repo.Pet.Create(context.Background(), p))
	return p
}

// failingChatStore wraps a store and fails the selected operations with a transient error.
type failingChatStore struct {
	repository.ChatStore
	failMarkRead bool
	failGet      bool
}

var errStoreDown = errTransient("connection refused")

type errTransient string

func (e errTransient) Error() string { return string(e) }

func (f *failingChatStore) MarkRead(ctx context.Context, chatID, readerID uuid.UUID, reader entity.Role) ([]*entity.Message, bool, error) {
	if f.failMarkRead {
		return nil, false, errStoreDown
	}
	return f.ChatStore.MarkRead(ctx, chatID, readerID, reader)
}

func (f *failingChatStore) GetByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	if f.failGet {
		return nil, errStoreDown
	}
	return f.ChatStore.GetByID(ctx, id)
}

// racingChatStore loses every Create to a concurrent creator whose row never becomes visible.
// onConflict runs when Create reports the conflict.
type racingChatStore struct {
	repository.ChatStore
	onConflict func()

	mu    sync.Mutex
	finds int
}

func (r *racingChatStore) Create(_ context.Context, _ *entity.Conversation) error {
	if r.onConflict != nil {
		r.onConflict()
	}
	return repository.ErrConflict
}

func (r *racingChatStore) FindByPetAndInterested(_ context.Context, _, _ uuid.UUID) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	return nil, repository.ErrNotFound
}

func (r *racingChatStore) findCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finds
}
