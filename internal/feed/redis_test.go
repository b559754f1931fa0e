package feed

import (
	"PetAdoptAPI/internal/entity"
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisFeed_RoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	channel := fmt.Sprintf("petadopt:test:%s", uuid.NewString())
	f := NewRedisFeed(client, channel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu       sync.Mutex
		received []Change
		ready    = make(chan struct{})
		done     = make(chan error, 1)
	)
	go func() {
		done <- f.Listen(ctx, func() { close(ready) }, func(c Change) {
			mu.Lock()
			received = append(received, c)
			mu.Unlock()
		})
	}()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("listener never became ready")
	}

	conv := &entity.Conversation{ID: uuid.New(), OwnerID: uuid.New(), InterestedID: uuid.New()}
	require.NoError(t, f.Publish(ctx, ChatChange(OpUpdate, conv)))
	require.NoError(t, client.Publish(ctx, channel, "not json").Err())

	msg := &entity.Message{ID: uuid.New(), ChatID: conv.ID, Content: "hello"}
	require.NoError(t, f.Publish(ctx, MessageChange(OpInsert, msg)))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, conv.OwnerID, received[0].OwnerID)
	assert.Equal(t, TableMessages, received[1].Table)
	assert.Equal(t, "hello", received[1].Message.Content)
	mu.Unlock()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
