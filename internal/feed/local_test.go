package feed

import (
	"PetAdoptAPI/internal/entity"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFeed_DeliversToEveryListener(t *testing.T) {
	f := NewLocalFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu       sync.Mutex
		received = map[int][]Change{}
		wg       sync.WaitGroup
	)

	for i := 0; i < 2; i++ {
		ready := make(chan struct{})
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_ = f.Listen(ctx, func() { close(ready) }, func(c Change) {
				mu.Lock()
				received[idx] = append(received[idx], c)
				mu.Unlock()
			})
		}(i)
		<-ready
	}

	msg := &entity.Message{ID: uuid.New(), ChatID: uuid.New(), Content: "hi"}
	require.NoError(t, f.Publish(ctx, MessageChange(OpInsert, msg)))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received[0]) == 1 && len(received[1]) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, msg.ChatID, received[0][0].ChatID)
	assert.Equal(t, TableMessages, received[1][0].Table)
	mu.Unlock()

	cancel()
	wg.Wait()
	assert.Equal(t, 0, f.Listeners())
}

func TestLocalFeed_PublishWithoutListeners(t *testing.T) {
	f := NewLocalFeed()
	conv := entity.NewConversation(uuid.New(), uuid.New(), uuid.New(), time.Now())

	assert.NoError(t, f.Publish(context.Background(), ChatChange(OpInsert, conv)))
}

func TestChatChange_CarriesParties(t *testing.T) {
	conv := entity.NewConversation(uuid.New(), uuid.New(), uuid.New(), time.Now())
	change := ChatChange(OpUpdate, conv)

	assert.Equal(t, TableChats, change.Table)
	assert.Equal(t, conv.ID, change.ChatID)
	assert.Equal(t, conv.OwnerID, change.OwnerID)
	assert.Equal(t, conv.InterestedID, change.InterestedID)
}
