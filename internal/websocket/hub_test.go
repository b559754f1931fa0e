package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAfterStop(t *testing.T) {
	hub := NewHub(Services{})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		require.FailNow(t, "hub did not stop")
	}

	assert.False(t, hub.Register(&Client{}))
	hub.Unregister(&Client{})
}
