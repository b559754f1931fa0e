package scheduler

import (
	"PetAdoptAPI/internal/config"
	"PetAdoptAPI/internal/repository/memory"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_Start(t *testing.T) {
	repo := memory.NewRepository(memory.NewStore())

	t.Run("Valid Schedule", func(t *testing.T) {
		s := New(&config.AppConfig{UnreadReconcileCron: "15 3 * * *"}, repo)
		assert.NoError(t, s.Start())
		assert.Len(t, s.cron.Entries(), 1)
		s.Stop()
	})

	t.Run("Invalid Schedule", func(t *testing.T) {
		s := New(&config.AppConfig{UnreadReconcileCron: "not a schedule"}, repo)
		assert.Error(t, s.Start())
		assert.Empty(t, s.cron.Entries())
	})
}
