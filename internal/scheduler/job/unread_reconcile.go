package job

import (
	"PetAdoptAPI/internal/repository"
	"context"
	"log/slog"
)

// RunUnreadReconcile recomputes both unread counters of every conversation from the messages
// that are still unread, repairing drift left by best-effort reads.
func RunUnreadReconcile(ctx context.Context, chats repository.ChatStore) (int64, error) {
	slog.Info("Running Unread Reconcile")

	drifted, err := chats.ReconcileUnreadCounts(ctx)
	if err != nil {
		slog.Error("Failed to reconcile unread counters", "error", err)
		return 0, err
	}

	if drifted > 0 {
		slog.Warn("Repaired drifted unread counters", "conversations", drifted)
	}
	return drifted, nil
}
