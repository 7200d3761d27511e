package admins

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/voicequotes/core/logger"
)

// Seed makes sure every configured bootstrap id is an admin.
func Seed(ctx context.Context, r Registry, ids []int64) (int, error) {
	added := 0
	for _, id := range ids {
		if id == 0 {
			continue
		}
		ok, err := r.Contains(ctx, id)
		if err != nil {
			return added, fmt.Errorf("seed admin %d: %w", id, err)
		}
		if ok {
			continue
		}
		if err := r.Add(ctx, Entry{UserID: id}); err != nil {
			return added, fmt.Errorf("seed admin %d: %w", id, err)
		}
		added++
	}
	logger.Info(ctx, "db.seed", "admins.seed",
		slog.String("status", "ok"),
		slog.Int("count", added),
	)
	return added, nil
}
