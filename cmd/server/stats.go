package main

import (
	"context"
	"database/sql"
	"time"

	"dompet/internal/observability"
)

// reportPoolStats logs the database pool once a minute.
func reportPoolStats(ctx context.Context, obs observability.Observer, stats func() sql.DBStats) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := stats()
			obs.Log.Debug().
				Int("open", s.OpenConnections).
				Int("idle", s.Idle).
				Int("in_use", s.InUse).
				Int64("wait_count", s.WaitCount).
				Dur("wait_duration", s.WaitDuration).
				Msg("db pool stats")
		}
	}
}
