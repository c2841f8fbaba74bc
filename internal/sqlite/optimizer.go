package sqlite

import (
	"context"
	"log/slog"
	"time"

	"github.com/myrjola/aitrainer/internal/errors"
)

const optimizeInterval = time.Hour

// runOptimizer runs PRAGMA optimize at start-up and then every optimizeInterval until ctx is done.
// See https://www.sqlite.org/pragma.html#pragma_optimize.
func (db *Database) runOptimizer(ctx context.Context) {
	// 0x10002 analyzes every table on the first run of a long-lived connection.
	pragma := "PRAGMA optimize = 0x10002"
	ticker := time.NewTicker(optimizeInterval)
	defer ticker.Stop()
	for {
		start := time.Now()
		if _, err := db.ReadWrite.ExecContext(ctx, pragma); err != nil {
			if ctx.Err() != nil {
				return
			}
			db.logger.LogAttrs(ctx, slog.LevelError, "optimize database", errors.SlogError(err))
		} else {
			db.logger.LogAttrs(ctx, slog.LevelDebug, "optimized database", slog.Duration("duration", time.Since(start)))
		}
		pragma = "PRAGMA optimize"
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
