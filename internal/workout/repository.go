package workout

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/myrjola/aitrainer/internal/sqlite"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

type workoutRepository interface {
	// Create stores w for userID and returns it with ID and CreatedAt set.
	Create(ctx context.Context, userID int64, w Workout) (Workout, error)
	// List returns the user's workouts newest first. A positive limit caps the result.
	List(ctx context.Context, userID int64, limit int) ([]Workout, error)
	Delete(ctx context.Context, userID, id int64) error
}

type insightRepository interface {
	Create(ctx context.Context, userID int64, in Insight) (Insight, error)
	List(ctx context.Context, userID int64, limit int) ([]Insight, error)
}

type tipRepository interface {
	Create(ctx context.Context, userID int64, workoutID *int64, th TipHistory) (TipHistory, error)
	List(ctx context.Context, userID int64) ([]TipHistory, error)
}

// repository aggregates all repositories for the workout domain.
type repository struct {
	workouts workoutRepository
	insights insightRepository
	tips     tipRepository
}

func newRepository(db *sqlite.Database) *repository {
	base := baseRepository{db: db}
	return &repository{
		workouts: &sqliteWorkoutRepository{baseRepository: base},
		insights: &sqliteInsightRepository{baseRepository: base},
		tips:     &sqliteTipRepository{baseRepository: base},
	}
}

type baseRepository struct {
	db *sqlite.Database
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// collect scans every row with scan and closes rows.
func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	items := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return items, nil
}

func limitClause(limit int) (string, []any) {
	if limit <= 0 {
		return "", nil
	}
	return " LIMIT ?", []any{limit}
}
