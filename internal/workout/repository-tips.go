package workout

import (
	"context"
	"encoding/json"
	"fmt"
)

// sqliteTipRepository implements tipRepository.
type sqliteTipRepository struct {
	baseRepository
}

func scanTipHistory(s scanner) (TipHistory, error) {
	var (
		th                 TipHistory
		payload, createdAt string
	)
	if err := s.Scan(&th.ID, &th.UserID, &th.WorkoutID, &payload, &createdAt); err != nil {
		return TipHistory{}, fmt.Errorf("scan tip history: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &th.Tips); err != nil {
		return TipHistory{}, fmt.Errorf("unmarshal tips %d: %w", th.ID, err)
	}
	var err error
	if th.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return TipHistory{}, err
	}
	return th, nil
}

func (r *sqliteTipRepository) Create(
	ctx context.Context,
	userID int64,
	workoutID *int64,
	th TipHistory,
) (TipHistory, error) {
	payload, err := json.Marshal(th.Tips)
	if err != nil {
		return TipHistory{}, fmt.Errorf("marshal tips: %w", err)
	}
	row := r.db.ReadWrite.QueryRowContext(ctx, `
		INSERT INTO workout_tip_history (user_id, workout_id, tips)
		VALUES (?, ?, ?)
		RETURNING id, user_id, workout_id, tips, created_at`,
		userID, workoutID, string(payload))
	created, err := scanTipHistory(row)
	if err != nil {
		return TipHistory{}, fmt.Errorf("insert tip history: %w", err)
	}
	return created, nil
}

func (r *sqliteTipRepository) List(ctx context.Context, userID int64) ([]TipHistory, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, user_id, workout_id, tips, created_at
		FROM workout_tip_history
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query tip history: %w", err)
	}
	return collect(rows, scanTipHistory)
}
