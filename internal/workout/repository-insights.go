package workout

import (
	"context"
	"encoding/json"
	"fmt"
)

// sqliteInsightRepository implements insightRepository.
type sqliteInsightRepository struct {
	baseRepository
}

func scanInsight(s scanner) (Insight, error) {
	var (
		in                  Insight
		payload, createdAt string
	)
	if err := s.Scan(&in.ID, &in.Source, &payload, &createdAt); err != nil {
		return Insight{}, fmt.Errorf("scan insight: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &in.Insights); err != nil {
		return Insight{}, fmt.Errorf("unmarshal insight %d: %w", in.ID, err)
	}
	var err error
	if in.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return Insight{}, err
	}
	return in, nil
}

func (r *sqliteInsightRepository) Create(ctx context.Context, userID int64, in Insight) (Insight, error) {
	payload, err := json.Marshal(in.Insights)
	if err != nil {
		return Insight{}, fmt.Errorf("marshal insights: %w", err)
	}
	row := r.db.ReadWrite.QueryRowContext(ctx, `
		INSERT INTO ai_insights (user_id, source, insights)
		VALUES (?, ?, ?)
		RETURNING id, source, insights, created_at`,
		userID, in.Source, string(payload))
	created, err := scanInsight(row)
	if err != nil {
		return Insight{}, fmt.Errorf("insert insight: %w", err)
	}
	return created, nil
}

func (r *sqliteInsightRepository) List(ctx context.Context, userID int64, limit int) ([]Insight, error) {
	limitSQL, limitArgs := limitClause(limit)
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, source, insights, created_at
		FROM ai_insights
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`+limitSQL,
		append([]any{userID}, limitArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	return collect(rows, scanInsight)
}
