package workout

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/myrjola/aitrainer/internal/errors"
)

// sqliteWorkoutRepository implements workoutRepository.
type sqliteWorkoutRepository struct {
	baseRepository
}

const selectWorkout = `
	SELECT id, user_id, name, age, weight, weight_unit, height, height_unit, blood_group, fitness_goal,
	       medical_condition, workout_preference, workout_plan, created_at
	FROM workouts`

func scanWorkout(s scanner) (Workout, error) {
	var (
		w         Workout
		createdAt string
	)
	err := s.Scan(&w.ID, &w.UserID, &w.Name, &w.Age, &w.Weight, &w.WeightUnit, &w.Height, &w.HeightUnit,
		&w.BloodGroup, &w.FitnessGoal, &w.MedicalCondition, &w.WorkoutPreference, &w.Plan, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Workout{}, ErrNotFound
	}
	if err != nil {
		return Workout{}, fmt.Errorf("scan workout: %w", err)
	}
	if w.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return Workout{}, err
	}
	return w, nil
}

func (r *sqliteWorkoutRepository) Create(ctx context.Context, userID int64, w Workout) (Workout, error) {
	row := r.db.ReadWrite.QueryRowContext(ctx, `
		INSERT INTO workouts (user_id, name, age, weight, weight_unit, height, height_unit, blood_group,
		                      fitness_goal, medical_condition, workout_preference, workout_plan)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, user_id, name, age, weight, weight_unit, height, height_unit, blood_group, fitness_goal,
		          medical_condition, workout_preference, workout_plan, created_at`,
		userID, w.Name, w.Age, w.Weight, w.WeightUnit, w.Height, w.HeightUnit, w.BloodGroup, w.FitnessGoal,
		w.MedicalCondition, w.WorkoutPreference, w.Plan)
	created, err := scanWorkout(row)
	if err != nil {
		return Workout{}, fmt.Errorf("insert workout: %w", err)
	}
	return created, nil
}

func (r *sqliteWorkoutRepository) List(ctx context.Context, userID int64, limit int) ([]Workout, error) {
	limitSQL, limitArgs := limitClause(limit)
	rows, err := r.db.ReadOnly.QueryContext(ctx,
		selectWorkout+` WHERE user_id = ? ORDER BY created_at DESC, id DESC`+limitSQL,
		append([]any{userID}, limitArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	return collect(rows, scanWorkout)
}

func (r *sqliteWorkoutRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ReadWrite.ExecContext(ctx, `DELETE FROM workouts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete workout %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
