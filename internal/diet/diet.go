// Package diet generates and stores AI diet plans.
package diet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/aitrainer/internal/ai"
	"github.com/myrjola/aitrainer/internal/contexthelpers"
	"github.com/myrjola/aitrainer/internal/errors"
	"github.com/myrjola/aitrainer/internal/markdown"
	"github.com/myrjola/aitrainer/internal/sqlite"
)

var ErrInvalidInput = errors.NewSentinel("invalid diet input")

const timestampFormat = "2006-01-02T15:04:05.000Z"

type Request struct {
	ai.Profile

	DietPreference string `json:"diet_preference"`
}

// Diet is a generated diet plan. UserID is nil once the owner has deleted their account.
type Diet struct {
	Request

	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id"`
	Plan      string    `json:"diet_plan"`
	PlanHTML  string    `json:"plan_html"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	db     *sqlite.Database
	ai     ai.Client
	logger *slog.Logger
}

func NewService(db *sqlite.Database, client ai.Client, logger *slog.Logger) *Service {
	return &Service{db: db, ai: client, logger: logger}
}

const selectDiet = `
	SELECT id, user_id, name, age, weight, weight_unit, height, height_unit, blood_group, fitness_goal,
	       medical_condition, diet_preference, diet_plan, created_at
	FROM diets`

type scanner interface {
	Scan(dest ...any) error
}

func scanDiet(s scanner) (Diet, error) {
	var (
		d         Diet
		createdAt string
	)
	err := s.Scan(&d.ID, &d.UserID, &d.Name, &d.Age, &d.Weight, &d.WeightUnit, &d.Height, &d.HeightUnit,
		&d.BloodGroup, &d.FitnessGoal, &d.MedicalCondition, &d.DietPreference, &d.Plan, &createdAt)
	if err != nil {
		return Diet{}, fmt.Errorf("scan diet: %w", err)
	}
	if d.CreatedAt, err = time.Parse(timestampFormat, createdAt); err != nil {
		return Diet{}, fmt.Errorf("parse created_at: %w", err)
	}
	d.PlanHTML = markdown.Render(d.Plan)
	return d, nil
}

// Generate asks the AI for a diet plan matching req and stores it for the authenticated user.
func (s *Service) Generate(ctx context.Context, req Request) (Diet, error) {
	if err := req.Validate(); err != nil {
		return Diet{}, errors.Join(ErrInvalidInput, err)
	}
	if req.DietPreference == "" {
		return Diet{}, errors.Wrap(ErrInvalidInput, "diet_preference is required")
	}
	if err := ai.CheckLength("diet_preference", req.DietPreference, ai.MaxTextLength); err != nil {
		return Diet{}, errors.Join(ErrInvalidInput, err)
	}
	plan := s.ai.GenerateDietPlan(ctx, req.Profile, req.DietPreference)

	row := s.db.ReadWrite.QueryRowContext(ctx, `
		INSERT INTO diets (user_id, name, age, weight, weight_unit, height, height_unit, blood_group,
		                   fitness_goal, medical_condition, diet_preference, diet_plan)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, user_id, name, age, weight, weight_unit, height, height_unit, blood_group, fitness_goal,
		          medical_condition, diet_preference, diet_plan, created_at`,
		contexthelpers.AuthenticatedUserID(ctx), req.Name, req.Age, req.Weight, req.WeightUnit, req.Height,
		req.HeightUnit, req.BloodGroup, req.FitnessGoal, req.MedicalCondition, req.DietPreference, plan)
	d, err := scanDiet(row)
	if err != nil {
		return Diet{}, fmt.Errorf("insert diet: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "generated diet", slog.Int64("diet_id", d.ID))
	return d, nil
}

// List returns the authenticated user's diets newest first.
func (s *Service) List(ctx context.Context) ([]Diet, error) {
	rows, err := s.db.ReadOnly.QueryContext(ctx,
		selectDiet+` WHERE user_id = ? ORDER BY created_at DESC, id DESC`, contexthelpers.AuthenticatedUserID(ctx))
	if err != nil {
		return nil, fmt.Errorf("query diets: %w", err)
	}
	defer rows.Close()
	diets := []Diet{}
	for rows.Next() {
		d, scanErr := scanDiet(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		diets = append(diets, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diets: %w", err)
	}
	return diets, nil
}
