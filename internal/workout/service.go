// Package workout generates AI workout plans and derives coaching insights and tips from them.
package workout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/myrjola/aitrainer/internal/ai"
	"github.com/myrjola/aitrainer/internal/coaching"
	"github.com/myrjola/aitrainer/internal/contexthelpers"
	"github.com/myrjola/aitrainer/internal/errors"
	"github.com/myrjola/aitrainer/internal/markdown"
	"github.com/myrjola/aitrainer/internal/metrics"
	"github.com/myrjola/aitrainer/internal/sqlite"
)

var (
	ErrNotFound     = errors.NewSentinel("workout not found")
	ErrInvalidInput = errors.NewSentinel("invalid workout input")
)

// insightWindow is how many of the most recent workouts an insight aggregates.
const insightWindow = 10

// Service handles the business logic for workouts. Every method acts on behalf of the authenticated user.
type Service struct {
	repo    *repository
	ai      ai.Client
	metrics *metrics.Manager
	logger  *slog.Logger
}

// NewService creates a new workout service.
func NewService(db *sqlite.Database, client ai.Client, m *metrics.Manager, logger *slog.Logger) *Service {
	return &Service{
		repo:    newRepository(db),
		ai:      client,
		metrics: m,
		logger:  logger,
	}
}

func withHTML(w Workout) Workout {
	w.PlanHTML = markdown.Render(w.Plan)
	return w
}

// Generate asks the AI for a plan matching req and stores it.
func (s *Service) Generate(ctx context.Context, req Request) (Workout, error) {
	if err := req.Validate(); err != nil {
		return Workout{}, errors.Join(ErrInvalidInput, err)
	}
	if req.WorkoutPreference == "" {
		return Workout{}, errors.Wrap(ErrInvalidInput, "workout_preference is required")
	}
	if err := ai.CheckLength("workout_preference", req.WorkoutPreference, ai.MaxTextLength); err != nil {
		return Workout{}, errors.Join(ErrInvalidInput, err)
	}
	plan := s.ai.GenerateWorkoutPlan(ctx, req.Profile, req.WorkoutPreference)
	w, err := s.repo.workouts.Create(ctx, contexthelpers.AuthenticatedUserID(ctx), Workout{Request: req, Plan: plan})
	if err != nil {
		return Workout{}, fmt.Errorf("create workout: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "generated workout", slog.Int64("workout_id", w.ID))
	return withHTML(w), nil
}

// List returns the user's workouts newest first.
func (s *Service) List(ctx context.Context) ([]Workout, error) {
	workouts, err := s.repo.workouts.List(ctx, contexthelpers.AuthenticatedUserID(ctx), 0)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	for i := range workouts {
		workouts[i] = withHTML(workouts[i])
	}
	return workouts, nil
}

// Memory returns every workout newest first with its plan normalized into exercises.
func (s *Service) Memory(ctx context.Context) ([]MemoryEntry, error) {
	workouts, err := s.repo.workouts.List(ctx, contexthelpers.AuthenticatedUserID(ctx), 0)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	entries := make([]MemoryEntry, 0, len(workouts))
	for _, w := range workouts {
		entries = append(entries, MemoryEntry{
			ID:                  w.ID,
			CreatedAt:           w.CreatedAt,
			Name:                w.Name,
			FitnessGoal:         w.FitnessGoal,
			Plan:                w.Plan,
			NormalizedExercises: coaching.Normalize(w.Plan),
		})
	}
	return entries, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.workouts.Delete(ctx, contexthelpers.AuthenticatedUserID(ctx), id); err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	return nil
}

// Insights aggregates the latest workouts into coaching insights and stores the result.
// The boolean reports whether the result was stored, which is always the case when err is nil.
func (s *Service) Insights(ctx context.Context) (coaching.InsightResult, bool, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)
	workouts, err := s.repo.workouts.List(ctx, userID, insightWindow)
	if err != nil {
		return coaching.InsightResult{}, false, fmt.Errorf("list recent workouts: %w", err)
	}
	batches := make([][]coaching.ExerciseRecord, 0, len(workouts))
	for _, w := range workouts {
		batches = append(batches, coaching.Normalize(w.Plan))
	}
	result := coaching.Aggregate(batches)

	if _, err = s.repo.insights.Create(ctx, userID, Insight{Source: SourceWorkout, Insights: result}); err != nil {
		return coaching.InsightResult{}, false, fmt.Errorf("save insight: %w", err)
	}
	s.metrics.CounterInsightsSaved.Inc()
	s.logger.LogAttrs(ctx, slog.LevelInfo, "saved insight",
		slog.Int("workouts", len(workouts)), slog.String("coach", result.Coach))
	return result, true, nil
}

// InsightHistory returns previously stored insights newest first. A non-positive limit returns all of them.
func (s *Service) InsightHistory(ctx context.Context, limit int) ([]Insight, error) {
	insights, err := s.repo.insights.List(ctx, contexthelpers.AuthenticatedUserID(ctx), limit)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	return insights, nil
}

func (s *Service) latest(ctx context.Context) (Workout, error) {
	workouts, err := s.repo.workouts.List(ctx, contexthelpers.AuthenticatedUserID(ctx), 1)
	if err != nil {
		return Workout{}, fmt.Errorf("list latest workout: %w", err)
	}
	if len(workouts) == 0 {
		return Workout{}, ErrNotFound
	}
	return workouts[0], nil
}

// Tips asks the AI for tips about the user's latest workout.
func (s *Service) Tips(ctx context.Context) (ai.Tips, error) {
	w, err := s.latest(ctx)
	if err != nil {
		return ai.Tips{}, err
	}
	tips, err := s.ai.GenerateWorkoutTips(ctx, w.Plan)
	if err != nil {
		return ai.Tips{}, fmt.Errorf("generate tips for workout %d: %w", w.ID, err)
	}
	return tips, nil
}

// SaveTips stores tips, linked to the user's latest workout if there is one.
func (s *Service) SaveTips(ctx context.Context, tips ai.Tips) (TipHistory, error) {
	for _, bucket := range []*[]string{&tips.Warmup, &tips.Workout, &tips.Recovery} {
		if *bucket == nil {
			*bucket = []string{}
		}
	}
	var workoutID *int64
	w, err := s.latest(ctx)
	switch {
	case err == nil:
		workoutID = &w.ID
	case errors.Is(err, ErrNotFound):
	default:
		return TipHistory{}, err
	}
	saved, err := s.repo.tips.Create(ctx, contexthelpers.AuthenticatedUserID(ctx), workoutID, TipHistory{Tips: tips})
	if err != nil {
		return TipHistory{}, fmt.Errorf("save tips: %w", err)
	}
	return saved, nil
}

// TipHistory returns the saved tips newest first.
func (s *Service) TipHistory(ctx context.Context) ([]TipHistory, error) {
	history, err := s.repo.tips.List(ctx, contexthelpers.AuthenticatedUserID(ctx))
	if err != nil {
		return nil, fmt.Errorf("list tip history: %w", err)
	}
	return history, nil
}
