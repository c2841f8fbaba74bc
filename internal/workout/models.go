package workout

import (
	"time"

	"github.com/myrjola/aitrainer/internal/ai"
	"github.com/myrjola/aitrainer/internal/coaching"
)

// Request asks for a new AI generated workout plan.
type Request struct {
	ai.Profile

	WorkoutPreference string `json:"workout_preference"`
}

// Workout is a generated workout plan together with the data it was generated from.
type Workout struct {
	Request

	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Plan      string    `json:"workout_plan"`
	PlanHTML  string    `json:"plan_html"`
	CreatedAt time.Time `json:"created_at"`
}

// MemoryEntry is a stored workout with its plan broken down into exercises.
type MemoryEntry struct {
	ID                  int64                     `json:"id"`
	CreatedAt           time.Time                 `json:"created_at"`
	Name                string                    `json:"name"`
	FitnessGoal         string                    `json:"fitness_goal"`
	Plan                string                    `json:"workout_plan"`
	NormalizedExercises []coaching.ExerciseRecord `json:"normalized_exercises"`
}

// SourceWorkout marks insights aggregated from workout plans.
const SourceWorkout = "workout"

// Insight is a persisted aggregation result.
type Insight struct {
	ID        int64                  `json:"id"`
	Source    string                 `json:"source"`
	Insights  coaching.InsightResult `json:"insights"`
	CreatedAt time.Time              `json:"created_at"`
}

// TipHistory is a saved set of workout tips. WorkoutID is the user's latest workout at the time of saving.
type TipHistory struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	WorkoutID *int64    `json:"workout_id"`
	Tips      ai.Tips   `json:"tips"`
	CreatedAt time.Time `json:"created_at"`
}
