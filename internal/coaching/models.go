// Package coaching turns stored workout plan text into exercise records and coaching insights.
//
// Everything in this package is pure and safe for concurrent use.
package coaching

// ExerciseRecord is one line of a workout plan treated as a single exercise.
//
// Sets, Reps and Rest are reserved for structured parsing and are never populated by [Normalize].
type ExerciseRecord struct {
	Name string  `json:"name"`
	Sets *int    `json:"sets"`
	Reps *string `json:"reps"`
	Rest *string `json:"rest"`
}

// InsightResult is the coaching feedback derived from a batch of workouts.
type InsightResult struct {
	Coach    string   `json:"coach"`
	Title    string   `json:"title"`
	Warmup   []string `json:"warmup"`
	Workout  []string `json:"workout"`
	Recovery []string `json:"recovery"`
}
