package coaching_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/aitrainer/internal/coaching"
)

const (
	warmupFallback   = "Always include 5–10 minutes of warm-up before heavy exercises."
	workoutFallback  = "Your workout variety is balanced. Maintain consistent intensity."
	recoveryFallback = "Recovery balance looks healthy. Continue monitoring fatigue levels."
)

func workouts(plans ...string) [][]coaching.ExerciseRecord {
	batches := make([][]coaching.ExerciseRecord, 0, len(plans))
	for _, plan := range plans {
		batches = append(batches, coaching.Normalize(plan))
	}
	return batches
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		batches [][]coaching.ExerciseRecord
		want    coaching.InsightResult
	}{
		{
			name:    "no workouts",
			batches: nil,
			want: coaching.InsightResult{
				Coach:    "Aria",
				Title:    "AI Training Insight",
				Warmup:   []string{"Log more workouts to unlock personalized insights."},
				Workout:  []string{},
				Recovery: []string{},
			},
		},
		{
			name:    "empty workouts take the fallback path",
			batches: workouts("", "\n\n"),
			want: coaching.InsightResult{
				Coach:    "Aria",
				Title:    "AI Training Insight",
				Warmup:   []string{warmupFallback},
				Workout:  []string{workoutFallback},
				Recovery: []string{recoveryFallback},
			},
		},
		{
			name:    "all exercises once",
			batches: workouts("squat\nbench", "deadlift\nrow"),
			want: coaching.InsightResult{
				Coach:    "Aria",
				Title:    "AI Training Insight",
				Warmup:   []string{warmupFallback},
				Workout:  []string{workoutFallback},
				Recovery: []string{recoveryFallback},
			},
		},
		{
			name:    "four times triggers recovery",
			batches: workouts("squat\nbench", "squat\nrow", "squat", "squat\nplank"),
			want: coaching.InsightResult{
				// The workout fallback counts toward the coach comparison.
				Coach:    "Aria",
				Title:    "AI Training Insight",
				Warmup:   []string{warmupFallback},
				Workout:  []string{workoutFallback},
				Recovery: []string{"Squat appears very frequently. Consider adding rest or reducing volume."},
			},
		},
		{
			name:    "twice triggers workout feedback",
			batches: workouts("bench press\nrow", "bench press\nplank"),
			want: coaching.InsightResult{
				Coach:    "Aria",
				Title:    "AI Training Insight",
				Warmup:   []string{warmupFallback},
				Workout:  []string{"Bench Press shows consistent training. Progressive overload is recommended."},
				Recovery: []string{recoveryFallback},
			},
		},
		{
			name:    "three times is still workout feedback",
			batches: workouts("row", "row", "row"),
			want: coaching.InsightResult{
				Coach:    "Aria",
				Title:    "AI Training Insight",
				Warmup:   []string{warmupFallback},
				Workout:  []string{"Row shows consistent training. Progressive overload is recommended."},
				Recovery: []string{recoveryFallback},
			},
		},
		{
			name:    "counting ignores case",
			batches: workouts("Squat", "squat", "SQUAT\nlunge"),
			want: coaching.InsightResult{
				Coach:    "Aria",
				Title:    "AI Training Insight",
				Warmup:   []string{warmupFallback},
				Workout:  []string{"Squat shows consistent training. Progressive overload is recommended."},
				Recovery: []string{recoveryFallback},
			},
		},
		{
			name: "bucket order follows first appearance",
			batches: workouts(
				"lunge\nsquat\nrow",
				"squat\nlunge\nrow",
				"row\nsquat\nrow",
				"squat",
			),
			want: coaching.InsightResult{
				Coach:   "Atlas",
				Title:   "AI Training Insight",
				Warmup:  []string{warmupFallback},
				Workout: []string{"Lunge shows consistent training. Progressive overload is recommended."},
				Recovery: []string{
					"Squat appears very frequently. Consider adding rest or reducing volume.",
					"Row appears very frequently. Consider adding rest or reducing volume.",
				},
			},
		},
		{
			name: "records without a name are skipped",
			batches: [][]coaching.ExerciseRecord{
				{{Name: ""}, {Name: "curl"}},
				{{Name: ""}, {Name: "Curl"}},
			},
			want: coaching.InsightResult{
				Coach:    "Aria",
				Title:    "AI Training Insight",
				Warmup:   []string{warmupFallback},
				Workout:  []string{"Curl shows consistent training. Progressive overload is recommended."},
				Recovery: []string{recoveryFallback},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := coaching.Aggregate(tt.batches)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Aggregate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAggregate_coachTieGoesToAria(t *testing.T) {
	// One recovery message and one workout message.
	got := coaching.Aggregate(workouts("squat\nrow", "squat\nrow", "squat", "squat"))
	if got.Coach != coaching.CoachAria {
		t.Errorf("Coach = %q, want %q", got.Coach, coaching.CoachAria)
	}
	if len(got.Recovery) != 1 || len(got.Workout) != 1 {
		t.Fatalf("expected one recovery and one workout message, got %v and %v", got.Recovery, got.Workout)
	}
	if !strings.HasPrefix(got.Workout[0], "Row ") {
		t.Errorf("Workout[0] = %q, want message about Row", got.Workout[0])
	}
}

func TestAggregate_titleIsConstant(t *testing.T) {
	for _, batches := range [][][]coaching.ExerciseRecord{
		nil,
		workouts("a"),
		workouts("a", "a", "a", "a"),
	} {
		if got := coaching.Aggregate(batches).Title; got != coaching.InsightTitle {
			t.Errorf("Title = %q, want %q", got, coaching.InsightTitle)
		}
	}
}
