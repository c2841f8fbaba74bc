package coaching

import (
	"strings"
	"unicode"
)

const (
	// InsightTitle is the title of every insight result.
	InsightTitle = "AI Training Insight"

	// CoachAria is the default coach persona.
	CoachAria = "Aria"
	// CoachAtlas is picked when recovery feedback outweighs workout feedback.
	CoachAtlas = "Atlas"

	// consistentThreshold is the minimum count for an exercise to earn workout feedback.
	consistentThreshold = 2
	// overuseThreshold is the minimum count for an exercise to earn recovery feedback.
	overuseThreshold = 4

	overuseTemplate    = " appears very frequently. Consider adding rest or reducing volume."
	consistentTemplate = " shows consistent training. Progressive overload is recommended."

	noWorkoutsMessage = "Log more workouts to unlock personalized insights."
	warmupFallback    = "Always include 5–10 minutes of warm-up before heavy exercises."
	workoutFallback   = "Your workout variety is balanced. Maintain consistent intensity."
	recoveryFallback  = "Recovery balance looks healthy. Continue monitoring fatigue levels."
)

// frequencyTable counts names and remembers the order in which they were first seen.
type frequencyTable struct {
	order  []string
	counts map[string]int
}

func newFrequencyTable() *frequencyTable {
	return &frequencyTable{
		order:  []string{},
		counts: make(map[string]int),
	}
}

func (f *frequencyTable) add(name string) {
	if _, ok := f.counts[name]; !ok {
		f.order = append(f.order, name)
	}
	f.counts[name]++
}

// each calls fn for every distinct name in first-seen order.
func (f *frequencyTable) each(fn func(name string, count int)) {
	for _, name := range f.order {
		fn(name, f.counts[name])
	}
}

// Aggregate derives coaching insights from the normalized exercises of several workouts.
//
// Exercise names are counted case-insensitively across all workouts. Names seen at least four times get a
// recovery message, names seen two or three times get a workout message. Empty buckets are filled with a
// generic message. The warmup bucket has no rule of its own, so it always holds the generic warm-up
// reminder when at least one workout is given.
func Aggregate(batches [][]ExerciseRecord) InsightResult {
	if len(batches) == 0 {
		return InsightResult{
			Coach:    CoachAria,
			Title:    InsightTitle,
			Warmup:   []string{noWorkoutsMessage},
			Workout:  []string{},
			Recovery: []string{},
		}
	}

	frequency := newFrequencyTable()
	for _, batch := range batches {
		for _, exercise := range batch {
			if exercise.Name == "" {
				continue
			}
			frequency.add(strings.ToLower(exercise.Name))
		}
	}

	var (
		warmup   = []string{}
		workout  = []string{}
		recovery = []string{}
	)
	frequency.each(func(name string, count int) {
		switch {
		case count >= overuseThreshold:
			recovery = append(recovery, titleCase(name)+overuseTemplate)
		case count >= consistentThreshold:
			workout = append(workout, titleCase(name)+consistentTemplate)
		}
	})

	if len(warmup) == 0 {
		warmup = append(warmup, warmupFallback)
	}
	if len(workout) == 0 {
		workout = append(workout, workoutFallback)
	}
	if len(recovery) == 0 {
		recovery = append(recovery, recoveryFallback)
	}

	coach := CoachAria
	if len(recovery) > len(workout) {
		coach = CoachAtlas
	}

	return InsightResult{
		Coach:    coach,
		Title:    InsightTitle,
		Warmup:   warmup,
		Workout:  workout,
		Recovery: recovery,
	}
}

// titleCase upper-cases every letter that follows an uncased rune and lower-cases the rest,
// so "bench press 3x10" becomes "Bench Press 3X10" and "日本squat" becomes "日本Squat".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevCased := false
	for _, r := range s {
		if prevCased {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToTitle(r))
		}
		prevCased = isCased(r)
	}
	return b.String()
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}
