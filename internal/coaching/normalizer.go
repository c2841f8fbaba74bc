package coaching

import "strings"

// Normalize splits a free-text workout plan into exercise records, one per non-blank line.
//
// Lines are trimmed but otherwise kept verbatim. Embedded set, rep or rest tokens are not parsed.
func Normalize(plan string) []ExerciseRecord {
	records := []ExerciseRecord{}
	if plan == "" {
		return records
	}

	for line := range strings.SplitSeq(plan, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		records = append(records, ExerciseRecord{
			Name: line,
			Sets: nil,
			Reps: nil,
			Rest: nil,
		})
	}

	return records
}
