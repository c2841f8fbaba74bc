package ai

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/myrjola/aitrainer/internal/errors"
)

// Length limits in characters, matching the CHECK constraints of the workouts and diets tables.
const (
	MaxNameLength       = 100
	MaxBloodGroupLength = 5
	MaxTextLength       = 50
)

// CheckLength returns an error when value is longer than limit characters.
func CheckLength(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return fmt.Errorf("%s must be at most %d characters", field, limit)
	}
	return nil
}

// Validate returns a joined error describing every problem with p, or nil.
func (p Profile) Validate() error {
	var errs []error
	for _, f := range []struct {
		name, value string
		limit       int
	}{
		{"name", p.Name, MaxNameLength},
		{"blood_group", p.BloodGroup, MaxBloodGroupLength},
		{"fitness_goal", p.FitnessGoal, MaxTextLength},
		{"medical_condition", p.MedicalCondition, MaxTextLength},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, errors.New(f.name+" is required"))
			continue
		}
		if err := CheckLength(f.name, f.value, f.limit); err != nil {
			errs = append(errs, err)
		}
	}
	if p.Age <= 0 || p.Weight <= 0 || p.Height <= 0 {
		errs = append(errs, errors.New("age, weight and height must be positive"))
	}
	if !slices.Contains([]string{"kg", "lbs"}, p.WeightUnit) {
		errs = append(errs, errors.New("weight_unit must be kg or lbs"))
	}
	if !slices.Contains([]string{"cm", "inches"}, p.HeightUnit) {
		errs = append(errs, errors.New("height_unit must be cm or inches"))
	}
	return errors.Join(errs...)
}
