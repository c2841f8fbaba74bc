package ai_test

import (
	"strings"
	"testing"

	"github.com/myrjola/aitrainer/internal/ai"
)

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *ai.Profile)
		wantErr string
	}{
		{"valid", func(*ai.Profile) {}, ""},
		{"imperial units", func(p *ai.Profile) { p.WeightUnit, p.HeightUnit = "lbs", "inches" }, ""},
		{"unknown weight unit", func(p *ai.Profile) { p.WeightUnit = "stone" }, "weight_unit must be kg or lbs"},
		{"unknown height unit", func(p *ai.Profile) { p.HeightUnit = "ft" }, "height_unit must be cm or inches"},
		{"missing name", func(p *ai.Profile) { p.Name = "  " }, "name is required"},
		{"zero age", func(p *ai.Profile) { p.Age = 0 }, "must be positive"},
		{"fitness goal at limit", func(p *ai.Profile) { p.FitnessGoal = strings.Repeat("g", 50) }, ""},
		{"long fitness goal", func(p *ai.Profile) { p.FitnessGoal = strings.Repeat("g", 51) },
			"fitness_goal must be at most 50 characters"},
		{"long medical condition", func(p *ai.Profile) { p.MedicalCondition = strings.Repeat("m", 60) },
			"medical_condition must be at most 50 characters"},
		{"long name", func(p *ai.Profile) { p.Name = strings.Repeat("n", 101) }, "name must be at most 100 characters"},
		{"long blood group", func(p *ai.Profile) { p.BloodGroup = "AB+ positive" },
			"blood_group must be at most 5 characters"},
		{"limits count characters", func(p *ai.Profile) { p.FitnessGoal = strings.Repeat("ä", 50) }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := profile
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckLength(t *testing.T) {
	if err := ai.CheckLength("workout_preference", strings.Repeat("p", ai.MaxTextLength), ai.MaxTextLength); err != nil {
		t.Errorf("CheckLength() at limit error = %v, want nil", err)
	}
	err := ai.CheckLength("workout_preference", strings.Repeat("p", ai.MaxTextLength+1), ai.MaxTextLength)
	if err == nil || !strings.Contains(err.Error(), "workout_preference") {
		t.Errorf("CheckLength() over limit error = %v, want it to name the field", err)
	}
}
