package ai

import "time"

// Profile is the personal data a plan is tailored to.
type Profile struct {
	Name             string `json:"name"`
	Age              int    `json:"age"`
	Weight           int    `json:"weight"`
	WeightUnit       string `json:"weight_unit"`
	Height           int    `json:"height"`
	HeightUnit       string `json:"height_unit"`
	BloodGroup       string `json:"blood_group"`
	FitnessGoal      string `json:"fitness_goal"`
	MedicalCondition string `json:"medical_condition"`
}

// Tips are short coaching tips for a workout plan, at most three per bucket.
type Tips struct {
	Warmup    []string  `json:"warmup"`
	Workout   []string  `json:"workout"`
	Recovery  []string  `json:"recovery"`
	CreatedAt time.Time `json:"created_at"`
}
