package ai

import (
	"fmt"
	"strings"
)

func profileSection(p Profile) string {
	return fmt.Sprintf(`User Information:
Name: %s
Age: %d
Weight: %d %s
Height: %d %s
Blood Group: %s

Fitness Goal: %s
Medical Condition: %s`,
		p.Name, p.Age, p.Weight, p.WeightUnit, p.Height, p.HeightUnit, p.BloodGroup, p.FitnessGoal,
		p.MedicalCondition)
}

func workoutPlanPrompt(p Profile, preference string) string {
	return fmt.Sprintf(`Create a personalized workout plan.

%s
Workout Preference: %s

Instructions:
- Create a 3 to 5 day workout plan
- Include exercise name, sets, and reps
- Keep it beginner friendly and safe
- Add warm-up and cool-down advice
- Simple, clean text format
`, profileSection(p), preference)
}

func dietPlanPrompt(p Profile, preference string) string {
	return fmt.Sprintf(`Create a personalized diet plan.

%s
Diet Preference: %s

Instructions:
- Create a 7-day diet plan
- Include breakfast, lunch, dinner, and snacks
- Mention portion sizes
- Add hydration tips
- Keep it healthy, realistic, and beginner friendly
- Simple, clean text format
`, profileSection(p), preference)
}

func workoutTipsPrompt(plan string) string {
	var b strings.Builder
	b.WriteString(`You are an AI fitness coach.

Generate workout tips in JSON ONLY.

Rules:
- Exactly 3 tips for warmup
- Exactly 3 tips for workout
- Exactly 3 tips for recovery
- Each tip must be a short sentence
- Use simple language
- No emojis
- No markdown
- No headings
- No extra text

Output format:
{
  "warmup": ["...", "...", "..."],
  "workout": ["...", "...", "..."],
  "recovery": ["...", "...", "..."]
}

Workout plan:
`)
	b.WriteString(plan)
	b.WriteString("\n")
	return b.String()
}
