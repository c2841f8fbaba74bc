package diet_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/myrjola/aitrainer/internal/ai"
	"github.com/myrjola/aitrainer/internal/contexthelpers"
	"github.com/myrjola/aitrainer/internal/diet"
	"github.com/myrjola/aitrainer/internal/sqlite"
	"github.com/myrjola/aitrainer/internal/testhelpers"
)

type fakeAI struct {
	ai.Client

	preference string
}

func (f *fakeAI) GenerateDietPlan(_ context.Context, _ ai.Profile, preference string) string {
	f.preference = preference
	return "**Monday**: oats"
}

func TestService(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	db, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	res, err := db.ReadWrite.ExecContext(ctx, "INSERT INTO users (email, password_hash) VALUES ('a@example.com', 'x')")
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	userID, _ := res.LastInsertId()
	ctx = contexthelpers.WithAuthenticatedUser(ctx, userID, "a@example.com", false)

	fake := &fakeAI{}
	svc := diet.NewService(db, fake, logger)
	req := diet.Request{
		Profile: ai.Profile{
			Name: "Ada", Age: 36, Weight: 130, WeightUnit: "lbs", Height: 67, HeightUnit: "inches",
			BloodGroup: "0-", FitnessGoal: "weight loss", MedicalCondition: "none",
		},
		DietPreference: "vegetarian",
	}

	if _, err = svc.Generate(ctx, diet.Request{Profile: req.Profile}); !errors.Is(err, diet.ErrInvalidInput) {
		t.Errorf("Generate without preference error = %v, want %v", err, diet.ErrInvalidInput)
	}
	long := req
	long.DietPreference = strings.Repeat("v", 51)
	if _, err = svc.Generate(ctx, long); !errors.Is(err, diet.ErrInvalidInput) {
		t.Errorf("Generate with long preference error = %v, want %v", err, diet.ErrInvalidInput)
	}
	long = req
	long.MedicalCondition = strings.Repeat("m", 51)
	if _, err = svc.Generate(ctx, long); !errors.Is(err, diet.ErrInvalidInput) {
		t.Errorf("Generate with long medical condition error = %v, want %v", err, diet.ErrInvalidInput)
	}
	if fake.preference != "" {
		t.Errorf("AI called for invalid input with preference %q", fake.preference)
	}

	created, err := svc.Generate(ctx, req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if fake.preference != "vegetarian" {
		t.Errorf("preference passed to AI = %q", fake.preference)
	}
	if created.UserID == nil || *created.UserID != userID {
		t.Errorf("UserID = %v, want %d", created.UserID, userID)
	}
	if !strings.Contains(created.PlanHTML, "<strong>Monday</strong>") {
		t.Errorf("PlanHTML = %q", created.PlanHTML)
	}

	diets, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(diets) != 1 || diets[0].ID != created.ID || diets[0].DietPreference != "vegetarian" {
		t.Errorf("unexpected diets %+v", diets)
	}

	// Deleting the owner keeps the diet without a user.
	if _, err = db.ReadWrite.ExecContext(ctx, "DELETE FROM users WHERE id = ?", userID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	var orphans int
	if err = db.ReadOnly.QueryRowContext(ctx, "SELECT COUNT(*) FROM diets WHERE user_id IS NULL").
		Scan(&orphans); err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 1 {
		t.Errorf("orphaned diets = %d, want 1", orphans)
	}
}
