package ai_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/myrjola/aitrainer/internal/ai"
	"github.com/myrjola/aitrainer/internal/metrics"
	"github.com/myrjola/aitrainer/internal/testhelpers"
)

// fakeOpenAI answers chat completion requests with a fixed status and content and remembers the requests.
type fakeOpenAI struct {
	mu       sync.Mutex
	status   int
	content  string
	requests []map[string]any
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req map[string]any
	_ = json.Unmarshal(body, &req)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.status != http.StatusOK {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error","code":"boom"}}`))
		return
	}
	resp := map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": f.content},
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func newClient(t *testing.T, fake *fakeOpenAI, apiKey string) (*ai.OpenAIClient, *metrics.Manager) {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	m := metrics.NewTestManager()
	client := ai.NewOpenAIClient(ai.Config{
		APIKey:     apiKey,
		BaseURL:    server.URL,
		MaxRetries: 0,
	}, testhelpers.NewLogger(testhelpers.NewWriter(t)), m, nil)
	return client, m
}

var profile = ai.Profile{
	Name:             "Ada",
	Age:              36,
	Weight:           60,
	WeightUnit:       "kg",
	Height:           170,
	HeightUnit:       "cm",
	BloodGroup:       "A+",
	FitnessGoal:      "strength",
	MedicalCondition: "none",
}

func TestOpenAIClient_GenerateWorkoutPlan(t *testing.T) {
	t.Parallel()
	fake := &fakeOpenAI{status: http.StatusOK, content: "  Squat 3x10\nBench 3x8\n"}
	client, m := newClient(t, fake, "test-key")

	plan := client.GenerateWorkoutPlan(t.Context(), profile, "gym")
	if plan != "Squat 3x10\nBench 3x8" {
		t.Errorf("plan = %q", plan)
	}
	if len(fake.requests) != 1 {
		t.Fatalf("got %d requests, want 1", len(fake.requests))
	}
	req := fake.requests[0]
	if req["model"] != ai.DefaultModel || req["temperature"] != 0.7 {
		t.Errorf("unexpected model or temperature in %v", req)
	}
	messages, _ := req["messages"].([]any)
	first, _ := messages[0].(map[string]any)
	content, _ := first["content"].(string)
	for _, want := range []string{"Weight: 60 kg", "Workout Preference: gym", "3 to 5 day workout plan"} {
		if !strings.Contains(content, want) {
			t.Errorf("prompt does not contain %q:\n%s", want, content)
		}
	}
	if got := testutil.ToFloat64(m.CounterAICalls.WithLabelValues("workout_plan", metrics.OutcomeOK)); got != 1 {
		t.Errorf("ok calls = %v, want 1", got)
	}
}

func TestOpenAIClient_planFailuresBecomeDiagnostics(t *testing.T) {
	t.Parallel()
	fake := &fakeOpenAI{status: http.StatusInternalServerError}
	client, m := newClient(t, fake, "test-key")

	workout := client.GenerateWorkoutPlan(t.Context(), profile, "gym")
	if !strings.HasPrefix(workout, "AI workout generation failed. Reason: ") {
		t.Errorf("workout plan = %q", workout)
	}
	diet := client.GenerateDietPlan(t.Context(), profile, "vegan")
	if !strings.HasPrefix(diet, "AI diet generation failed. Reason: ") {
		t.Errorf("diet plan = %q", diet)
	}
	if got := testutil.ToFloat64(m.CounterAICalls.WithLabelValues("diet_plan", metrics.OutcomeFallback)); got != 1 {
		t.Errorf("diet fallbacks = %v, want 1", got)
	}
}

func TestOpenAIClient_notConfigured(t *testing.T) {
	t.Parallel()
	fake := &fakeOpenAI{status: http.StatusOK, content: "unused"}
	client, _ := newClient(t, fake, "")

	plan := client.GenerateWorkoutPlan(t.Context(), profile, "gym")
	if plan != "AI workout generation failed. Reason: AI client not configured" {
		t.Errorf("plan = %q", plan)
	}
	if _, err := client.GenerateWorkoutTips(t.Context(), "plan"); !errors.Is(err, ai.ErrNotConfigured) {
		t.Errorf("GenerateWorkoutTips() error = %v, want %v", err, ai.ErrNotConfigured)
	}
	if len(fake.requests) != 0 {
		t.Errorf("unconfigured client made %d requests", len(fake.requests))
	}
}

func TestOpenAIClient_GenerateWorkoutTips(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
		want    ai.Tips
		wantErr error
	}{
		{
			name:    "clipped to three per bucket",
			content: `{"warmup":["a","b","c","d"],"workout":["e"],"recovery":["f","g","h"]}`,
			want: ai.Tips{
				Warmup:   []string{"a", "b", "c"},
				Workout:  []string{"e"},
				Recovery: []string{"f", "g", "h"},
			},
		},
		{
			name:    "missing buckets are empty",
			content: `{"workout":["e"]}`,
			want:    ai.Tips{Warmup: []string{}, Workout: []string{"e"}, Recovery: []string{}},
		},
		{
			name:    "not json",
			content: "Here are your tips: stretch!",
			wantErr: ai.ErrUnparsable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := &fakeOpenAI{status: http.StatusOK, content: tt.content}
			client, _ := newClient(t, fake, "test-key")

			got, err := client.GenerateWorkoutTips(t.Context(), "Squat 3x10")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GenerateWorkoutTips() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.IgnoreFields(ai.Tips{}, "CreatedAt")); diff != "" {
				t.Errorf("tips mismatch (-want +got):\n%s", diff)
			}
			if got.CreatedAt.IsZero() {
				t.Error("CreatedAt not set")
			}
			req := fake.requests[0]
			format, _ := req["response_format"].(map[string]any)
			if format["type"] != "json_object" || req["temperature"] != 0.6 {
				t.Errorf("unexpected tips request %v", req)
			}
		})
	}
}
