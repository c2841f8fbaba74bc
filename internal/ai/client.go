// Package ai generates workout plans, diet plans and workout tips with an LLM chat completion API.
package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/myrjola/aitrainer/internal/errors"
	"github.com/myrjola/aitrainer/internal/flightrecorder"
	"github.com/myrjola/aitrainer/internal/metrics"
)

var (
	// ErrUnparsable is returned when the model's tips response is not the requested JSON object.
	ErrUnparsable = errors.NewSentinel("unparsable AI response")
	// ErrNotConfigured is returned by every call of a client created without an API key.
	ErrNotConfigured = errors.NewSentinel("AI client not configured")
	errEmptyResponse = errors.NewSentinel("empty AI response")
)

const (
	DefaultModel = string(openai.ChatModelGPT4oMini)

	planTemperature = 0.7
	tipsTemperature = 0.6
	tipsPerBucket   = 3

	// slowCallThreshold triggers a flight recorder capture.
	slowCallThreshold = 20 * time.Second

	kindWorkoutPlan = "workout_plan"
	kindDietPlan    = "diet_plan"
	kindWorkoutTips = "workout_tips"
)

// Client produces free-text plans and structured tips.
//
// Plan generation never fails: errors are turned into a diagnostic text that is stored as the plan.
type Client interface {
	GenerateWorkoutPlan(ctx context.Context, p Profile, preference string) string
	GenerateDietPlan(ctx context.Context, p Profile, preference string) string
	GenerateWorkoutTips(ctx context.Context, plan string) (Tips, error)
}

type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint, for example to point at a compatible proxy or a test server.
	BaseURL    string
	MaxRetries int
}

// OpenAIClient implements [Client] with the OpenAI chat completions API.
type OpenAIClient struct {
	client   openai.Client
	model    string
	enabled  bool
	logger   *slog.Logger
	metrics  *metrics.Manager
	recorder *flightrecorder.Recorder
	now      func() time.Time
}

// NewOpenAIClient creates a client. Without an API key the client is created anyway, but every call fails with
// [ErrNotConfigured] so that the rest of the service keeps working.
func NewOpenAIClient(
	cfg Config,
	logger *slog.Logger,
	m *metrics.Manager,
	recorder *flightrecorder.Recorder,
) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIClient{
		client:   openai.NewClient(opts...),
		model:    model,
		enabled:  cfg.APIKey != "",
		logger:   logger,
		metrics:  m,
		recorder: recorder,
		now:      time.Now,
	}
}

// complete sends prompt as a single user message and returns the trimmed content of the first choice.
func (c *OpenAIClient) complete(
	ctx context.Context,
	kind string,
	prompt string,
	temperature float64,
	jsonObject bool,
) (string, error) {
	if !c.enabled {
		c.metrics.CounterAICalls.WithLabelValues(kind, metrics.OutcomeError).Inc()
		return "", ErrNotConfigured
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(temperature),
	}
	if jsonObject {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params)
	elapsed := time.Since(start)
	c.metrics.HistAICallDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if elapsed > slowCallThreshold {
		c.recorder.Capture(ctx, "slow-"+strings.ReplaceAll(kind, "_", "-"))
	}
	if err != nil {
		c.metrics.CounterAICalls.WithLabelValues(kind, metrics.OutcomeError).Inc()
		return "", errors.Wrap(err, "chat completion", apiErrorAttrs(err)...)
	}
	if len(completion.Choices) == 0 {
		c.metrics.CounterAICalls.WithLabelValues(kind, metrics.OutcomeError).Inc()
		return "", errEmptyResponse
	}
	c.metrics.CounterAICalls.WithLabelValues(kind, metrics.OutcomeOK).Inc()
	c.logger.LogAttrs(ctx, slog.LevelDebug, "chat completion",
		slog.String("kind", kind),
		slog.String("model", c.model),
		slog.Duration("duration", elapsed),
		slog.Int64("prompt_tokens", completion.Usage.PromptTokens),
		slog.Int64("completion_tokens", completion.Usage.CompletionTokens))
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

func apiErrorAttrs(err error) []slog.Attr {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return nil
	}
	return []slog.Attr{
		slog.Int("status_code", apiErr.StatusCode),
		slog.String("code", apiErr.Code),
		slog.String("type", apiErr.Type),
	}
}

func (c *OpenAIClient) generatePlan(ctx context.Context, kind, prompt, failurePrefix string) string {
	plan, err := c.complete(ctx, kind, prompt, planTemperature, false)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "plan generation failed", slog.String("kind", kind),
			errors.SlogError(err))
		c.metrics.CounterAICalls.WithLabelValues(kind, metrics.OutcomeFallback).Inc()
		return failurePrefix + err.Error()
	}
	return plan
}

func (c *OpenAIClient) GenerateWorkoutPlan(ctx context.Context, p Profile, preference string) string {
	return c.generatePlan(ctx, kindWorkoutPlan, workoutPlanPrompt(p, preference),
		"AI workout generation failed. Reason: ")
}

func (c *OpenAIClient) GenerateDietPlan(ctx context.Context, p Profile, preference string) string {
	return c.generatePlan(ctx, kindDietPlan, dietPlanPrompt(p, preference),
		"AI diet generation failed. Reason: ")
}

// GenerateWorkoutTips asks for three warm-up, workout and recovery tips about plan.
func (c *OpenAIClient) GenerateWorkoutTips(ctx context.Context, plan string) (Tips, error) {
	content, err := c.complete(ctx, kindWorkoutTips, workoutTipsPrompt(plan), tipsTemperature, true)
	if err != nil {
		return Tips{}, err
	}
	tips, err := parseTips(content)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "unparsable tips", slog.String("content", content),
			errors.SlogError(err))
		return Tips{}, err
	}
	tips.CreatedAt = c.now().UTC()
	return tips, nil
}

func parseTips(content string) (Tips, error) {
	var raw struct {
		Warmup   []string `json:"warmup"`
		Workout  []string `json:"workout"`
		Recovery []string `json:"recovery"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Tips{}, errors.Join(ErrUnparsable, err)
	}
	return Tips{
		Warmup:   clip(raw.Warmup),
		Workout:  clip(raw.Workout),
		Recovery: clip(raw.Recovery),
	}, nil
}

func clip(tips []string) []string {
	if len(tips) > tipsPerBucket {
		tips = tips[:tipsPerBucket]
	}
	if tips == nil {
		return []string{}
	}
	return tips
}
