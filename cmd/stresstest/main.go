package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/myrjola/aitrainer/internal/e2etest"
	"github.com/myrjola/aitrainer/internal/logging"
	"github.com/myrjola/aitrainer/internal/testhelpers"
	"golang.org/x/sync/errgroup"
)

const (
	userRegistrationTimeout    = 30 * time.Second
	scenarioTimeout            = 30 * time.Second
	maxConcurrentRegistrations = 10
	maxConcurrentOperations    = 20
	successRateThreshold       = 95.0
	percentageMultiplier       = 100
)

// AuthenticatedUser holds a client with a valid access token.
type AuthenticatedUser struct {
	Client *e2etest.Client
	Email  string
}

// SetupUsers signs up and logs in numUsers throwaway accounts.
func SetupUsers(ctx context.Context, url string, numUsers int, logger *slog.Logger) ([]*AuthenticatedUser, error) {
	logger.LogAttrs(ctx, slog.LevelInfo, "Starting user registration", slog.Int("num_users", numUsers))

	users := make([]*AuthenticatedUser, numUsers)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRegistrations)
	for i := range numUsers {
		g.Go(func() error {
			userCtx, cancel := context.WithTimeout(ctx, userRegistrationTimeout)
			defer cancel()

			client, err := e2etest.NewClient(url)
			if err != nil {
				return fmt.Errorf("creating client for user %d: %w", i, err)
			}
			email := fmt.Sprintf("stresstest-%d-%s@example.com", i, strings.ToLower(rand.Text()))
			password := rand.Text()
			if err = client.Signup(userCtx, email, password); err != nil {
				return fmt.Errorf("signing up user %d: %w", i, err)
			}
			if err = client.Login(userCtx, email, password); err != nil {
				return fmt.Errorf("logging in user %d: %w", i, err)
			}
			users[i] = &AuthenticatedUser{Client: client, Email: email}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("registration failures: %w", err)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "All users registered successfully", slog.Int("total_users", len(users)))
	return users, nil
}

// ReadScenario walks the read-heavy endpoints that back the dashboard. It leaves the LLM alone on purpose so that
// the load test measures the service and not the model provider.
func ReadScenario(ctx context.Context, user *AuthenticatedUser) error {
	for _, path := range []string{
		"/me",
		"/workouts",
		"/workouts/memory",
		"/workouts/insights",
		"/workouts/insights/history",
		"/workout-history",
		"/diets",
	} {
		if err := user.Client.JSON(ctx, http.MethodGet, path, nil, nil); err != nil {
			return fmt.Errorf("GET %s: %w", path, err)
		}
	}
	return nil
}

// RunLoadTest runs rounds of [ReadScenario] for every user concurrently.
func RunLoadTest(ctx context.Context, users []*AuthenticatedUser, rounds int, logger *slog.Logger) error {
	total := len(users) * rounds
	logger.LogAttrs(ctx, slog.LevelInfo, "Starting load test",
		slog.Int("num_users", len(users)), slog.Int("rounds", rounds))

	var successCount, failureCount atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	for range rounds {
		for _, user := range users {
			g.Go(func() error {
				scenarioCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
				defer cancel()

				if err := ReadScenario(scenarioCtx, user); err != nil {
					failureCount.Add(1)
					// Individual failures are counted, not propagated, so that the other scenarios keep going.
					logger.LogAttrs(scenarioCtx, slog.LevelWarn, "Scenario failed",
						slog.String("email", user.Email), slog.Any("error", err))
					return nil
				}
				successCount.Add(1)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load test failed: %w", err)
	}

	successRate := float64(successCount.Load()) / float64(total) * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("failed", failureCount.Load()),
		slog.Float64("success_rate", successRate))

	if successRate < successRateThreshold {
		return fmt.Errorf("load test failed: success rate %.1f%% below threshold", successRate)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	numUsers := flag.Int("users", 10, "number of concurrent users") //nolint:mnd // default
	rounds := flag.Int("rounds", 5, "scenario rounds per user")     //nolint:mnd // default
	flag.Parse()
	if flag.NArg() != 1 {
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest [-users n] [-rounds n] <hostname>")
		os.Exit(1)
	}

	var (
		hostname = flag.Arg(0)
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	client, err := e2etest.NewClient(url)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", slog.Any("error", err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}

	users, err := SetupUsers(ctx, url, *numUsers, logger)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failed to setup users", slog.Any("error", err))
		os.Exit(1)
	}

	loadTestStart := time.Now()
	if err = RunLoadTest(ctx, users, *rounds, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed successfully 🙌",
		slog.Duration("total_duration", time.Since(start)),
		slog.Duration("load_test_duration", time.Since(loadTestStart)),
		slog.Int("users_tested", len(users)))
}
