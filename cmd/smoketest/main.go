package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/myrjola/aitrainer/internal/e2etest"
	"github.com/myrjola/aitrainer/internal/logging"
	"github.com/myrjola/aitrainer/internal/testhelpers"
)

// TestAuth signs up a throwaway account, logs in and reads the insights, which needs no LLM call.
func TestAuth(client *e2etest.Client) error {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()
	var err error

	email := fmt.Sprintf("smoketest-%s@example.com", strings.ToLower(rand.Text()))
	password := rand.Text()
	if err = client.Signup(ctx, email, password); err != nil {
		return fmt.Errorf("signup user: %w", err)
	}
	if err = client.Login(ctx, email, password); err != nil {
		return fmt.Errorf("login user: %w", err)
	}
	if err = client.JSON(ctx, http.MethodGet, "/workouts/insights", nil, nil); err != nil {
		return fmt.Errorf("get insights: %w", err)
	}
	if err = client.JSON(ctx, http.MethodDelete, "/me", nil, nil); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		client   *e2etest.Client
		err      error
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", slog.Any("error", err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}
	if err = TestAuth(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing auth", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
	os.Exit(0)
}
