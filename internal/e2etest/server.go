package e2etest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"testing"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/myrjola/aitrainer/internal/logging"
)

const (
	// LogAddrKey is the attribute the API logs its listening address under.
	LogAddrKey = "addr"
	// LogDsnKey is the attribute the database logs its writer DSN under.
	LogDsnKey = "sqlDsn"
)

// RunFunc has the signature of the API's run function.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

// Env is the environment handed to the API under test.
type Env map[string]string

// TestEnv returns an environment with an in-memory database, a random port, a fixed JWT secret and the cheapest
// bcrypt cost. AI and mail stay unconfigured.
func TestEnv() Env {
	return Env{
		"AITRAINER_ADDR":        "localhost:0",
		"AITRAINER_SQLITE_URL":  ":memory:",
		"AITRAINER_JWT_SECRET":  "e2e-test-secret",
		"AITRAINER_BCRYPT_COST": "4",
	}
}

// WithOpenAI points the AI client at baseURL, typically an httptest server imitating the chat completions API.
func (e Env) WithOpenAI(baseURL string) Env {
	out := maps.Clone(e)
	out["AITRAINER_OPENAI_API_KEY"] = "e2e-test-key"
	out["AITRAINER_OPENAI_BASE_URL"] = baseURL
	return out
}

// Lookup has the signature of [os.LookupEnv].
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

// bootAttrs collects the attributes the API logs while starting up.
type bootAttrs struct {
	addr chan string
	dsn  chan string
}

func newBootAttrs() *bootAttrs {
	return &bootAttrs{addr: make(chan string, 1), dsn: make(chan string, 1)}
}

func (b *bootAttrs) replaceAttr(_ []string, a slog.Attr) slog.Attr {
	var ch chan string
	switch a.Key {
	case LogAddrKey:
		ch = b.addr
	case LogDsnKey:
		ch = b.dsn
	default:
		return a
	}
	select {
	case ch <- a.Value.String():
	default:
	}
	return a
}

// wait blocks until both the address and the DSN have been logged.
func (b *bootAttrs) wait(ctx context.Context) (string, string, error) {
	var addr, dsn string
	for addr == "" || dsn == "" {
		select {
		case <-ctx.Done():
			return "", "", fmt.Errorf("api did not start: %w", context.Cause(ctx))
		case addr = <-b.addr:
		case dsn = <-b.dsn:
		}
	}
	return addr, dsn, nil
}

// Server is a running API together with a client and direct access to its database.
type Server struct {
	url    string
	client *Client
	db     *sql.DB
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// StartServer runs the API in the background with env and returns once /api/healthy answers. The server is shut
// down when the test ends. Server logs go to logSink, usually a testhelpers.NewWriter.
func StartServer(t *testing.T, logSink io.Writer, env Env, run RunFunc) (*Server, error) {
	ctx, cancel := context.WithCancelCause(t.Context())
	boot := newBootAttrs()
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: boot.replaceAttr,
	})))

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := run(ctx, logger, env.Lookup); err != nil {
			cancel(err)
		}
	}()
	stop := func() {
		cancel(nil)
		<-done
	}

	addr, dsn, err := boot.wait(ctx)
	if err != nil {
		stop()
		return nil, err
	}
	serverURL := "http://" + addr
	client, err := NewClient(serverURL)
	if err != nil {
		stop()
		return nil, fmt.Errorf("new client: %w", err)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		stop()
		return nil, fmt.Errorf("wait for ready: %w", err)
	}
	// The shared cache DSN of the in-memory database lets tests inspect the rows the API wrote.
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		stop()
		return nil, fmt.Errorf("open database: %w", err)
	}

	server := &Server{url: serverURL, client: client, db: db, cancel: cancel, done: done}
	t.Cleanup(server.Shutdown)
	return server, nil
}

// Client returns the client created at startup. Tests needing a second user create their own with [NewClient].
func (s *Server) Client() *Client {
	return s.client
}

func (s *Server) URL() string {
	return s.url
}

// CountRows returns the result of a SELECT COUNT(*) query against the API's database.
func (s *Server) CountRows(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}

// Shutdown closes the database handle, stops the API and waits for run to return.
func (s *Server) Shutdown() {
	_ = s.db.Close()
	s.cancel(nil)
	<-s.done
}
