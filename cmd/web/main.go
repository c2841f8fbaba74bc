package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/myrjola/aitrainer/internal/ai"
	"github.com/myrjola/aitrainer/internal/auth"
	"github.com/myrjola/aitrainer/internal/diet"
	"github.com/myrjola/aitrainer/internal/envstruct"
	"github.com/myrjola/aitrainer/internal/errors"
	"github.com/myrjola/aitrainer/internal/flightrecorder"
	"github.com/myrjola/aitrainer/internal/logging"
	"github.com/myrjola/aitrainer/internal/mail"
	"github.com/myrjola/aitrainer/internal/metrics"
	"github.com/myrjola/aitrainer/internal/sqlite"
	"github.com/myrjola/aitrainer/internal/user"
	"github.com/myrjola/aitrainer/internal/workout"
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	tokens         *auth.TokenIssuer
	userService    *user.Service
	workoutService *workout.Service
	dietService    *diet.Service
	mailer         mail.Mailer
	contactInbox   string
	metrics        *metrics.Manager
	recorder       *flightrecorder.Recorder
	allowedOrigins []string
	aiTimeout      time.Duration
}

const defaultAllowedOrigins = "http://localhost:5173,http://localhost:5174,http://localhost:5175," +
	"http://localhost:5176,http://localhost:5177,http://localhost:5178,http://localhost:5179," +
	"http://127.0.0.1:5173,http://127.0.0.1:5174,http://127.0.0.1:5175,http://127.0.0.1:5176," +
	"http://127.0.0.1:5177,http://127.0.0.1:5178,http://127.0.0.1:5179"

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"AITRAINER_ADDR" envDefault:"localhost:8000"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"AITRAINER_SQLITE_URL" envDefault:"./aitrainer.sqlite3"`
	// JWTSecret signs the access tokens. There is deliberately no default.
	JWTSecret string        `env:"AITRAINER_JWT_SECRET"`
	TokenTTL  time.Duration `env:"AITRAINER_TOKEN_TTL" envDefault:"30m"`
	// OpenAIAPIKey enables the AI features. Without it plans contain a diagnostic message instead.
	OpenAIAPIKey  string `env:"AITRAINER_OPENAI_API_KEY" envDefault:""`
	OpenAIModel   string `env:"AITRAINER_OPENAI_MODEL" envDefault:""`
	OpenAIBaseURL string `env:"AITRAINER_OPENAI_BASE_URL" envDefault:""`
	// AITimeout is the request timeout of the routes that call the LLM.
	AITimeout time.Duration `env:"AITRAINER_AI_TIMEOUT" envDefault:"30s"`
	// AllowedOrigins is a comma separated list of origins allowed to make cross-origin requests.
	AllowedOrigins string `env:"AITRAINER_ALLOWED_ORIGINS" envDefault:""`
	// AWSRegion and SESSender enable sending contact messages with Amazon SES. Otherwise they are only logged.
	AWSRegion    string `env:"AITRAINER_AWS_REGION" envDefault:""`
	SESSender    string `env:"AITRAINER_SES_SENDER" envDefault:""`
	ContactInbox string `env:"AITRAINER_CONTACT_INBOX" envDefault:""`
	// TracesDirectory enables the flight recorder, which dumps execution traces of slow requests there.
	TracesDirectory string `env:"AITRAINER_TRACES_DIRECTORY" envDefault:""`
	BcryptCost      int    `env:"AITRAINER_BCRYPT_COST" envDefault:"10"`
}

func splitOrigins(s string) []string {
	var origins []string
	for origin := range strings.SplitSeq(s, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	if cfg.AllowedOrigins == "" {
		cfg.AllowedOrigins = defaultAllowedOrigins
	}

	var tokens *auth.TokenIssuer
	if tokens, err = auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL); err != nil {
		return errors.Wrap(err, "new token issuer")
	}

	var recorder *flightrecorder.Recorder
	if cfg.TracesDirectory != "" {
		if recorder, err = flightrecorder.New(flightrecorder.Config{ //nolint:exhaustruct // defaults are fine.
			Logger:    logger,
			Directory: cfg.TracesDirectory,
		}); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(context.WithoutCancel(ctx))
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	var mailer mail.Mailer = mail.NewLogMailer(logger)
	if cfg.AWSRegion != "" && cfg.SESSender != "" {
		if mailer, err = mail.NewSESMailer(ctx, cfg.AWSRegion, cfg.SESSender, logger); err != nil {
			return errors.Wrap(err, "new SES mailer", slog.String("region", cfg.AWSRegion))
		}
	}
	contactInbox := cfg.ContactInbox
	if contactInbox == "" {
		contactInbox = cfg.SESSender
	}

	m := metrics.NewManager()
	aiClient := ai.NewOpenAIClient(ai.Config{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIModel,
		BaseURL:    cfg.OpenAIBaseURL,
		MaxRetries: 1,
	}, logger, m, recorder)
	if cfg.OpenAIAPIKey == "" {
		logger.LogAttrs(ctx, slog.LevelWarn, "OpenAI API key not set, AI features are disabled")
	}

	app := application{
		logger:         logger,
		sessionManager: initializeSessionManager(db),
		tokens:         tokens,
		userService:    user.NewService(db, auth.NewPasswordHasher(cfg.BcryptCost), logger),
		workoutService: workout.NewService(db, aiClient, m, logger),
		dietService:    diet.NewService(db, aiClient, logger),
		mailer:         mailer,
		contactInbox:   contactInbox,
		metrics:        m,
		recorder:       recorder,
		allowedOrigins: splitOrigins(cfg.AllowedOrigins),
		aiTimeout:      cfg.AITimeout,
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr, app.routes()); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func initializeSessionManager(dbs *sqlite.Database) *scs.SessionManager {
	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite, 24*time.Hour) //nolint:mnd // day
	sessionManager.Lifetime = 12 * time.Hour                                                //nolint:mnd // half a day
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.Secure = true
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteStrictMode
	return sessionManager
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
