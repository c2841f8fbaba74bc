package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/trace"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/aitrainer/internal/contexthelpers"
	"github.com/myrjola/aitrainer/internal/errors"
	"github.com/myrjola/aitrainer/internal/logging"
	"github.com/myrjola/aitrainer/internal/user"
)

const (
	sessionEmailKey = "authenticated_email"
	timeoutDetail   = `{"detail":"Request timed out"}`
)

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
}

func newStatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	return &statusResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		headerWritten:  false,
	}
}

func (mw *statusResponseWriter) WriteHeader(statusCode int) {
	mw.ResponseWriter.WriteHeader(statusCode)

	if !mw.headerWritten {
		mw.statusCode = statusCode
		mw.headerWritten = true
	}
}

func (mw *statusResponseWriter) Write(b []byte) (int, error) {
	mw.headerWritten = true
	written, err := mw.ResponseWriter.Write(b)
	if err != nil {
		return written, fmt.Errorf("write response: %w", err)
	}
	return written, nil
}

func (mw *statusResponseWriter) Unwrap() http.ResponseWriter {
	return mw.ResponseWriter
}

// secureHeaders sets the headers for a JSON API that is never rendered as a document.
func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// cors lets the configured frontend origins call the API with credentials.
func (app *application) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || !slices.Contains(app.allowedOrigins, origin) {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			requested := r.Header.Get("Access-Control-Request-Headers")
			if requested == "" {
				requested = "Authorization, Content-Type"
			}
			h.Set("Access-Control-Allow-Headers", requested)
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// crossOriginProtection rejects cross-origin state changing requests from browsers unless they come from one of
// the allowed origins.
func (app *application) crossOriginProtection() func(http.Handler) http.Handler {
	protection := http.NewCrossOriginProtection()
	for _, origin := range app.allowedOrigins {
		if err := protection.AddTrustedOrigin(origin); err != nil {
			app.logger.Warn("ignoring malformed allowed origin", slog.String("origin", origin), errors.SlogError(err))
		}
	}
	protection.SetDenyHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.errorResponse(w, r, http.StatusForbidden, "Cross-origin request denied")
	}))
	return protection.Handler
}

// logAndTraceRequest names every request with a trace id, logs its completion and records it in the metrics.
func (app *application) logAndTraceRequest(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			proto  = r.Proto
			method = r.Method
			uri    = r.URL.RequestURI()
		)

		ctx := r.Context()
		traceID := uuid.NewString()
		ctx = logging.WithAttrs(
			ctx,
			slog.String("trace_id", traceID),
			slog.String("proto", proto),
			slog.String("method", method),
			slog.String("uri", uri),
		)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", traceID)

		start := time.Now()
		app.logger.LogAttrs(ctx, slog.LevelDebug, "received request")
		app.metrics.GaugeInFlight.Inc()
		defer app.metrics.GaugeInFlight.Dec()

		sw := newStatusResponseWriter(w)

		if !trace.IsEnabled() {
			next.ServeHTTP(sw, r)
		} else {
			taskName := fmt.Sprintf("HTTP %s", route)
			traceCtx, task := trace.NewTask(ctx, taskName)
			trace.Log(traceCtx, "request", fmt.Sprintf("method=%s path=%s proto=%s", method, r.URL.Path, proto))
			trace.Log(traceCtx, "trace_id", traceID)
			defer func() {
				trace.Log(traceCtx, "response", fmt.Sprintf("status=%d duration=%v", sw.statusCode, time.Since(start)))
				task.End()
			}()
			r = r.WithContext(traceCtx)
			next.ServeHTTP(sw, r)
		}

		duration := time.Since(start)
		app.metrics.CounterRequests.WithLabelValues(method, route, strconv.Itoa(sw.statusCode)).Inc()
		app.metrics.HistRequestDuration.WithLabelValues(route).Observe(duration.Seconds())

		level := slog.LevelInfo
		if sw.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		app.logger.LogAttrs(r.Context(), level, "request completed",
			slog.Int("status_code", sw.statusCode), slog.Duration("duration", duration))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if excp := recover(); excp != nil {
				if excp == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value, compared like net/http.
					panic(excp)
				}
				app.metrics.CounterPanics.Inc()
				w.Header().Set("Connection", "close")
				app.serverError(w, r, errors.DecoratePanic(excp))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// timeout cancels the request after d using http.TimeoutHandler. Durations longer than the server's write timeout
// extend the write deadline of the connection. A timed out request triggers a flight recorder capture.
func (app *application) timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerTimeout := d - (200 * time.Millisecond) //nolint:mnd // writing the response takes time.
			if d > defaultTimeout {
				rc := http.NewResponseController(w)
				if err := rc.SetWriteDeadline(time.Now().Add(d)); err != nil {
					app.serverError(w, r, fmt.Errorf("extend write deadline: %w", err))
					return
				}
			}

			var finished atomic.Bool
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r)
				finished.Store(true)
			})
			w.Header().Set("Content-Type", "application/json")
			http.TimeoutHandler(inner, handlerTimeout, timeoutDetail).ServeHTTP(w, r)
			if !finished.Load() {
				app.logger.LogAttrs(r.Context(), slog.LevelWarn, "request timed out",
					slog.Duration("timeout", handlerTimeout))
				app.recorder.Capture(r.Context(), "timeout")
			}
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// authenticate resolves the user from the bearer token, falling back to the session cookie, and stores it in the
// request context. A token that fails verification is rejected outright.
func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		email := ""
		fromToken := false
		if token, ok := bearerToken(r); ok {
			subject, err := app.tokens.Verify(token)
			if err != nil {
				app.logger.LogAttrs(ctx, slog.LevelDebug, "rejected token", errors.SlogError(err))
				app.unauthorized(w, r)
				return
			}
			email = subject
			fromToken = true
		} else {
			email = app.sessionManager.GetString(ctx, sessionEmailKey)
		}
		if email == "" {
			next.ServeHTTP(w, r)
			return
		}

		u, err := app.userService.GetByEmail(ctx, email)
		if errors.Is(err, user.ErrNotFound) {
			if fromToken {
				app.notFound(w, r, "User not found")
				return
			}
			// The account behind the session is gone.
			app.sessionManager.Remove(ctx, sessionEmailKey)
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			app.serverError(w, r, err)
			return
		}

		r = contexthelpers.AuthenticateContext(r, u.ID, u.Email, u.IsAdmin())
		r = r.WithContext(logging.WithAttrs(r.Context(), slog.Int64("user_id", u.ID)))
		next.ServeHTTP(w, r)
	})
}

func (app *application) unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	app.errorResponse(w, r, http.StatusUnauthorized, "Invalid authentication credentials")
}

// mustAuthenticate responds with 401 Unauthorized if the user is not authenticated.
func (app *application) mustAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !contexthelpers.IsAuthenticated(r.Context()) {
			app.unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
