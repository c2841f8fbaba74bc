// Package flightrecorder keeps a rolling execution trace in memory and writes it to disk when something slow happens,
// such as a request timing out or an LLM call dragging on.
package flightrecorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync/atomic"
	"time"

	"github.com/myrjola/aitrainer/internal/errors"
)

const (
	defaultMinAge   = 5 * time.Minute
	defaultMaxBytes = 64 << 20
	defaultCooldown = 30 * time.Minute
)

// Recorder wraps [trace.FlightRecorder]. A nil *Recorder is valid and captures nothing, which is what the server
// uses when no traces directory is configured.
type Recorder struct {
	logger      *slog.Logger
	recorder    *trace.FlightRecorder
	directory   string
	cooldown    time.Duration
	lastCapture atomic.Int64
}

type Config struct {
	Logger    *slog.Logger
	Directory string
	// MinAge and MaxBytes bound the in-memory trace window. Zero picks the defaults.
	MinAge   time.Duration
	MaxBytes uint64
	// Cooldown is the minimum time between two captures. Zero picks the default.
	Cooldown time.Duration
}

func New(cfg Config) (*Recorder, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.Directory == "" {
		return nil, errors.New("traces directory is required")
	}
	if err := os.MkdirAll(cfg.Directory, 0o700); err != nil {
		return nil, errors.Wrap(err, "create traces directory", slog.String("directory", cfg.Directory))
	}
	if cfg.MinAge == 0 {
		cfg.MinAge = defaultMinAge
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = defaultCooldown
	}
	return &Recorder{
		logger:      cfg.Logger,
		recorder:    trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: cfg.MinAge, MaxBytes: cfg.MaxBytes}),
		directory:   cfg.Directory,
		cooldown:    cfg.Cooldown,
		lastCapture: atomic.Int64{},
	}, nil
}

// Start begins recording. Only one flight recorder can be active per process.
func (r *Recorder) Start(ctx context.Context) error {
	if r == nil {
		return nil
	}
	if err := r.recorder.Start(); err != nil {
		return errors.Wrap(err, "start flight recorder")
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.String("directory", r.directory), slog.Duration("cooldown", r.cooldown))
	return nil
}

func (r *Recorder) Stop(ctx context.Context) {
	if r == nil {
		return
	}
	r.recorder.Stop()
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// Capture writes the current trace window to <directory>/<reason>-<timestamp>.trace unless another capture happened
// within the cooldown.
func (r *Recorder) Capture(ctx context.Context, reason string) {
	if r == nil || !r.recorder.Enabled() {
		return
	}
	now := time.Now()
	last := r.lastCapture.Load()
	if last != 0 && now.Sub(time.Unix(0, last)) < r.cooldown {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "trace capture in cooldown", slog.String("reason", reason))
		return
	}
	if !r.lastCapture.CompareAndSwap(last, now.UnixNano()) {
		return
	}

	path := filepath.Join(r.directory, fmt.Sprintf("%s-%s.trace", reason, now.UTC().Format("20060102-150405")))
	n, err := r.writeTrace(path)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "capture trace", errors.SlogError(err))
		return
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured trace",
		slog.String("reason", reason), slog.String("file", path), slog.Int64("bytes", n))
}

func (r *Recorder) writeTrace(path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, "create trace file", slog.String("file", path))
	}
	n, err := r.recorder.WriteTo(f)
	if err != nil {
		_ = f.Close()
		return 0, errors.Wrap(err, "write trace", slog.String("file", path))
	}
	return n, errors.Wrap(f.Close(), "close trace file", slog.String("file", path))
}
