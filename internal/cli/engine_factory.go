package cli

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Runtime is an engine plus the resources it owns.
type Runtime struct {
	Engine   *arbor.Engine
	Log      ports.SessionLog
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	closers []io.Closer
}

// Close releases the session backend.
func (r *Runtime) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// createEngine initializes an Arbor engine with standard CLI conventions:
// pages from opts.Dir, sessions from Redis, disk or memory, and metrics
// on a private registry.
func createEngine(opts Options, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		Metrics:  observability.NewMetrics(),
	}
	if err := rt.Metrics.Register(rt.Registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	engineOpts := []arbor.Option{
		arbor.WithLogger(logger),
		arbor.WithLifecycleHooks(rt.Metrics.Hooks()),
	}
	if opts.Debug {
		engineOpts = append(engineOpts, arbor.WithLifecycleHooks(createDebugHooks(logger)))
	}

	switch {
	case opts.RedisAddr != "":
		log := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, redis.WithTTL(opts.SessionTTL))
		rt.Log = log
		rt.closers = append(rt.closers, log)
		engineOpts = append(engineOpts,
			arbor.WithLocker(redis.NewLocker(log.Client(), redis.DefaultPrefix)))
	case opts.SessionDir != "":
		rt.Log = file.New(opts.SessionDir)
	default:
		rt.Log = memory.NewLog()
	}
	mws, err := sessionMiddleware(opts)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Log = middleware.Chain(rt.Log, mws...)
	engineOpts = append(engineOpts, arbor.WithSessionLog(rt.Log))

	engine, err := arbor.New(opts.Dir, engineOpts...)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	rt.Engine = engine
	return rt, nil
}

// sessionMiddleware redacts before it encrypts.
func sessionMiddleware(opts Options) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(opts.Redact) > 0 {
		mw, err := middleware.NewPIIMiddleware(opts.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if opts.EncryptionKey != "" {
		config := middleware.EncryptionConfig{}
		key, err := hex.DecodeString(opts.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		config.ActiveKey = key
		for _, k := range opts.FallbackKeys {
			fallback, err := hex.DecodeString(k)
			if err != nil {
				return nil, fmt.Errorf("invalid fallback key: %w", err)
			}
			config.FallbackKeys = append(config.FallbackKeys, fallback)
		}
		mw, err := middleware.NewEncryptionMiddleware(config)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

// NewRuntime creates the logger and engine described by opts.
func NewRuntime(opts Options) (*Runtime, error) {
	logger, err := createLogger(opts)
	if err != nil {
		return nil, err
	}
	return createEngine(opts, logger)
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnInitialize: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("Node initialized", "path", e.Path, "kind", e.Kind)
		},
		OnPageRender: func(ctx context.Context, e *domain.RenderEvent) {
			logger.Debug("Page rendered", "requested", e.Requested, "page", e.Page,
				"restarts", e.Restarts, "duration", e.Duration, "err", e.Err)
		},
		OnReport: func(ctx context.Context, e *domain.ReportEvent) {
			logger.Debug("Feedback reported", "seq", e.Seq, "level", e.Level, "path", e.Path)
		},
		OnFailure: func(ctx context.Context, e *domain.FailureEvent) {
			logger.Debug("Failure dispatched", "path", e.Path, "behaviors", e.Behaviors,
				"redirected", e.Redirected, "err", e.Err)
		},
	}
}
