// Package engine wires the question engine's components together behind a
// single facade used by the CLI and the HTTP server.
package engine

import (
	"context"
	"time"

	"github.com/examforge/question-engine/internal/api"
	"github.com/examforge/question-engine/internal/cache"
	"github.com/examforge/question-engine/internal/config"
	"github.com/examforge/question-engine/internal/domain"
	"github.com/examforge/question-engine/internal/export"
	"github.com/examforge/question-engine/internal/gateway"
	"github.com/examforge/question-engine/internal/observability"
	"github.com/examforge/question-engine/internal/pipeline"
	"github.com/examforge/question-engine/internal/render"
	"github.com/examforge/question-engine/internal/store"
	"github.com/examforge/question-engine/internal/translate"
)

// Engine holds the wired pipeline and its collaborators.
type Engine struct {
	cfg *config.Config

	Logger       *observability.Logger
	Orchestrator *pipeline.Orchestrator
	Store        *store.Store

	renderer *render.Renderer
	memo     cache.Client
	server   *api.Server
}

// New builds a fully wired engine from configuration.
func New(cfg *config.Config) (*Engine, error) {
	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "question-engine",
	})

	gw, err := gateway.NewClient(gateway.ClientConfig{
		APIKey:         cfg.Gateway.APIKey,
		Model:          cfg.Gateway.Model,
		BaseURL:        cfg.Gateway.BaseURL,
		RequestTimeout: cfg.Gateway.RequestTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	memo, err := newMemoCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		memo.Close()
		return nil, err
	}

	renderer := render.NewRenderer(logger, cfg.Pipeline.BatchSize)
	translator := translate.NewService(gw, memo, cfg.Cache.TTL, logger)
	exporter := export.NewExporter(cfg.Export.OutputDir, cfg.Export.OutputFormats, logger)

	var mirror cache.Client
	if cfg.Cache.Driver == "redis" {
		mirror = memo
	}
	checkpoints := pipeline.NewCheckpointer(cfg.Pipeline.CacheDirectory, mirror, logger)

	orchestrator := pipeline.NewOrchestrator(pipeline.Options{
		Pipeline:    cfg.Pipeline,
		Translation: cfg.Translation,
		Renderer:    renderer,
		Gateway:     gw,
		Translator:  translator,
		Exporter:    exporter,
		Store:       st,
		Checkpoints: checkpoints,
		Logger:      logger,
	})

	e := &Engine{
		cfg:          cfg,
		Logger:       logger,
		Orchestrator: orchestrator,
		Store:        st,
		renderer:     renderer,
		memo:         memo,
	}
	e.server = api.NewServer(cfg.Server, orchestrator, st, logger)

	return e, nil
}

func newMemoCache(cfg config.CacheConfig) (cache.Client, error) {
	if cfg.Driver == "redis" {
		return cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
	}
	return cache.NewMemoryClient(cfg.MaxEntries), nil
}

// Process runs one PDF through the pipeline and returns the terminal job.
func (e *Engine) Process(ctx context.Context, pdfPath string) (domain.ProcessingJob, error) {
	return e.Orchestrator.Process(ctx, pdfPath)
}

// Serve runs the HTTP API until the context is cancelled.
func (e *Engine) Serve(ctx context.Context) error {
	return e.server.Start(ctx)
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	var firstErr error
	if err := e.renderer.Cleanup(); err != nil {
		firstErr = err
	}
	if err := e.memo.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// WaitForTerminal polls a job until it reaches a terminal state, for
// callers that started it asynchronously.
func (e *Engine) WaitForTerminal(ctx context.Context, jobID string, poll time.Duration) (domain.ProcessingJob, error) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		if job, ok := e.Orchestrator.Job(jobID); ok && job.Status.IsTerminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return domain.ProcessingJob{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
