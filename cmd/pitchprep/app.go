package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/pitchprep/internal/config"
	"github.com/jonathan/pitchprep/internal/db"
	"github.com/jonathan/pitchprep/internal/fetch"
	"github.com/jonathan/pitchprep/internal/llm"
	"github.com/jonathan/pitchprep/internal/logger"
	"github.com/jonathan/pitchprep/internal/pipeline"
	"github.com/jonathan/pitchprep/internal/pitch"
	"github.com/jonathan/pitchprep/internal/research"
	"github.com/jonathan/pitchprep/internal/store"
)

// app holds the loaded configuration and the resources opened by a command.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	closers []func()
}

// newApp loads configuration and builds the logger.
func newApp() (*app, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	a := &app{cfg: cfg, log: log}
	a.onClose(func() { _ = log.Sync() })
	return a, nil
}

func (a *app) onClose(f func()) {
	a.closers = append(a.closers, f)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// database connects to Postgres and applies the schema when configured to.
func (a *app) database(ctx context.Context) (*db.DB, error) {
	if a.cfg.Database.URL == "" {
		return nil, fmt.Errorf("config error: 'database.url' is required")
	}
	database, err := db.Connect(ctx, a.cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	a.onClose(database.Close)
	if a.cfg.Database.Migrate {
		if err := database.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	return database, nil
}

// contextStore picks the employer context store: Postgres when a database is
// available, memory otherwise, fronted by Redis when redis.url is set.
func (a *app) contextStore(ctx context.Context, database *db.DB) (store.EmployerContextStore, error) {
	var durable store.EmployerContextStore
	if database != nil {
		durable = database.ContextStore()
	} else {
		durable = store.NewMemoryContextStore()
	}
	if a.cfg.Redis.URL == "" {
		return durable, nil
	}

	client, err := store.NewRedisClient(ctx, a.cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	a.onClose(func() { _ = client.Close() })
	cache := store.NewRedisContextStore(client, a.cfg.Redis.Retention)
	return store.NewLayeredContextStore(cache, durable, a.log), nil
}

// llmClient creates the Gemini client.
func (a *app) llmClient(ctx context.Context) (*llm.GeminiClient, error) {
	if err := a.cfg.RequireGeneration(); err != nil {
		return nil, err
	}
	client, err := llm.NewGeminiClient(ctx, a.cfg.LLMConfig(), a.cfg.Gemini.APIKey, a.log)
	if err != nil {
		return nil, err
	}
	a.onClose(func() { _ = client.Close() })
	return client, nil
}

// researcher wires web research over st. Without Custom Search credentials the
// model recalls employers from its own knowledge.
func (a *app) researcher(ctx context.Context, st store.EmployerContextStore, gen research.Generator) (*research.Researcher, error) {
	var search research.Searcher
	if a.cfg.Research.SearchEnabled() {
		cs, err := research.NewCustomSearch(ctx, a.cfg.Research.SearchAPIKey, a.cfg.Research.SearchCX)
		if err != nil {
			return nil, err
		}
		search = cs
	} else {
		a.log.Info("custom search not configured, research will rely on model recall")
	}

	pages := fetch.New(fetch.Options{UseBrowser: a.cfg.Research.UseBrowser}, a.log)
	capability := research.NewWebCapability(search, pages, gen, a.log)
	return research.New(st, capability, a.cfg.Research.TTL, a.cfg.Research.Timeout, a.log), nil
}

// services bundles what the generating commands need.
type services struct {
	db         *db.DB
	researcher *research.Researcher
	pipeline   *pipeline.Service
}

// services builds the full generation stack on Postgres.
func (a *app) services(ctx context.Context) (*services, error) {
	database, err := a.database(ctx)
	if err != nil {
		return nil, err
	}
	client, err := a.llmClient(ctx)
	if err != nil {
		return nil, err
	}
	st, err := a.contextStore(ctx, database)
	if err != nil {
		return nil, err
	}
	researcher, err := a.researcher(ctx, st, client)
	if err != nil {
		return nil, err
	}

	composer := pitch.NewComposer(client, a.cfg.Generation.Timeout, a.log)
	svc := pipeline.New(database, researcher, composer, database.PitchRecords(),
		pipeline.WithRoster(database),
		pipeline.WithLogger(a.log))
	return &services{db: database, researcher: researcher, pipeline: svc}, nil
}

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --user %q: %w", raw, err)
	}
	return id, nil
}

// writeJSON pretty-prints v.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
