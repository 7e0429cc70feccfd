package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/browser"
	"github.com/sells-group/leadgen-cli/internal/diag"
	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/input"
	"github.com/sells-group/leadgen-cli/internal/llm"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/source"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

// env bundles the wired pipeline and its closeable dependencies.
type env struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

func (e *env) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("store close failed", zap.Error(err))
		}
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "none":
		return store.NewNoop(), nil
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func initProvider() input.Provider {
	if cfg.Input.Provider == "file" {
		return input.NewFileProvider(cfg.Input.File)
	}
	return input.NewStdinProvider()
}

func initPipeline(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Anthropic.Key == "" {
		st.Close()
		return nil, eris.New("anthropic.key is required (set LEADGEN_ANTHROPIC_KEY)")
	}
	client := anthropic.NewClient(cfg.Anthropic.Key)
	structurer := llm.NewAnthropicStructurer(client, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)

	engineFactory := func() browser.Engine {
		return browser.NewHTTPEngine(browser.HTTPEngineOptions{
			Timeout:        time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
			Retries:        cfg.Scrape.Retries,
			RequestsPerSec: cfg.Scrape.RequestsPerSec,
		})
	}

	var googleSources []source.Source
	if cfg.Pipeline.MockAPIEnabled {
		googleSources = append(googleSources, source.NewMockAPI(structurer))
	}
	googleSources = append(googleSources,
		source.NewSearchScrape(engineFactory, structurer, cfg.Scrape.SearchBaseURL, cfg.Pipeline.Quota))

	provider := initProvider()

	p := pipeline.New(pipeline.Options{
		GoogleSources:  googleSources,
		ManualGoogle:   source.NewManualGoogle(provider, structurer),
		ManualLinkedIn: source.NewManualLinkedIn(provider, structurer),
		Store:          st,
		Diag:           diag.New(cfg.Diag.Dir),
		Exporter:       export.NewWriter(cfg.Export.Dir, cfg.Export.BaseName, cfg.Export.XLSX),
		Quota:          cfg.Pipeline.Quota,
	})

	return &env{Store: st, Pipeline: p}, nil
}
