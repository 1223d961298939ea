package main

import (
	"context"
	"fmt"
	"log"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/engine"
	"github.com/mohammad-safakhou/researcher/internal/reportindex"
	"github.com/mohammad-safakhou/researcher/internal/runtime"
	"github.com/mohammad-safakhou/researcher/internal/store"
	"github.com/mohammad-safakhou/researcher/internal/summarizer"
	"github.com/mohammad-safakhou/researcher/provider"
	"github.com/mohammad-safakhou/researcher/tools/web_fetch"
	"github.com/mohammad-safakhou/researcher/tools/web_search"
)

// warmupLimit bounds how many stored reports are indexed at startup.
const warmupLimit = 10000

// app holds the process-wide components shared by every request.
type app struct {
	cfg       *config.Config
	sink      *runtime.LogSink
	store     *store.Store
	index     *reportindex.Index
	telemetry *runtime.Telemetry
	engine    *engine.Engine
}

// buildApp wires the research pipeline from cfg. Missing LLM credentials fail here,
// before anything is served.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, sink: runtime.NewLogSink(cfg.General.LogFile)}
	logger := a.sink.Logger("[APP] ")

	driver, dsn, err := runtime.DataSource(cfg)
	if err != nil {
		return nil, err
	}
	a.store, err = store.NewWithDSN(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}

	gen, err := provider.NewProvider(ctx, provider.Client(cfg.LLM.Provider), provider.Options{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLM.Timeout,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	sum := summarizer.New(gen, summarizer.Options{
		Model:        cfg.LLM.Model,
		MaxSources:   cfg.Limits.PromptSources,
		ExcerptChars: cfg.Limits.ExcerptChars,
		Debug:        cfg.General.Debug,
		Logger:       a.sink.Logger("[SUMMARIZER] "),
	})

	searcher, err := web_search.NewWebSearcher(web_search.Provider(cfg.Search.Provider), cfg.Search.APIKey, web_search.Options{
		Endpoint: cfg.Search.Endpoint,
		Timeout:  cfg.Search.Timeout,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("search provider %q: %w", cfg.Search.Provider, err)
	}
	if cfg.Search.APIKey == "" {
		logger.Printf("warning: no search api key configured; submissions will fail")
	}
	fetcher := web_fetch.NewWebFetcher(web_fetch.Options{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.Fetch.Timeout,
		MaxBytes:  cfg.Fetch.MaxBytes,
		Policy:    cfg.Fetch.Policy,
	})

	if cfg.Telemetry.MetricsEnabled {
		a.telemetry = runtime.NewTelemetry()
	}

	a.engine = &engine.Engine{
		Store:      a.store,
		Searcher:   searcher,
		Fetcher:    fetcher,
		Summarizer: sum,
		Telemetry:  a.telemetry,
		Limits:     cfg.Limits,
		Logger:     a.sink.Logger("[ENGINE] "),
	}

	if cfg.Index.Enabled {
		a.index, err = reportindex.Open(cfg.Index.Path)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open report index: %w", err)
		}
		a.engine.Index = a.index
		if err := a.warmIndex(ctx, logger); err != nil {
			logger.Printf("report index warmup: %v", err)
		}
	}
	return a, nil
}

// warmIndex fills an empty index from the store, e.g. after a restart with an in-memory index.
func (a *app) warmIndex(ctx context.Context, logger *log.Logger) error {
	n, err := a.index.Count()
	if err != nil || n > 0 {
		return err
	}
	added, err := a.engine.Reindex(ctx, warmupLimit)
	if err != nil {
		return err
	}
	if added > 0 {
		logger.Printf("indexed %d stored reports", added)
	}
	return nil
}

func (a *app) close() {
	if a.index != nil {
		_ = a.index.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.sink.Close()
}
