// Package cmd — shared wiring.
// Builds the pipeline runner and its stages from the loaded config, so
// serve and create assemble the exact same pipeline.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gaurav-prasanna/codecapsule/cache"
	"github.com/gaurav-prasanna/codecapsule/config"
	"github.com/gaurav-prasanna/codecapsule/core"
	"github.com/gaurav-prasanna/codecapsule/core/chunk"
	"github.com/gaurav-prasanna/codecapsule/core/extract"
	"github.com/gaurav-prasanna/codecapsule/core/fetch"
	"github.com/gaurav-prasanna/codecapsule/core/generate"
	"github.com/gaurav-prasanna/codecapsule/core/normalize"
	"github.com/gaurav-prasanna/codecapsule/core/urlcheck"
	"github.com/gaurav-prasanna/codecapsule/pipeline"
	"github.com/gaurav-prasanna/codecapsule/store"
)

// newLogger builds the process-wide structured logger.
func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// newGenerator selects the capsule generator: the configured LLM
// endpoint, or the deterministic mock when mockLLM is set.
func newGenerator(cfg *config.Config, mockLLM bool) (core.Generator, error) {
	if mockLLM {
		return &generate.Mock{}, nil
	}
	gen, err := generate.NewOpenAIGenerator(generate.Settings{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring generator: %w (set CODECAPSULE_LLM_API_KEY, or pass --mock-llm)", err)
	}
	return gen, nil
}

// newRunner assembles the full pipeline from config.
func newRunner(cfg *config.Config, st *store.Store, c *cache.Cache, gen core.Generator, log *slog.Logger) *pipeline.Runner {
	burst := 2 * int(cfg.Fetch.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	fetcher := fetch.New(
		fetch.WithTimeout(time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second),
		fetch.WithRateLimit(cfg.Fetch.RequestsPerSecond, burst),
	)

	return &pipeline.Runner{
		Fetcher:    fetcher,
		Extractor:  extract.New(),
		Normalizer: normalize.New(),
		Chunker:    chunk.New(chunk.DefaultMaxLen),
		Generator:  gen,
		Store:      st,
		Cache:      c,
		URLPolicy:  urlcheck.Policy{BlockPrivateHosts: cfg.Fetch.BlockPrivateHosts},
		Logger:     log,
	}
}
