// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/docindex"
	"github.com/pdiddy/research-assistant/internal/evaluate"
	"github.com/pdiddy/research-assistant/internal/memory"
	"github.com/pdiddy/research-assistant/internal/pipeline"
	"github.com/pdiddy/research-assistant/internal/source"
	"github.com/pdiddy/research-assistant/internal/synthesize"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// app bundles the assembled pipeline with the resources it owns.
type app struct {
	pipe  *pipeline.Pipeline
	index *docindex.Index
	store *memory.Store
}

// Close releases the app's database handles.
func (a *app) Close() {
	if a.index != nil {
		a.index.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

// buildApp opens the local stores and assembles the full pipeline: four
// source adapters, the evaluator, the synthesizer, and the memory sink.
func buildApp(cfg types.Config, logger *zap.Logger) (*app, error) {
	index, err := docindex.Open(cfg.DocIndex)
	if err != nil {
		return nil, fmt.Errorf("opening document index: %w", err)
	}

	store, err := memory.Open(cfg.Memory)
	if err != nil {
		index.Close()
		return nil, fmt.Errorf("opening memory store: %w", err)
	}

	maxFragments := cfg.Retrieval.MaxFragmentsPerSource
	adapters := []source.Adapter{
		source.NewVectorAdapter(index, maxFragments),
		source.NewMemoryAdapter(store, maxFragments),
	}
	if cfg.Academic.Enabled {
		adapters = append(adapters, source.NewArxivAdapter(cfg.Academic, maxFragments))
	}
	if cfg.WebSearch.Enabled {
		adapters = append(adapters, source.NewWebSearchAdapter(cfg.WebSearch, maxFragments))
	}

	// With an API key configured the Claude generator drafts answers;
	// without one the synthesizer uses its built-in extractive generator.
	var gen synthesize.Generator
	if cfg.Synthesis.APIKey != "" {
		gen = synthesize.NewClaudeGenerator(cfg.Synthesis)
	}

	pipe := pipeline.New(
		pipeline.NewOrchestrator(adapters, cfg.Retrieval, logger),
		evaluate.New(cfg.Evaluation),
		synthesize.New(cfg.Synthesis, gen, logger),
		store,
		logger,
	)

	return &app{pipe: pipe, index: index, store: store}, nil
}
