// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline executes the retrieval-aggregation-evaluation-synthesis
// workflow: concurrent adapter fan-out under deadlines, quality filtering,
// answer synthesis, and best-effort memory persistence.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/source"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Orchestrator fans a question out to all configured adapters concurrently
// and merges live results into an aggregated pool. Adapter failures are
// absorbed into availability metadata; Retrieve never fails.
type Orchestrator struct {
	adapters []source.Adapter
	cfg      types.RetrievalConfig
	logger   *zap.Logger
}

// NewOrchestrator builds an Orchestrator over a fixed adapter set.
func NewOrchestrator(adapters []source.Adapter, cfg types.RetrievalConfig, logger *zap.Logger) *Orchestrator {
	if cfg.OverallBudget <= 0 {
		cfg.OverallBudget = 30 * time.Second
	}
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = 7 * time.Second
	}
	if cfg.MaxFragmentsPerSource <= 0 {
		cfg.MaxFragmentsPerSource = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{adapters: adapters, cfg: cfg, logger: logger}
}

// settled is one adapter call's terminal state.
type settled struct {
	kind      types.SourceKind
	fragments []types.EvidenceFragment
	failure   *types.SourceFailure
	latency   time.Duration
}

// Retrieve launches one concurrent call per adapter, each under its own
// sub-deadline, and returns when every call has settled or the overall
// budget elapses. Fragments are appended in completion order. Adapters
// still outstanding at the overall deadline are cancelled and recorded as
// timed out; their goroutines drain into the buffered channel.
func (o *Orchestrator) Retrieve(ctx context.Context, question string) types.AggregatedPool {
	start := time.Now()

	overallCtx, cancel := context.WithTimeout(ctx, o.cfg.OverallBudget)
	defer cancel()

	ch := make(chan settled, len(o.adapters))
	for _, a := range o.adapters {
		go func(a source.Adapter) {
			ch <- o.call(overallCtx, a, question)
		}(a)
	}

	pool := types.AggregatedPool{
		SourcesSucceeded: make(map[types.SourceKind]bool, len(o.adapters)),
		SourcesFailed:    make(map[types.SourceKind]types.SourceFailure),
	}

	done := make(map[types.SourceKind]bool, len(o.adapters))
	for range o.adapters {
		select {
		case s := <-ch:
			done[s.kind] = true
			o.record(&pool, s)
		case <-overallCtx.Done():
			// Overall budget elapsed: everything unsettled is a timeout.
			now := time.Now()
			for _, a := range o.adapters {
				if done[a.Kind()] {
					continue
				}
				pool.SourcesFailed[a.Kind()] = types.SourceFailure{
					Kind:     types.FailureTimeout,
					Detail:   "overall retrieval budget elapsed",
					FailedAt: now,
				}
				o.logger.Warn("source timed out",
					zap.String("source", string(a.Kind())),
					zap.String("outcome", "timeout"),
					zap.Duration("latency", time.Since(start)),
					zap.String("detail", "overall retrieval budget elapsed"))
			}
			pool.AggregationDurationMs = time.Since(start).Milliseconds()
			return pool
		}
	}

	pool.AggregationDurationMs = time.Since(start).Milliseconds()
	return pool
}

// call runs one adapter under its sub-deadline and classifies the outcome.
func (o *Orchestrator) call(ctx context.Context, a source.Adapter, question string) settled {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.AdapterTimeout)
	defer cancel()

	t0 := time.Now()
	fragments, err := a.Fetch(callCtx, question)
	latency := time.Since(t0)

	if err != nil {
		failure := types.SourceFailure{
			Kind:     types.FailureAdapterError,
			Detail:   err.Error(),
			FailedAt: time.Now(),
		}
		if errors.Is(err, context.DeadlineExceeded) {
			failure.Kind = types.FailureTimeout
		}
		return settled{kind: a.Kind(), failure: &failure, latency: latency}
	}

	// Bound the per-source contribution and drop malformed fragments.
	kept := make([]types.EvidenceFragment, 0, len(fragments))
	for _, f := range fragments {
		if f.Text == "" {
			continue
		}
		kept = append(kept, f)
		if len(kept) >= o.cfg.MaxFragmentsPerSource {
			break
		}
	}

	return settled{kind: a.Kind(), fragments: kept, latency: latency}
}

// record merges one settled call into the pool and emits the structured
// per-adapter outcome event.
func (o *Orchestrator) record(pool *types.AggregatedPool, s settled) {
	if s.failure != nil {
		pool.SourcesFailed[s.kind] = *s.failure
		o.logger.Warn("source failed",
			zap.String("source", string(s.kind)),
			zap.String("outcome", string(s.failure.Kind)),
			zap.Duration("latency", s.latency),
			zap.String("detail", s.failure.Detail))
		return
	}

	pool.SourcesSucceeded[s.kind] = true
	pool.Fragments = append(pool.Fragments, s.fragments...)
	o.logger.Info("source completed",
		zap.String("source", string(s.kind)),
		zap.String("outcome", "succeeded"),
		zap.Duration("latency", s.latency),
		zap.Int("fragments", len(s.fragments)))
}

// Availability converts the pool's bookkeeping into the per-source status
// map reported in the final answer. Succeeded and failed sets together
// cover exactly the configured adapters.
func Availability(pool types.AggregatedPool) map[types.SourceKind]types.SourceStatus {
	out := make(map[types.SourceKind]types.SourceStatus, len(pool.SourcesSucceeded)+len(pool.SourcesFailed))
	for kind := range pool.SourcesSucceeded {
		out[kind] = types.StatusSucceeded
	}
	for kind, failure := range pool.SourcesFailed {
		if failure.Kind == types.FailureTimeout {
			out[kind] = types.StatusTimedOut
		} else {
			out[kind] = types.StatusFailed
		}
	}
	return out
}
