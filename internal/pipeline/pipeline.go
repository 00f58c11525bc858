// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/evaluate"
	"github.com/pdiddy/research-assistant/internal/synthesize"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Sink persists a finished exchange. Persistence is best-effort: errors
// are logged, never surfaced, and never delay the response.
type Sink interface {
	Persist(ctx context.Context, req types.AskRequest, answer types.StructuredAnswer) error
}

// persistTimeout bounds the background persistence call.
const persistTimeout = 2 * time.Second

// Pipeline wires the orchestrator, evaluator, and synthesizer into the
// end-to-end question flow. Each request is independent; the pipeline
// holds only read-only collaborators.
type Pipeline struct {
	orch   *Orchestrator
	eval   *evaluate.Evaluator
	synth  *synthesize.Synthesizer
	sink   Sink
	logger *zap.Logger
}

// New builds a Pipeline. sink may be nil to disable persistence.
func New(orch *Orchestrator, eval *evaluate.Evaluator, synth *synthesize.Synthesizer, sink Sink, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{orch: orch, eval: eval, synth: synth, sink: sink, logger: logger}
}

// Answer runs retrieval, evaluation, and synthesis for one request and
// dispatches persistence in the background. Failures below the
// synthesizer never raise: the caller always receives a StructuredAnswer
// whose availability map and prose communicate any degradation.
func (p *Pipeline) Answer(ctx context.Context, req types.AskRequest) types.StructuredAnswer {
	requestID := uuid.NewString()
	start := time.Now()

	p.logger.Info("processing question",
		zap.String("request_id", requestID),
		zap.String("session_id", req.SessionID),
		zap.Int("question_len", len(req.QuestionText)))

	pool := p.orch.Retrieve(ctx, req.QuestionText)
	filtered := p.eval.Evaluate(pool, req.QuestionText)
	answer := p.synth.Synthesize(ctx, filtered, req.QuestionText, Availability(pool))

	p.logger.Info("question processed",
		zap.String("request_id", requestID),
		zap.Duration("total", time.Since(start)),
		zap.Int64("aggregation_ms", pool.AggregationDurationMs),
		zap.Int("fragments", len(pool.Fragments)),
		zap.Int("kept", len(filtered.Kept)),
		zap.Int("removed", len(filtered.Removed)),
		zap.Int("contradictions", len(filtered.Contradictions)),
		zap.Float64("confidence", answer.OverallConfidence),
		zap.Bool("degraded", answer.Degraded))

	if p.sink != nil {
		go p.persist(req, answer)
	}

	return answer
}

// persist saves the turn on its own context, detached from the request.
func (p *Pipeline) persist(req types.AskRequest, answer types.StructuredAnswer) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := p.sink.Persist(ctx, req, answer); err != nil {
		p.logger.Warn("memory persist failed",
			zap.String("session_id", req.SessionID),
			zap.Error(err))
	}
}
