// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesize produces the structured answer from a filtered
// evidence pool. Every claim is backed by kept fragments and every
// contradiction is surfaced rather than silently resolved.
package synthesize

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// NoEvidenceAnswer is the canonical message returned when nothing
// survives retrieval and filtering. It is produced without invoking any
// generative step.
const NoEvidenceAnswer = "No relevant evidence was found for this question. " +
	"Try rephrasing the question, narrowing it to a more specific topic, " +
	"or adding source documents to the local index."

// degradedNote is appended to answers produced by the raw-evidence
// fallback after a synthesis failure.
const degradedNote = "Note: full synthesis was unavailable for this answer; " +
	"the evidence below is listed directly from the retrieved sources."

// Draft is the generator's response: prose plus claims that each cite
// fragment ids. The prompt contract requires a citation for every claim;
// claims violating it are rejected here, never invented.
type Draft struct {
	Answer string
	Claims []DraftClaim
}

// DraftClaim is a single generated claim with its citations.
type DraftClaim struct {
	Text             string
	CitedFragmentIDs []string
	Confidence       float64
}

// Generator abstracts the generative synthesis step so tests can supply a
// mock and deployments can choose between an external model call and the
// built-in extractive generator.
type Generator interface {
	Generate(ctx context.Context, question string, kept []types.ScoredFragment) (Draft, error)
}

// Synthesizer assembles structured answers. It holds only read-only
// configuration and a generator; no cross-request state.
type Synthesizer struct {
	cfg    types.SynthesisConfig
	gen    Generator
	logger *zap.Logger
	now    func() time.Time
}

// New builds a Synthesizer. A nil generator selects the built-in
// extractive one.
func New(cfg types.SynthesisConfig, gen Generator, logger *zap.Logger) *Synthesizer {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.MaxAnswerLength <= 0 {
		cfg.MaxAnswerLength = 5000
	}
	if gen == nil {
		gen = ExtractiveGenerator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{cfg: cfg, gen: gen, logger: logger, now: time.Now}
}

// Synthesize produces the StructuredAnswer for a filtered pool. Failures
// of the generative step degrade to a raw-evidence listing with lowered
// confidence; they never surface as an error to the caller.
func (s *Synthesizer) Synthesize(ctx context.Context, filtered types.FilteredPool, question string, availability map[types.SourceKind]types.SourceStatus) types.StructuredAnswer {
	answer := types.StructuredAnswer{
		SourceAvailability:  availability,
		ContradictionsNoted: filtered.Contradictions,
		GeneratedAt:         s.now(),
	}

	if len(filtered.Kept) == 0 {
		answer.MainAnswer = NoEvidenceAnswer
		answer.OverallConfidence = 0
		answer.Degraded = true
		return answer
	}

	draft, err := s.generateWithRetry(ctx, question, filtered.Kept)
	if err != nil {
		s.logger.Warn("synthesis failed, falling back to raw evidence",
			zap.Error(err), zap.Int("kept", len(filtered.Kept)))
		return s.fallback(filtered, answer)
	}

	keptIDs := filtered.KeptIDs()
	claims, rejected := validateClaims(draft.Claims, keptIDs)
	if rejected > 0 {
		s.logger.Warn("rejected uncited claims", zap.Int("rejected", rejected))
	}
	if len(claims) == 0 {
		// Every claim failed citation validation; treat as a synthesis
		// failure rather than inventing citations.
		s.logger.Warn("no claim survived citation validation, falling back to raw evidence")
		return s.fallback(filtered, answer)
	}

	answer.KeyClaims = claims
	answer.MainAnswer = s.composeAnswer(draft.Answer, filtered.Contradictions)
	answer.OverallConfidence = overallConfidence(claims, filtered.Kept)
	return answer
}

// generateWithRetry calls the generator with exponential backoff.
func (s *Synthesizer) generateWithRetry(ctx context.Context, question string, kept []types.ScoredFragment) (Draft, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return Draft{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		draft, err := s.gen.Generate(ctx, question, kept)
		if err == nil {
			return draft, nil
		}
		lastErr = err
	}
	return Draft{}, fmt.Errorf("after %d retries: %w", s.cfg.MaxRetries, lastErr)
}

// backoffBase controls the base duration for generator retries. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// fallback lists the kept evidence directly with lowered confidence.
func (s *Synthesizer) fallback(filtered types.FilteredPool, answer types.StructuredAnswer) types.StructuredAnswer {
	var b strings.Builder
	b.WriteString(degradedNote)
	b.WriteString("\n")

	var claims []types.KeyClaim
	for _, f := range filtered.Kept {
		line := firstSentence(f.Text)
		fmt.Fprintf(&b, "\n- %s [%s]", line, f.SourceRef)
		claims = append(claims, types.KeyClaim{
			ClaimText:        line,
			CitedFragmentIDs: []string{f.ID},
			Confidence:       f.QualityScore * 0.5,
		})
	}

	answer.KeyClaims = claims
	answer.MainAnswer = s.composeAnswer(b.String(), filtered.Contradictions)
	answer.OverallConfidence = overallConfidence(claims, filtered.Kept)
	answer.Degraded = true
	return answer
}

// composeAnswer bounds the prose to the answer-length budget and appends
// the contradiction section. The prose is what gets truncated; both sides
// of every contradiction are always presented with their sourceRefs,
// neither preferred nor blended.
func (s *Synthesizer) composeAnswer(prose string, contradictions []types.ContradictionRecord) string {
	var sec strings.Builder
	if len(contradictions) > 0 {
		sec.WriteString("\n\nConflicting evidence was found and is reported unresolved:")
		for _, c := range contradictions {
			fmt.Fprintf(&sec, "\n- %q (%s) conflicts with %q (%s) [severity: %s]",
				c.ClaimA, c.ClaimASourceRef, c.ClaimB, c.ClaimBSourceRef, c.Severity)
		}
	}
	section := sec.String()

	limit := s.cfg.MaxAnswerLength - utf8.RuneCountInString(section)
	return truncateRunes(strings.TrimSpace(prose), limit) + section
}

// truncateRunes bounds s to max runes, ending in an ellipsis when cut.
// Slicing on rune boundaries keeps multi-byte text valid.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// validateClaims drops claims with no citations or with citations outside
// the kept set. Returns the surviving claims and the rejected count.
func validateClaims(claims []DraftClaim, keptIDs map[string]bool) ([]types.KeyClaim, int) {
	var out []types.KeyClaim
	rejected := 0
	for _, c := range claims {
		if len(c.CitedFragmentIDs) == 0 || strings.TrimSpace(c.Text) == "" {
			rejected++
			continue
		}
		valid := true
		for _, id := range c.CitedFragmentIDs {
			if !keptIDs[id] {
				valid = false
				break
			}
		}
		if !valid {
			rejected++
			continue
		}
		out = append(out, types.KeyClaim{
			ClaimText:        c.Text,
			CitedFragmentIDs: c.CitedFragmentIDs,
			Confidence:       clamp01(c.Confidence),
		})
	}
	return out, rejected
}

// overallConfidence is the mean of claim confidences weighted by each
// claim's number of distinct supporting sources, so triangulated claims
// weigh more.
func overallConfidence(claims []types.KeyClaim, kept []types.ScoredFragment) float64 {
	if len(claims) == 0 {
		return 0
	}

	refByID := make(map[string]string, len(kept))
	for _, f := range kept {
		refByID[f.ID] = f.SourceRef
	}

	var weightedSum, weightTotal float64
	for _, c := range claims {
		refs := make(map[string]bool)
		for _, id := range c.CitedFragmentIDs {
			if ref, ok := refByID[id]; ok {
				refs[ref] = true
			}
		}
		w := float64(len(refs))
		if w == 0 {
			w = 1
		}
		weightedSum += w * c.Confidence
		weightTotal += w
	}
	if weightTotal == 0 {
		return 0
	}
	return clamp01(weightedSum / weightTotal)
}

func firstSentence(text string) string {
	for _, s := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	}) {
		if strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s) + "."
		}
	}
	return strings.TrimSpace(text)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
