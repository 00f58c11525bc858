// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate converts an aggregated evidence pool into a filtered
// pool via a deterministic, explainable quality function, and surfaces
// contradictions between kept fragments.
package evaluate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Quality-score component weights.
const (
	weightReputation = 0.30
	weightRecency    = 0.20
	weightRelevance  = 0.40
	weightRedundancy = 0.10
)

// Evaluator scores, deduplicates, and thresholds evidence fragments.
// It holds only read-only configuration; evaluation is single-threaded
// per request and deterministic for a fixed input ordering.
type Evaluator struct {
	cfg types.EvaluationConfig

	// now is the clock used for recency scoring. Tests substitute it.
	now func() time.Time
}

// New builds an Evaluator, normalizing zero-valued configuration to the
// stock defaults.
func New(cfg types.EvaluationConfig) *Evaluator {
	if cfg.QualityThreshold <= 0 {
		cfg.QualityThreshold = 0.6
	}
	if cfg.RedundancyOverlap <= 0 {
		cfg.RedundancyOverlap = 0.8
	}
	if cfg.ReputationWeights == nil {
		cfg.ReputationWeights = types.DefaultReputationWeights()
	}
	if cfg.FreshWindow <= 0 {
		cfg.FreshWindow = 30 * 24 * time.Hour
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 2 * 365 * 24 * time.Hour
	}
	if cfg.RecencyFloor <= 0 {
		cfg.RecencyFloor = 0.2
	}
	return &Evaluator{cfg: cfg, now: time.Now}
}

// Evaluate scores every fragment in pool order, filters by duplicate and
// threshold rules, and returns the ranked, annotated result. An output
// with empty Kept is a valid, non-error outcome; Removed documents why.
func (e *Evaluator) Evaluate(pool types.AggregatedPool, question string) types.FilteredPool {
	out := types.FilteredPool{ThresholdUsed: e.cfg.QualityThreshold}
	if pool.IsEmpty() {
		return out
	}

	tokens := make([]map[string]bool, len(pool.Fragments))
	for i, f := range pool.Fragments {
		tokens[i] = tokenSet(f.Text)
	}

	for i, f := range pool.Fragments {
		dupOf := e.duplicateOf(i, pool.Fragments, tokens)

		components := types.ScoreComponents{
			Reputation: e.reputation(f.SourceKind),
			Recency:    e.recency(f.PublishedAt),
			Relevance:  clamp01(f.SemanticRelevance),
			Redundancy: 1.0,
		}
		if dupOf >= 0 {
			components.Redundancy = 0.0
		}

		score := weightReputation*components.Reputation +
			weightRecency*components.Recency +
			weightRelevance*components.Relevance +
			weightRedundancy*components.Redundancy

		sf := types.ScoredFragment{
			EvidenceFragment: f,
			QualityScore:     clamp01(score),
			Components:       components,
		}

		switch {
		case dupOf >= 0:
			sf.Decision = types.DecisionDroppedDuplicate
			out.Removed = append(out.Removed, types.RemovedRecord{
				FragmentID: f.ID,
				Reason:     fmt.Sprintf("duplicate of %s (token overlap above %.2f)", pool.Fragments[dupOf].ID, e.cfg.RedundancyOverlap),
				Score:      sf.QualityScore,
			})
		case sf.QualityScore < e.cfg.QualityThreshold:
			sf.Decision = types.DecisionDroppedLowQuality
			out.Removed = append(out.Removed, types.RemovedRecord{
				FragmentID: f.ID,
				Reason:     fmt.Sprintf("quality score %.2f below threshold %.2f", sf.QualityScore, e.cfg.QualityThreshold),
				Score:      sf.QualityScore,
			})
		default:
			sf.Decision = types.DecisionKept
			out.Kept = append(out.Kept, sf)
		}
	}

	sort.SliceStable(out.Kept, func(i, j int) bool {
		if out.Kept[i].QualityScore != out.Kept[j].QualityScore {
			return out.Kept[i].QualityScore > out.Kept[j].QualityScore
		}
		return out.Kept[i].RetrievedAt.Before(out.Kept[j].RetrievedAt)
	})

	out.Contradictions = detectContradictions(out.Kept)
	return out
}

// reputation returns the configured per-kind weight.
func (e *Evaluator) reputation(kind types.SourceKind) float64 {
	if w, ok := e.cfg.ReputationWeights[kind]; ok {
		return clamp01(w)
	}
	return types.DefaultReputation
}

// recency scores a publication date: 1.0 when absent or within the fresh
// window, linear decay down to the floor across the maximum age window.
func (e *Evaluator) recency(publishedAt time.Time) float64 {
	if publishedAt.IsZero() {
		return 1.0
	}
	age := e.now().Sub(publishedAt)
	if age <= e.cfg.FreshWindow {
		return 1.0
	}
	if age >= e.cfg.MaxAge {
		return e.cfg.RecencyFloor
	}
	span := e.cfg.MaxAge - e.cfg.FreshWindow
	frac := float64(age-e.cfg.FreshWindow) / float64(span)
	return 1.0 - frac*(1.0-e.cfg.RecencyFloor)
}

// duplicateOf returns the index of the fragment that i duplicates, or -1.
// A fragment is a duplicate when its token overlap with a more relevant
// fragment (or an equally relevant, earlier one) exceeds the configured
// threshold. Iteration order is pool order, so ties are reproducible.
func (e *Evaluator) duplicateOf(i int, fragments []types.EvidenceFragment, tokens []map[string]bool) int {
	for j := range fragments {
		if j == i {
			continue
		}
		higher := fragments[j].SemanticRelevance > fragments[i].SemanticRelevance ||
			(fragments[j].SemanticRelevance == fragments[i].SemanticRelevance && j < i)
		if !higher {
			continue
		}
		if jaccard(tokens[i], tokens[j]) > e.cfg.RedundancyOverlap {
			return j
		}
	}
	return -1
}

// tokenSet lowercases and splits text into its unique tokens.
func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		set[strings.Trim(tok, ".,;:!?\"'()[]")] = true
	}
	delete(set, "")
	return set
}

// jaccard computes token-set overlap: |a∩b| / |a∪b|.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
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
