// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FilterDecision records the evaluator's verdict on one fragment.
type FilterDecision string

const (
	DecisionKept              FilterDecision = "kept"
	DecisionDroppedLowQuality FilterDecision = "dropped_low_quality"
	DecisionDroppedDuplicate  FilterDecision = "dropped_duplicate"
)

// ScoreComponents breaks a quality score into its weighted factors.
// Each component is in [0,1].
type ScoreComponents struct {
	// Reputation is the fixed per-SourceKind weight.
	Reputation float64 `json:"reputation" yaml:"reputation"`

	// Recency is 1.0 for fresh or undated sources, decaying linearly
	// to a floor over the configured maximum age.
	Recency float64 `json:"recency" yaml:"recency"`

	// Relevance is the fragment's SemanticRelevance, passed through.
	Relevance float64 `json:"relevance" yaml:"relevance"`

	// Redundancy is 0 when the fragment duplicates a higher-relevance
	// fragment (token overlap above the configured threshold), else 1.
	Redundancy float64 `json:"redundancy" yaml:"redundancy"`
}

// ScoredFragment is an EvidenceFragment plus evaluation output.
type ScoredFragment struct {
	EvidenceFragment `yaml:",inline"`

	// QualityScore is the weighted combination of the components, in [0,1].
	QualityScore float64 `json:"quality_score" yaml:"quality_score"`

	// Components are the individual factors behind QualityScore.
	Components ScoreComponents `json:"score_components" yaml:"score_components"`

	// Decision is Kept only when QualityScore meets the threshold and the
	// fragment is not a duplicate.
	Decision FilterDecision `json:"decision" yaml:"decision"`
}

// RemovedRecord documents why a fragment was filtered out.
type RemovedRecord struct {
	FragmentID string  `json:"fragment_id" yaml:"fragment_id"`
	Reason     string  `json:"reason" yaml:"reason"`
	Score      float64 `json:"score" yaml:"score"`
}

// ContradictionSeverity grades how strongly two claims conflict.
type ContradictionSeverity string

const (
	SeverityMinor    ContradictionSeverity = "minor"
	SeverityModerate ContradictionSeverity = "moderate"
	SeverityCritical ContradictionSeverity = "critical"
)

// ContradictionRecord captures two evidence fragments, from different
// sourceRefs, asserting incompatible claims about the same subject.
// Contradictions are annotated, never used as a removal reason.
type ContradictionRecord struct {
	ClaimA          string                `json:"claim_a" yaml:"claim_a"`
	ClaimASourceRef string                `json:"claim_a_source_ref" yaml:"claim_a_source_ref"`
	ClaimB          string                `json:"claim_b" yaml:"claim_b"`
	ClaimBSourceRef string                `json:"claim_b_source_ref" yaml:"claim_b_source_ref"`
	Severity        ContradictionSeverity `json:"severity" yaml:"severity"`
}

// FilteredPool is the retained, ranked subset of an AggregatedPool plus
// transparency records. Kept is sorted by QualityScore descending, ties
// broken by RetrievedAt ascending.
type FilteredPool struct {
	Kept           []ScoredFragment      `json:"kept" yaml:"kept"`
	Removed        []RemovedRecord       `json:"removed" yaml:"removed"`
	Contradictions []ContradictionRecord `json:"contradictions" yaml:"contradictions"`
	ThresholdUsed  float64               `json:"threshold_used" yaml:"threshold_used"`
}

// KeptIDs returns the set of kept fragment ids, for citation validation.
func (p FilteredPool) KeptIDs() map[string]bool {
	ids := make(map[string]bool, len(p.Kept))
	for _, f := range p.Kept {
		ids[f.ID] = true
	}
	return ids
}
