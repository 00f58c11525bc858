// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-assistant
// pipeline: evidence fragments, aggregation and filtering pools, the final
// structured answer, and configuration.
package types

import "time"

// SourceKind identifies the category of origin for an evidence fragment.
// The set is closed: exactly four adapters are configured, one per kind.
type SourceKind string

const (
	SourceVectorIndex   SourceKind = "vector_index"
	SourceWebSearch     SourceKind = "web_search"
	SourceAcademicIndex SourceKind = "academic_index"
	SourceMemory        SourceKind = "memory"
)

// AllSourceKinds lists the configured kinds in canonical order.
var AllSourceKinds = []SourceKind{
	SourceVectorIndex,
	SourceWebSearch,
	SourceAcademicIndex,
	SourceMemory,
}

// Valid reports whether k is one of the four configured kinds.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceVectorIndex, SourceWebSearch, SourceAcademicIndex, SourceMemory:
		return true
	}
	return false
}

// EvidenceFragment is one retrieved unit of text. Fragments are created by
// an adapter call, consumed once by the evaluator, and never mutated after
// creation.
type EvidenceFragment struct {
	// ID is unique within a request (kind-prefixed, assigned by the adapter).
	ID string `json:"id" yaml:"id"`

	// SourceKind is the adapter that produced this fragment. Immutable.
	SourceKind SourceKind `json:"source_kind" yaml:"source_kind"`

	// Text is the evidence content. Non-empty; adapters bound its length.
	Text string `json:"text" yaml:"text"`

	// SourceRef is an opaque locator: URL, document id, or memory-turn id.
	SourceRef string `json:"source_ref" yaml:"source_ref"`

	// Title is a human-readable source title, when the backend provides one.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// PublishedAt is the publication date of the underlying source.
	// Zero when the backend does not report one.
	PublishedAt time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`

	// SemanticRelevance is the similarity to the question, in [0,1],
	// as supplied by the adapter.
	SemanticRelevance float64 `json:"semantic_relevance" yaml:"semantic_relevance"`

	// RetrievedAt is when the adapter produced this fragment.
	RetrievedAt time.Time `json:"retrieved_at" yaml:"retrieved_at"`
}

// FailureKind classifies why an adapter contributed no fragments.
type FailureKind string

const (
	FailureTimeout      FailureKind = "timeout"
	FailureAdapterError FailureKind = "adapter_error"
)

// SourceFailure records one adapter failure for caller transparency.
type SourceFailure struct {
	Kind     FailureKind `json:"kind" yaml:"kind"`
	Detail   string      `json:"detail,omitempty" yaml:"detail,omitempty"`
	FailedAt time.Time   `json:"failed_at" yaml:"failed_at"`
}

// AggregatedPool holds all fragments returned by adapters that completed
// before the deadline, plus per-source bookkeeping. SourcesSucceeded and
// SourcesFailed together cover exactly the four configured adapters.
type AggregatedPool struct {
	// Fragments in completion order: each adapter's results are appended
	// when its call settles. No cross-adapter ordering beyond that.
	Fragments []EvidenceFragment `json:"fragments" yaml:"fragments"`

	// SourcesSucceeded is the set of kinds whose call completed in time.
	SourcesSucceeded map[SourceKind]bool `json:"sources_succeeded" yaml:"sources_succeeded"`

	// SourcesFailed maps a kind to its failure record.
	SourcesFailed map[SourceKind]SourceFailure `json:"sources_failed" yaml:"sources_failed"`

	// AggregationDurationMs is the wall-clock time of the fan-out.
	AggregationDurationMs int64 `json:"aggregation_duration_ms" yaml:"aggregation_duration_ms"`
}

// IsEmpty reports whether no adapter contributed any fragment.
func (p AggregatedPool) IsEmpty() bool { return len(p.Fragments) == 0 }
