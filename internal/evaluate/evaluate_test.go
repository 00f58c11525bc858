// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/pkg/types"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEvaluator() *Evaluator {
	e := New(types.EvaluationConfig{})
	e.now = func() time.Time { return testNow }
	return e
}

func poolOf(fragments ...types.EvidenceFragment) types.AggregatedPool {
	return types.AggregatedPool{
		Fragments:        fragments,
		SourcesSucceeded: map[types.SourceKind]bool{},
		SourcesFailed:    map[types.SourceKind]types.SourceFailure{},
	}
}

func TestEvaluateEmptyPool(t *testing.T) {
	e := newTestEvaluator()

	out := e.Evaluate(poolOf(), "any question")

	assert.Empty(t, out.Kept)
	assert.Empty(t, out.Removed)
	assert.Empty(t, out.Contradictions)
	assert.Equal(t, 0.6, out.ThresholdUsed)
}

func TestEvaluateScoreComponents(t *testing.T) {
	e := newTestEvaluator()

	out := e.Evaluate(poolOf(types.EvidenceFragment{
		ID:                "vector_index-1",
		SourceKind:        types.SourceVectorIndex,
		Text:              "Consensus requires a majority of nodes to agree on each log entry.",
		SourceRef:         "doc:consensus#0",
		SemanticRelevance: 1.0,
		RetrievedAt:       testNow,
	}), "how does consensus work")

	require.Len(t, out.Kept, 1)
	f := out.Kept[0]
	assert.Equal(t, types.DecisionKept, f.Decision)
	assert.Equal(t, 0.9, f.Components.Reputation)
	assert.Equal(t, 1.0, f.Components.Recency)
	assert.Equal(t, 1.0, f.Components.Relevance)
	assert.Equal(t, 1.0, f.Components.Redundancy)
	// 0.30*0.9 + 0.20*1.0 + 0.40*1.0 + 0.10*1.0
	assert.InDelta(t, 0.97, f.QualityScore, 1e-9)
}

func TestEvaluateUnknownKindUsesDefaultReputation(t *testing.T) {
	e := newTestEvaluator()

	out := e.Evaluate(poolOf(types.EvidenceFragment{
		ID:                "x-1",
		SourceKind:        types.SourceKind("unknown"),
		Text:              "Some evidence text about an unusual topic.",
		SourceRef:         "ref:x",
		SemanticRelevance: 1.0,
		RetrievedAt:       testNow,
	}), "q")

	require.Len(t, out.Kept, 1)
	assert.Equal(t, types.DefaultReputation, out.Kept[0].Components.Reputation)
}

func TestRecency(t *testing.T) {
	e := newTestEvaluator()

	freshWindow := 30 * 24 * time.Hour
	maxAge := 2 * 365 * 24 * time.Hour

	tests := []struct {
		name        string
		publishedAt time.Time
		want        float64
	}{
		{"missing date scores full", time.Time{}, 1.0},
		{"inside fresh window", testNow.Add(-10 * 24 * time.Hour), 1.0},
		{"exactly at fresh window", testNow.Add(-freshWindow), 1.0},
		{"older than max age floors", testNow.Add(-3 * 365 * 24 * time.Hour), 0.2},
		{"exactly at max age floors", testNow.Add(-maxAge), 0.2},
		{"midway decays linearly", testNow.Add(-(freshWindow + (maxAge-freshWindow)/2)), 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, e.recency(tt.publishedAt), 1e-9)
		})
	}
}

func TestEvaluateDropsLowQuality(t *testing.T) {
	e := newTestEvaluator()

	out := e.Evaluate(poolOf(types.EvidenceFragment{
		ID:                "web_search-1",
		SourceKind:        types.SourceWebSearch,
		Text:              "An old, barely related blog post about something else entirely.",
		SourceRef:         "https://example.com/old-post",
		PublishedAt:       testNow.Add(-3 * 365 * 24 * time.Hour),
		SemanticRelevance: 0.0,
		RetrievedAt:       testNow,
	}), "q")

	assert.Empty(t, out.Kept)
	require.Len(t, out.Removed, 1)
	assert.Equal(t, "web_search-1", out.Removed[0].FragmentID)
	assert.Contains(t, out.Removed[0].Reason, "below threshold")
	// 0.30*0.7 + 0.20*0.2 + 0.40*0.0 + 0.10*1.0
	assert.InDelta(t, 0.35, out.Removed[0].Score, 1e-9)
}

func TestEvaluateDropsDuplicateOfMoreRelevant(t *testing.T) {
	e := newTestEvaluator()

	text := "Leader election uses randomized timeouts to avoid split votes."
	out := e.Evaluate(poolOf(
		types.EvidenceFragment{
			ID:                "web_search-1",
			SourceKind:        types.SourceWebSearch,
			Text:              text,
			SourceRef:         "https://example.com/a",
			SemanticRelevance: 0.8,
			RetrievedAt:       testNow,
		},
		types.EvidenceFragment{
			ID:                "vector_index-1",
			SourceKind:        types.SourceVectorIndex,
			Text:              text,
			SourceRef:         "doc:raft#3",
			SemanticRelevance: 0.95,
			RetrievedAt:       testNow,
		},
	), "leader election")

	require.Len(t, out.Kept, 1)
	assert.Equal(t, "vector_index-1", out.Kept[0].ID)

	require.Len(t, out.Removed, 1)
	assert.Equal(t, "web_search-1", out.Removed[0].FragmentID)
	assert.Contains(t, out.Removed[0].Reason, "duplicate of vector_index-1")
}

func TestEvaluateDuplicateTieFavorsEarlierFragment(t *testing.T) {
	e := newTestEvaluator()

	text := "Snapshots compact the log once it exceeds the configured size."
	out := e.Evaluate(poolOf(
		types.EvidenceFragment{
			ID:                "vector_index-1",
			SourceKind:        types.SourceVectorIndex,
			Text:              text,
			SourceRef:         "doc:log#1",
			SemanticRelevance: 0.9,
			RetrievedAt:       testNow,
		},
		types.EvidenceFragment{
			ID:                "vector_index-2",
			SourceKind:        types.SourceVectorIndex,
			Text:              text,
			SourceRef:         "doc:log#2",
			SemanticRelevance: 0.9,
			RetrievedAt:       testNow,
		},
	), "log compaction")

	require.Len(t, out.Kept, 1)
	assert.Equal(t, "vector_index-1", out.Kept[0].ID)
	require.Len(t, out.Removed, 1)
	assert.Equal(t, "vector_index-2", out.Removed[0].FragmentID)
}

func TestEvaluateKeptSortedByScoreThenRetrievedAt(t *testing.T) {
	e := newTestEvaluator()

	earlier := testNow.Add(-2 * time.Second)
	later := testNow.Add(-1 * time.Second)

	out := e.Evaluate(poolOf(
		types.EvidenceFragment{
			ID:                "memory-1",
			SourceKind:        types.SourceMemory,
			Text:              "Caching reduced the median lookup latency substantially last quarter.",
			SourceRef:         "turn:abc",
			SemanticRelevance: 0.5,
			RetrievedAt:       testNow,
		},
		types.EvidenceFragment{
			ID:                "web_search-2",
			SourceKind:        types.SourceWebSearch,
			Text:              "Benchmarks compare garbage collector pause behavior across runtime versions.",
			SourceRef:         "https://example.com/b",
			SemanticRelevance: 0.8,
			RetrievedAt:       later,
		},
		types.EvidenceFragment{
			ID:                "web_search-1",
			SourceKind:        types.SourceWebSearch,
			Text:              "Profiling identified the allocator as the dominant cost in hot paths.",
			SourceRef:         "https://example.com/a",
			SemanticRelevance: 0.8,
			RetrievedAt:       earlier,
		},
		types.EvidenceFragment{
			ID:                "vector_index-1",
			SourceKind:        types.SourceVectorIndex,
			Text:              "The scheduler assigns work items to the least loaded worker first.",
			SourceRef:         "doc:sched#0",
			SemanticRelevance: 0.9,
			RetrievedAt:       testNow,
		},
	), "performance")

	require.Len(t, out.Kept, 4)
	// vector_index-1: 0.93, web_search ties at 0.83 broken by RetrievedAt,
	// memory-1: 0.74.
	assert.Equal(t, "vector_index-1", out.Kept[0].ID)
	assert.Equal(t, "web_search-1", out.Kept[1].ID)
	assert.Equal(t, "web_search-2", out.Kept[2].ID)
	assert.Equal(t, "memory-1", out.Kept[3].ID)

	for i := 1; i < len(out.Kept); i++ {
		assert.GreaterOrEqual(t, out.Kept[i-1].QualityScore, out.Kept[i].QualityScore)
	}
}

func TestJaccard(t *testing.T) {
	a := tokenSet("the quick brown fox")
	b := tokenSet("the quick brown fox")
	assert.Equal(t, 1.0, jaccard(a, b))

	c := tokenSet("completely different words here")
	assert.Equal(t, 0.0, jaccard(a, c))

	assert.Equal(t, 0.0, jaccard(a, tokenSet("")))
}

func TestTokenSetStripsPunctuationAndCase(t *testing.T) {
	set := tokenSet("The Fox, the fox! (THE FOX)")
	assert.Equal(t, map[string]bool{"the": true, "fox": true}, set)
}
