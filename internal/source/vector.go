// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/research-assistant/internal/docindex"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// VectorAdapter retrieves evidence from the local document chunk index.
type VectorAdapter struct {
	index      *docindex.Index
	maxResults int
}

// NewVectorAdapter builds the vector-index adapter over an opened index.
func NewVectorAdapter(index *docindex.Index, maxResults int) *VectorAdapter {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &VectorAdapter{index: index, maxResults: maxResults}
}

// Kind returns the adapter's fixed source kind.
func (a *VectorAdapter) Kind() types.SourceKind { return types.SourceVectorIndex }

// Fetch searches the chunk index and maps matches to evidence fragments.
// Relevance is position-based from the index ranking.
func (a *VectorAdapter) Fetch(ctx context.Context, question string) ([]types.EvidenceFragment, error) {
	chunks, err := a.index.Search(ctx, question, a.maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching document index: %w", err)
	}

	now := time.Now()
	total := len(chunks)
	fragments := make([]types.EvidenceFragment, 0, total)
	for i, c := range chunks {
		fragments = append(fragments, types.EvidenceFragment{
			ID:                fragmentID(a.Kind(), i+1),
			SourceKind:        a.Kind(),
			Text:              boundText(c.Text, maxFragmentText),
			SourceRef:         c.ID,
			Title:             c.Title,
			PublishedAt:       c.PublishedAt,
			SemanticRelevance: positionScore(i, total),
			RetrievedAt:       now,
		})
	}
	return fragments, nil
}
