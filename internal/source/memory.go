// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/research-assistant/internal/memory"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// MemoryAdapter retrieves evidence from prior conversation turns.
type MemoryAdapter struct {
	store      *memory.Store
	maxResults int
}

// NewMemoryAdapter builds the memory adapter over an opened store.
func NewMemoryAdapter(store *memory.Store, maxResults int) *MemoryAdapter {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &MemoryAdapter{store: store, maxResults: maxResults}
}

// Kind returns the adapter's fixed source kind.
func (a *MemoryAdapter) Kind() types.SourceKind { return types.SourceMemory }

// Fetch searches stored turns and maps matches to evidence fragments.
// The persisted answer text is the evidence; the turn's creation time
// doubles as its publication date so recency scoring applies.
func (a *MemoryAdapter) Fetch(ctx context.Context, question string) ([]types.EvidenceFragment, error) {
	turns, err := a.store.Search(ctx, question, a.maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching memory: %w", err)
	}

	now := time.Now()
	total := len(turns)
	fragments := make([]types.EvidenceFragment, 0, total)
	for i, t := range turns {
		fragments = append(fragments, types.EvidenceFragment{
			ID:                fragmentID(a.Kind(), i+1),
			SourceKind:        a.Kind(),
			Text:              boundText(t.Answer, maxFragmentText),
			SourceRef:         "turn:" + t.ID,
			Title:             t.Question,
			PublishedAt:       t.CreatedAt,
			SemanticRelevance: positionScore(i, total),
			RetrievedAt:       now,
		})
	}
	return fragments, nil
}
