// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source implements the four evidence adapters behind a single
// interface. Each adapter queries one backing service (local document
// index, web search, arXiv, or conversation memory) and returns a bounded
// list of evidence fragments, or fails safely within its deadline.
package source

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Adapter retrieves evidence fragments for a question from one source kind.
// Implementations form a closed set selected by static configuration, one
// per types.SourceKind, per the Strategy pattern.
//
// Fetch must respect ctx cancellation and never block past its deadline.
// When no results exist it returns (nil, nil) rather than an error. Every
// returned fragment is tagged with the adapter's fixed kind.
type Adapter interface {
	Kind() types.SourceKind
	Fetch(ctx context.Context, question string) ([]types.EvidenceFragment, error)
}

// fragmentID builds a kind-prefixed id unique within a request.
func fragmentID(kind types.SourceKind, n int) string {
	return fmt.Sprintf("%s-%d", kind, n)
}

// clampScore bounds a relevance value to [0,1].
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// positionScore assigns a relevance in [0.1, 1.0] from a result's rank
// when the backend reports ordering but no score.
func positionScore(i, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(i)/float64(total-1)*0.9
}

// boundText truncates evidence text to max runes, appending an ellipsis.
// It slices on rune boundaries so multi-byte text stays valid.
func boundText(s string, max int) string {
	if max <= 3 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}

// maxFragmentText bounds the length of one fragment's text.
const maxFragmentText = 4000
