// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesize

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// maxExtractiveClaims bounds how many fragments the extractive generator
// turns into claims.
const maxExtractiveClaims = 5

// ExtractiveGenerator is the built-in deterministic generator: it lifts
// the leading sentence of the top-ranked fragments into cited claims and
// composes a bulleted summary with inline source links. Deployments with
// a generative model configured replace it; tests rely on its determinism.
type ExtractiveGenerator struct{}

// Generate builds a draft from the kept fragments without any external
// call. Fragments arrive ranked by quality, so the top ones lead.
func (ExtractiveGenerator) Generate(_ context.Context, question string, kept []types.ScoredFragment) (Draft, error) {
	if len(kept) == 0 {
		return Draft{}, fmt.Errorf("no fragments to synthesize")
	}

	n := len(kept)
	if n > maxExtractiveClaims {
		n = maxExtractiveClaims
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on %d sources, here is what the evidence says about %q:\n", len(kept), question)

	claims := make([]DraftClaim, 0, n)
	for _, f := range kept[:n] {
		line := firstSentence(f.Text)
		fmt.Fprintf(&b, "\n- %s [%s]", line, f.SourceRef)
		claims = append(claims, DraftClaim{
			Text:             line,
			CitedFragmentIDs: []string{f.ID},
			Confidence:       f.QualityScore,
		})
	}

	return Draft{Answer: b.String(), Claims: claims}, nil
}
