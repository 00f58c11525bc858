// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivAdapter queries the arXiv API for academic evidence.
type ArxivAdapter struct {
	client     *http.Client
	cfg        types.AcademicConfig
	maxResults int
}

// NewArxivAdapter builds the academic-index adapter. maxResults bounds the
// fragments one Fetch may return.
func NewArxivAdapter(cfg types.AcademicConfig, maxResults int) *ArxivAdapter {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &ArxivAdapter{
		client:     &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		maxResults: maxResults,
	}
}

// Kind returns the adapter's fixed source kind.
func (a *ArxivAdapter) Kind() types.SourceKind { return types.SourceAcademicIndex }

// Fetch queries arXiv and maps feed entries to evidence fragments. The
// abstract is the evidence text; relevance is position-based since the
// feed is already sorted by relevance.
func (a *ArxivAdapter) Fetch(ctx context.Context, question string) ([]types.EvidenceFragment, error) {
	terms := strings.Fields(question)
	if len(terms) == 0 {
		return nil, nil
	}
	q := "all:" + strings.Join(terms, "+")

	reqURL := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, url.QueryEscape(q), a.maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	now := time.Now()
	total := len(feed.Entries)
	var fragments []types.EvidenceFragment
	for i, entry := range feed.Entries {
		text := strings.TrimSpace(entry.Summary)
		if text == "" {
			continue
		}

		f := types.EvidenceFragment{
			ID:                fragmentID(a.Kind(), len(fragments)+1),
			SourceKind:        a.Kind(),
			Text:              boundText(text, maxFragmentText),
			SourceRef:         strings.TrimSpace(entry.ID),
			Title:             strings.TrimSpace(entry.Title),
			SemanticRelevance: positionScore(i, total),
			RetrievedAt:       now,
		}
		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			f.PublishedAt = t
		}

		fragments = append(fragments, f)
		if len(fragments) >= a.maxResults {
			break
		}
	}
	return fragments, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
}
