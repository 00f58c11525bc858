// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// webSearchAPIBase is the search endpoint. Declared as a var so tests can
// substitute an httptest server.
var webSearchAPIBase = "https://api.firecrawl.dev/v1/search"

// WebSearchAdapter queries a web-search API. A circuit breaker guards the
// backend so a flapping service fails fast inside the adapter sub-deadline
// instead of burning the whole retrieval budget.
type WebSearchAdapter struct {
	client     *http.Client
	cfg        types.WebSearchConfig
	maxResults int
	breaker    *gobreaker.CircuitBreaker
}

// NewWebSearchAdapter builds the web-search adapter.
func NewWebSearchAdapter(cfg types.WebSearchConfig, maxResults int) *WebSearchAdapter {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &WebSearchAdapter{
		client:     &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		maxResults: maxResults,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "web-search",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// Kind returns the adapter's fixed source kind.
func (a *WebSearchAdapter) Kind() types.SourceKind { return types.SourceWebSearch }

// webSearchRequest is the JSON body sent to the search API.
type webSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// webSearchResponse mirrors the fields of the API response we consume.
type webSearchResponse struct {
	Results []webSearchResult `json:"data"`
}

type webSearchResult struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Description string  `json:"description"`
	PublishedAt string  `json:"published_at"`
	Score       float64 `json:"score"`
}

// Fetch posts the question to the search API and maps results to evidence
// fragments. HTTP 429 responses are retried with backoff; repeated hard
// failures open the breaker.
func (a *WebSearchAdapter) Fetch(ctx context.Context, question string) ([]types.EvidenceFragment, error) {
	out, err := a.breaker.Execute(func() (any, error) {
		return a.search(ctx, question)
	})
	if err != nil {
		return nil, err
	}
	return out.([]types.EvidenceFragment), nil
}

func (a *WebSearchAdapter) search(ctx context.Context, question string) ([]types.EvidenceFragment, error) {
	body, err := json.Marshal(webSearchRequest{Query: question, Limit: a.maxResults})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webSearchAPIBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", a.cfg.UserAgent)
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, a.client, req, 2)
	if err != nil {
		return nil, fmt.Errorf("web search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search API returned HTTP %d", resp.StatusCode)
	}

	var parsed webSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	now := time.Now()
	total := len(parsed.Results)
	var fragments []types.EvidenceFragment
	for i, r := range parsed.Results {
		if r.Description == "" && r.Title == "" {
			continue
		}
		text := r.Description
		if text == "" {
			text = r.Title
		}

		relevance := r.Score
		if relevance <= 0 {
			relevance = positionScore(i, total)
		}

		f := types.EvidenceFragment{
			ID:                fragmentID(a.Kind(), len(fragments)+1),
			SourceKind:        a.Kind(),
			Text:              boundText(text, maxFragmentText),
			SourceRef:         r.URL,
			Title:             r.Title,
			SemanticRelevance: clampScore(relevance),
			RetrievedAt:       now,
		}
		if t, parseErr := time.Parse(time.RFC3339, r.PublishedAt); parseErr == nil {
			f.PublishedAt = t
		}

		fragments = append(fragments, f)
		if len(fragments) >= a.maxResults {
			break
		}
	}
	return fragments, nil
}
