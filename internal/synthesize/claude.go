// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/template"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// synthesisPromptTmpl is the prompt sent to the Claude API to turn the kept
// evidence into a cited answer. It requires a fragment-id citation on every
// claim and forbids resolving conflicting evidence.
var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(`You are a research answer synthesis system. Answer the question below using only the evidence fragments provided.

Rules:
- Use only the evidence fragments. Do not add outside knowledge.
- Every claim must cite at least one fragment id from the list. Claims without citations are discarded.
- When fragments conflict, report both sides. Do not pick a winner.

Respond with a JSON object containing:
- "answer": a prose answer to the question
- "claims": an array where each element has "text" (one claim), "cited_fragment_ids" (ids from the fragment list), and "confidence" (a float between 0.0 and 1.0)

Do not include any text outside the JSON object.

Example response:
{"answer": "The maximum throughput is 100 requests per second.", "claims": [{"text": "The maximum throughput is 100 requests per second.", "cited_fragment_ids": ["vector_index-0"], "confidence": 0.9}]}

Question:
{{.Question}}

Evidence fragments:
{{range .Fragments}}[{{.ID}}] ({{.SourceRef}}) {{.Text}}
{{end}}`))

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeGenerator calls the Claude Messages API to draft the answer. It is
// selected when a model API key is configured; otherwise the built-in
// extractive generator runs.
type ClaudeGenerator struct {
	APIKey string
	Model  string
	Client *http.Client
}

// NewClaudeGenerator builds a generator from the synthesis configuration.
func NewClaudeGenerator(cfg types.SynthesisConfig) *ClaudeGenerator {
	return &ClaudeGenerator{APIKey: cfg.APIKey, Model: cfg.Model}
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// claudeDraft is the JSON shape the prompt asks the model to produce.
type claudeDraft struct {
	Answer string        `json:"answer"`
	Claims []claudeClaim `json:"claims"`
}

type claudeClaim struct {
	Text             string   `json:"text"`
	CitedFragmentIDs []string `json:"cited_fragment_ids"`
	Confidence       float64  `json:"confidence"`
}

// Generate sends the synthesis prompt for one question and parses the
// model's JSON draft. Errors here feed the caller's retry and, after that,
// the raw-evidence fallback.
func (g *ClaudeGenerator) Generate(ctx context.Context, question string, kept []types.ScoredFragment) (Draft, error) {
	prompt, err := renderSynthesisPrompt(question, kept)
	if err != nil {
		return Draft{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := claudeRequest{
		Model:     g.Model,
		MaxTokens: 4096,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Draft{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return Draft{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Draft{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Draft{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return Draft{}, fmt.Errorf("decoding Claude response: %w", err)
	}

	if len(cResp.Content) == 0 {
		return Draft{}, fmt.Errorf("Claude API returned empty content")
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		var cd claudeDraft
		if err := json.Unmarshal([]byte(block.Text), &cd); err != nil {
			return Draft{}, fmt.Errorf("parsing draft JSON: %w", err)
		}
		return cd.toDraft(), nil
	}

	return Draft{}, fmt.Errorf("no text content in Claude API response")
}

func (d claudeDraft) toDraft() Draft {
	out := Draft{Answer: d.Answer}
	for _, c := range d.Claims {
		out.Claims = append(out.Claims, DraftClaim{
			Text:             c.Text,
			CitedFragmentIDs: c.CitedFragmentIDs,
			Confidence:       c.Confidence,
		})
	}
	return out
}

// renderSynthesisPrompt executes the prompt template over the question and
// the kept fragments.
func renderSynthesisPrompt(question string, kept []types.ScoredFragment) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Question  string
		Fragments []types.ScoredFragment
	}{Question: question, Fragments: kept}
	if err := synthesisPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
