// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SourceStatus is the per-adapter outcome reported in a StructuredAnswer.
type SourceStatus string

const (
	StatusSucceeded SourceStatus = "succeeded"
	StatusFailed    SourceStatus = "failed"
	StatusTimedOut  SourceStatus = "timed_out"
)

// KeyClaim is one evidence-backed statement in an answer. CitedFragmentIDs
// is non-empty and references only fragments kept by the evaluator.
type KeyClaim struct {
	ClaimText        string   `json:"claim_text" yaml:"claim_text"`
	CitedFragmentIDs []string `json:"cited_fragment_ids" yaml:"cited_fragment_ids"`
	Confidence       float64  `json:"confidence" yaml:"confidence"`
}

// StructuredAnswer is the terminal artifact of the pipeline. Downstream
// persistence is fire-and-forget and does not mutate it.
type StructuredAnswer struct {
	// MainAnswer is prose with inline source links. When no evidence
	// survives filtering it is the canonical no-evidence message.
	MainAnswer string `json:"main_answer" yaml:"main_answer"`

	// KeyClaims are the individual cited statements behind MainAnswer.
	KeyClaims []KeyClaim `json:"key_claims" yaml:"key_claims"`

	// OverallConfidence is the source-count-weighted mean of the claim
	// confidences, in [0,1]. Zero when KeyClaims is empty.
	OverallConfidence float64 `json:"overall_confidence" yaml:"overall_confidence"`

	// SourceAvailability states, per configured kind, whether the adapter
	// contributed, failed, or timed out. Copied verbatim from the
	// orchestrator's bookkeeping.
	SourceAvailability map[SourceKind]SourceStatus `json:"source_availability" yaml:"source_availability"`

	// ContradictionsNoted echoes the evaluator's contradiction records.
	ContradictionsNoted []ContradictionRecord `json:"contradictions_noted" yaml:"contradictions_noted"`

	// Degraded marks answers produced with a fallback path (synthesis
	// failure) or with zero evidence.
	Degraded bool `json:"degraded,omitempty" yaml:"degraded,omitempty"`

	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}

// AskRequest is the payload the pipeline exposes upward (API or CLI).
type AskRequest struct {
	QuestionText string `json:"question_text" validate:"required,min=1,max=5000"`
	UserID       string `json:"user_id" validate:"required"`
	SessionID    string `json:"session_id" validate:"required"`
}
