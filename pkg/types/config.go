// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by adapters that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-assistant/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RetrievalConfig holds settings for the orchestrator's adapter fan-out.
type RetrievalConfig struct {
	// OverallBudget bounds the whole fan-out (default 30s). Adapters still
	// outstanding at the deadline are cancelled and recorded as timed out.
	OverallBudget time.Duration `json:"overall_budget" yaml:"overall_budget" mapstructure:"overall_budget"`

	// AdapterTimeout is the sub-deadline applied to each adapter call
	// (default 7s).
	AdapterTimeout time.Duration `json:"adapter_timeout" yaml:"adapter_timeout" mapstructure:"adapter_timeout"`

	// MaxFragmentsPerSource caps how many fragments one adapter may
	// contribute (default 5).
	MaxFragmentsPerSource int `json:"max_fragments_per_source" yaml:"max_fragments_per_source" mapstructure:"max_fragments_per_source"`
}

// EvaluationConfig holds the quality-function settings.
type EvaluationConfig struct {
	// QualityThreshold is the minimum score a fragment needs to be kept
	// (default 0.6).
	QualityThreshold float64 `json:"quality_threshold" yaml:"quality_threshold" mapstructure:"quality_threshold"`

	// RedundancyOverlap is the Jaccard token-overlap above which a
	// fragment is a duplicate of an earlier, more relevant one (default 0.8).
	RedundancyOverlap float64 `json:"redundancy_overlap" yaml:"redundancy_overlap" mapstructure:"redundancy_overlap"`

	// ReputationWeights maps each source kind to its fixed reputation
	// component. Kinds absent from the map use DefaultReputation.
	ReputationWeights map[SourceKind]float64 `json:"reputation_weights" yaml:"reputation_weights" mapstructure:"reputation_weights"`

	// FreshWindow is the age under which a source scores full recency
	// (default 30 days).
	FreshWindow time.Duration `json:"fresh_window" yaml:"fresh_window" mapstructure:"fresh_window"`

	// MaxAge is the window over which recency decays linearly from 1.0
	// down to RecencyFloor (default 2 years).
	MaxAge time.Duration `json:"max_age" yaml:"max_age" mapstructure:"max_age"`

	// RecencyFloor is the minimum recency component (default 0.2).
	RecencyFloor float64 `json:"recency_floor" yaml:"recency_floor" mapstructure:"recency_floor"`
}

// DefaultReputation is used for kinds missing from ReputationWeights.
const DefaultReputation = 0.5

// DefaultReputationWeights returns the stock per-kind reputation table.
func DefaultReputationWeights() map[SourceKind]float64 {
	return map[SourceKind]float64{
		SourceVectorIndex:   0.9,
		SourceAcademicIndex: 0.85,
		SourceMemory:        0.8,
		SourceWebSearch:     0.7,
	}
}

// SynthesisConfig holds settings for answer generation.
type SynthesisConfig struct {
	// Model is the generative model identifier used by the external
	// generator, when one is configured.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates the generator call. Empty selects the built-in
	// extractive generator.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts for failed generator
	// calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MaxAnswerLength bounds MainAnswer in characters (default 5000).
	MaxAnswerLength int `json:"max_answer_length" yaml:"max_answer_length" mapstructure:"max_answer_length"`
}

// WebSearchConfig holds settings for the web-search adapter.
type WebSearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Enabled controls whether the adapter is wired into the fan-out.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// APIKey authenticates against the search API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// AcademicConfig holds settings for the academic-index (arXiv) adapter.
type AcademicConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Enabled controls whether the adapter is wired into the fan-out.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// MemoryConfig holds settings for the conversation memory store.
type MemoryConfig struct {
	// DBPath is the SQLite database file (default "data/memory.db").
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	// MaxResults is the default maximum number of turns returned by a
	// memory search (default 5).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// DocIndexConfig holds settings for the local document chunk index.
type DocIndexConfig struct {
	// DBPath is the SQLite database file (default "data/docindex.db").
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	// MaxResults is the default maximum number of chunks returned by an
	// index search (default 5).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ServerConfig holds settings for the HTTP boundary.
type ServerConfig struct {
	// ListenAddr is the address the API server binds (default ":8080").
	ListenAddr string `json:"listen_addr" yaml:"listen_addr" mapstructure:"listen_addr"`
}

// Config groups all component configurations. It is loaded once at process
// start and passed read-only into the constructors; nothing reads ambient
// global state at request time.
type Config struct {
	Retrieval  RetrievalConfig  `json:"retrieval" yaml:"retrieval" mapstructure:"retrieval"`
	Evaluation EvaluationConfig `json:"evaluation" yaml:"evaluation" mapstructure:"evaluation"`
	Synthesis  SynthesisConfig  `json:"synthesis" yaml:"synthesis" mapstructure:"synthesis"`
	WebSearch  WebSearchConfig  `json:"web_search" yaml:"web_search" mapstructure:"web_search"`
	Academic   AcademicConfig   `json:"academic" yaml:"academic" mapstructure:"academic"`
	Memory     MemoryConfig     `json:"memory" yaml:"memory" mapstructure:"memory"`
	DocIndex   DocIndexConfig   `json:"doc_index" yaml:"doc_index" mapstructure:"doc_index"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
}

// DefaultConfig returns the stock configuration. Callers overlay file and
// environment values on top of it.
func DefaultConfig() Config {
	return Config{
		Retrieval: RetrievalConfig{
			OverallBudget:         30 * time.Second,
			AdapterTimeout:        7 * time.Second,
			MaxFragmentsPerSource: 5,
		},
		Evaluation: EvaluationConfig{
			QualityThreshold:  0.6,
			RedundancyOverlap: 0.8,
			ReputationWeights: DefaultReputationWeights(),
			FreshWindow:       30 * 24 * time.Hour,
			MaxAge:            2 * 365 * 24 * time.Hour,
			RecencyFloor:      0.2,
		},
		Synthesis: SynthesisConfig{
			MaxRetries:      3,
			MaxAnswerLength: 5000,
		},
		WebSearch: WebSearchConfig{
			HTTPConfig: HTTPConfig{Timeout: 6 * time.Second, UserAgent: "research-assistant/0.1"},
			Enabled:    true,
		},
		Academic: AcademicConfig{
			HTTPConfig: HTTPConfig{Timeout: 6 * time.Second, UserAgent: "research-assistant/0.1"},
			Enabled:    true,
		},
		Memory:   MemoryConfig{DBPath: "data/memory.db", MaxResults: 5},
		DocIndex: DocIndexConfig{DBPath: "data/docindex.db", MaxResults: 5},
		Server:   ServerConfig{ListenAddr: ":8080"},
	}
}
