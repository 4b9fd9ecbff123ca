// Package config loads engine-wide settings. Provider credentials stay
// in the llm package; this covers storage paths and scoring tunables.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// DBPath overrides the default database location when set.
	DBPath string `koanf:"db_path"`

	// EmbeddingCacheSize bounds the in-memory embedding cache.
	EmbeddingCacheSize int `koanf:"embedding_cache_size"`

	// WorkerCount sets the number of concurrent scoring signal workers.
	WorkerCount int `koanf:"worker_count"`

	// ClusterQueueSize bounds the async cluster update queue.
	ClusterQueueSize int `koanf:"cluster_queue_size"`

	// ScoreAutoCorrect replaces a divergent claimed score with the
	// rubric-derived score instead of blending.
	ScoreAutoCorrect bool `koanf:"score_auto_correct"`

	// FuzzyMatching enables fuzzy rubric label matching.
	FuzzyMatching bool `koanf:"fuzzy_matching"`

	// MatchThreshold is the minimum fuzzy similarity for a label match.
	MatchThreshold float64 `koanf:"match_threshold"`

	// QualityThreshold is the minimum score for a submission to join
	// the reference bank.
	QualityThreshold float64 `koanf:"quality_threshold"`

	// ReferenceTopK caps the comparison pool size.
	ReferenceTopK int `koanf:"reference_top_k"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		EmbeddingCacheSize: 512,
		WorkerCount:        runtime.NumCPU(),
		ClusterQueueSize:   256,
		FuzzyMatching:      true,
		MatchThreshold:     0.7,
		QualityThreshold:   80,
		ReferenceTopK:      10,
	}
}
