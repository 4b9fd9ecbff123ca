package reference

// Config tunes pool queries, fallback, insertion, and the ensemble
// weight contribution.
type Config struct {
	// QualityThreshold is the minimum score for a submission to enter
	// the reference bank.
	QualityThreshold float64

	// TopK caps the resolved pool size.
	TopK int

	// MatchThreshold is the similarity at or above which an entry
	// counts as a "good match". Lower-similarity entries still
	// participate in averages.
	MatchThreshold float64

	// MinDirectPool is the direct-pool size below which cross-exercise
	// fallback is attempted.
	MinDirectPool int

	// FallbackPenalty is subtracted from a cross-exercise candidate's
	// similarity: evidence from another exercise context is less
	// comparable.
	FallbackPenalty float64

	// SameDifficultyBonus is added back when the candidate's exercise
	// shares the submission's difficulty tier.
	SameDifficultyBonus float64

	// FallbackMinSimilarity is the stricter floor fallback candidates
	// must clear after adjustment.
	FallbackMinSimilarity float64

	// FallbackWeight discounts cross-exercise entries in weighted
	// aggregates even after they pass the similarity bar.
	FallbackWeight float64

	// DuplicateThreshold rejects insertions whose embedding is this
	// similar to an existing active reference.
	DuplicateThreshold float64

	// Ensemble weight contribution: BaseWeight plus VerifiedBonus per
	// verified reference (capped at VerifiedBonusCap), plus size
	// bonuses, capped overall at WeightCap.
	BaseWeight       float64
	VerifiedBonus    float64
	VerifiedBonusCap float64
	WeightCap        float64
}

// DefaultConfig returns the reference-pool defaults.
func DefaultConfig() Config {
	return Config{
		QualityThreshold:      80,
		TopK:                  10,
		MatchThreshold:        0.70,
		MinDirectPool:         3,
		FallbackPenalty:       0.10,
		SameDifficultyBonus:   0.05,
		FallbackMinSimilarity: 0.60,
		FallbackWeight:        0.7,
		DuplicateThreshold:    0.95,
		BaseWeight:            0.10,
		VerifiedBonus:         0.01,
		VerifiedBonusCap:      0.05,
		WeightCap:             0.20,
	}
}
