package rubric

// Config tunes reconciliation behavior.
type Config struct {
	// FuzzyMatching enables edit-distance matching of judge labels that
	// have no exact canonical counterpart.
	FuzzyMatching bool

	// MatchThreshold is the minimum fuzzy similarity for a label to
	// claim a canonical criterion.
	MatchThreshold float64

	// AutoCorrectPoints clamps over-max awarded points down to the
	// criterion max. Negative points are always clamped to zero.
	AutoCorrectPoints bool

	// DivergenceThreshold is the absolute difference between the
	// judge's claimed overall score and the rubric-derived percentage
	// above which a score_mismatch warning is raised.
	DivergenceThreshold float64

	// ScoreAutoCorrect replaces the claimed overall score with the
	// rubric-derived percentage when the divergence threshold is
	// exceeded. Off by default: mismatches are surfaced for review,
	// not silently fixed.
	ScoreAutoCorrect bool

	// BlendThreshold and BlendWeight drive BlendedScore: divergence
	// must exceed BlendThreshold before any blending happens, and
	// BlendWeight is the fraction taken from the rubric-derived
	// percentage. The two-threshold split (flag at 5, correct at 10)
	// keeps small drift visible without correcting on noise.
	BlendThreshold float64
	BlendWeight    float64
}

// DefaultConfig returns the reconciliation defaults.
func DefaultConfig() Config {
	return Config{
		FuzzyMatching:       true,
		MatchThreshold:      0.7,
		AutoCorrectPoints:   true,
		DivergenceThreshold: 5,
		ScoreAutoCorrect:    false,
		BlendThreshold:      10,
		BlendWeight:         0.3,
	}
}
