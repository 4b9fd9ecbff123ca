package ensemble

import (
	"math"

	"github.com/abhisek/rubrix/internal/integrity"
	"github.com/abhisek/rubrix/internal/vectormath"
)

// Config tunes the combination.
type Config struct {
	// Default component weights. They are renormalized over the active
	// components after zeroing, so they need not sum to 1 exactly.
	JudgmentWeight  float64
	ValidatorWeight float64
	EmbeddingWeight float64

	// CopyCap is the hard ceiling applied when the submission is an
	// exact copy of the exemplar.
	CopyCap float64

	// HighRiskReduction and MediumRiskReduction are the flat fractional
	// penalties for integrity risk short of an exact copy.
	HighRiskReduction   float64
	MediumRiskReduction float64

	// PerfectSimilarity is the embedding similarity required (together
	// with a perfect validator score) for a finished 100.
	PerfectSimilarity float64
}

// DefaultConfig returns the combination defaults.
func DefaultConfig() Config {
	return Config{
		JudgmentWeight:      0.55,
		ValidatorWeight:     0.30,
		EmbeddingWeight:     0.15,
		CopyCap:             50,
		HighRiskReduction:   0.15,
		MediumRiskReduction: 0.05,
		PerfectSimilarity:   0.95,
	}
}

type component struct {
	name   string
	value  float64 // [0, 100]
	weight float64
}

// Combine blends the signals into a final score and derives confidence
// from their disagreement. No ground truth exists at scoring time, so
// the spread across independent signals is the only available proxy for
// how much to trust the blend.
func Combine(sig Signals, cfg Config) *Result {
	judgment := sig.JudgmentScore
	if sig.CrossValidationDelta != nil {
		judgment = vectormath.Clamp(judgment+*sig.CrossValidationDelta, 0, 100)
	}

	judgmentWeight := cfg.JudgmentWeight
	if sig.JudgmentWeightOverride != nil {
		judgmentWeight = *sig.JudgmentWeightOverride
	}

	embeddingWeight := cfg.EmbeddingWeight
	if !sig.HasExemplar {
		embeddingWeight = 0
	}

	components := []component{
		{ComponentJudgment, vectormath.Clamp(judgment, 0, 100), judgmentWeight},
		{ComponentValidator, vectormath.Clamp(sig.ValidatorScore, 0, 100), cfg.ValidatorWeight},
		{ComponentEmbedding, vectormath.Clamp(sig.EmbeddingSimilarity, 0, 1) * 100, embeddingWeight},
	}

	// Renormalize over the active components, then scale the core
	// weights down to make room for the reference-pool contribution.
	var active []component
	var weightSum float64
	for _, c := range components {
		if c.weight > 0 {
			active = append(active, c)
			weightSum += c.weight
		}
	}

	refWeight := vectormath.Clamp(sig.ReferenceWeight, 0, 1)
	weights := make(map[string]float64, len(active)+1)
	var combined float64
	if weightSum > 0 {
		for _, c := range active {
			w := c.weight / weightSum * (1 - refWeight)
			weights[c.name] = w
			combined += w * c.value
		}
	}
	if refWeight > 0 {
		weights[ComponentReference] = refWeight
		combined += refWeight * vectormath.Clamp(sig.ReferenceScore, 0, 100)
		active = append(active, component{ComponentReference, sig.ReferenceScore, refWeight})
	}

	stdDev, spread := dispersion(active)

	res := &Result{
		ComponentWeights: weights,
		Agreement:        int(vectormath.Clamp(math.Round(100-2*stdDev), 0, 100)),
		Confidence:       int(vectormath.Clamp(math.Round(100-1.5*stdDev-0.3*spread), 0, 100)),
	}
	switch {
	case res.Confidence >= 75:
		res.ConfidenceBand = BandHigh
	case res.Confidence >= 50:
		res.ConfidenceBand = BandMedium
	default:
		res.ConfidenceBand = BandLow
	}

	final := math.Round(combined)

	// Post-combination adjustments, in fixed order: copy cap, then risk
	// reduction, then the perfect-100 gate.
	if sig.Integrity != nil {
		switch {
		case sig.Integrity.IsExactCopy:
			final = math.Min(final, cfg.CopyCap)
		case sig.Integrity.RiskLevel == integrity.RiskHigh:
			final = math.Round(final * (1 - cfg.HighRiskReduction))
		case sig.Integrity.RiskLevel == integrity.RiskMedium:
			final = math.Round(final * (1 - cfg.MediumRiskReduction))
		}
	}

	// A perfect score must be earned on every signal, not just the
	// blended one.
	if final >= 100 && (sig.ValidatorScore < 100 || sig.EmbeddingSimilarity < cfg.PerfectSimilarity) {
		final = 99
	}

	final = vectormath.Clamp(final, 0, 100)
	res.FinalScore = int(final)
	res.RangeLo = vectormath.Clamp(final-1.5*stdDev, 0, 100)
	res.RangeHi = vectormath.Clamp(final+1.5*stdDev, 0, 100)

	return res
}

// dispersion returns the population standard deviation and the max-min
// spread of the active signal values.
func dispersion(components []component) (stdDev, spread float64) {
	if len(components) == 0 {
		return 0, 0
	}

	lo, hi := components[0].value, components[0].value
	var sum float64
	for _, c := range components {
		sum += c.value
		lo = math.Min(lo, c.value)
		hi = math.Max(hi, c.value)
	}
	mean := sum / float64(len(components))

	var variance float64
	for _, c := range components {
		d := c.value - mean
		variance += d * d
	}
	variance /= float64(len(components))

	return math.Sqrt(variance), hi - lo
}
