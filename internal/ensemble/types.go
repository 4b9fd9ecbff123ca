// Package ensemble combines the judgment, validator, and similarity
// signals into one bounded final score with a confidence estimate.
package ensemble

import "github.com/abhisek/rubrix/internal/integrity"

// Component names used in the weight map.
const (
	ComponentJudgment  = "judgment"
	ComponentValidator = "validator"
	ComponentEmbedding = "embedding"
	ComponentReference = "reference"
)

// ConfidenceBand buckets the confidence estimate.
type ConfidenceBand string

const (
	BandHigh   ConfidenceBand = "high"
	BandMedium ConfidenceBand = "medium"
	BandLow    ConfidenceBand = "low"
)

// Signals are the inputs to one combination. Scores are [0, 100];
// EmbeddingSimilarity is [0, 1] and is scaled x100 internally.
type Signals struct {
	JudgmentScore       float64
	ValidatorScore      float64
	EmbeddingSimilarity float64

	// HasExemplar gates the embedding component: without an exemplar
	// the similarity signal carries no meaning and its weight is zeroed.
	HasExemplar bool

	// ReferenceScore and ReferenceWeight fold the reference-pool signal
	// in: the pool's similarity-weighted score at the weight the
	// matcher computed (0 when the pool was empty).
	ReferenceScore  float64
	ReferenceWeight float64

	// JudgmentWeightOverride, when non-nil, replaces the default
	// judgment weight. It comes from an external consistency process
	// and is accepted opaquely.
	JudgmentWeightOverride *float64

	// CrossValidationDelta, when non-nil, is added to the judgment
	// score before combination.
	CrossValidationDelta *float64

	// Integrity, when non-nil, drives the post-combination penalty.
	Integrity *integrity.Verdict
}

// Result is one immutable combination outcome.
type Result struct {
	FinalScore       int
	Confidence       int
	ConfidenceBand   ConfidenceBand
	RangeLo          float64
	RangeHi          float64
	ComponentWeights map[string]float64
	Agreement        int
}
