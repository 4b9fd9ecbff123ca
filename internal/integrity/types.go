// Package integrity scores a submission for signs of copying, low
// effort, or gaming. Detection is a rule cascade, not a weighted score:
// rules are evaluated independently but the final risk tier is decided
// in priority order and the first matching tier wins.
package integrity

import "time"

// RiskLevel is the detector's overall assessment.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Flag names recorded on a Verdict.
const (
	FlagExactCopy    = "exact_copy"
	FlagTooShort     = "too_short"
	FlagRepetitive   = "repetitive"
	FlagTooFast      = "too_fast"
	FlagPlaceholders = "unfilled_placeholders"
)

// Input carries everything the detector evaluates. Exemplar and the
// duration pair are optional; rules that need absent inputs simply do
// not fire.
type Input struct {
	Submission          string
	Exemplar            string
	EmbeddingSimilarity float64 // similarity to the exemplar, [0, 1]
	Duration            time.Duration
	ExpectedMinDuration time.Duration
}

// Signals are the structured counters backing the verdict.
type Signals struct {
	WordCount             int
	SentenceCount         int
	DistinctSentenceRatio float64
	LowEffortIndicators   int
}

// Verdict is the detector's output, computed fresh per scoring event.
type Verdict struct {
	RiskLevel        RiskLevel
	Flags            []string
	Signals          Signals
	IsExactCopy      bool
	IsLikelyOriginal bool
}
