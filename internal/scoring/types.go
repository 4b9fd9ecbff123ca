package scoring

import (
	"time"

	"github.com/abhisek/rubrix/internal/catalog"
	"github.com/abhisek/rubrix/internal/ensemble"
	"github.com/abhisek/rubrix/internal/integrity"
	"github.com/abhisek/rubrix/internal/judge"
	"github.com/abhisek/rubrix/internal/reference"
	"github.com/abhisek/rubrix/internal/rubric"
)

// Request is one submission to score.
type Request struct {
	ExerciseID string
	Submission string

	// Duration and ExpectedMinDuration feed the too-fast integrity
	// rule. Zero values disable it.
	Duration            time.Duration
	ExpectedMinDuration time.Duration

	// ClusterID routes the final score to a skill cluster. Empty
	// defaults to the exercise's skill category.
	ClusterID string

	// JudgmentWeightOverride and CrossValidationDelta come from an
	// external consistency process and are passed through opaquely.
	JudgmentWeightOverride *float64
	CrossValidationDelta   *float64
}

// Result is the full outcome of one scoring run.
type Result struct {
	Exercise   *catalog.Exercise
	Judgment   *judge.Judgment
	Rubric     *rubric.Result
	Blended    float64
	Integrity  integrity.Verdict
	References *reference.PoolResult
	Ensemble   *ensemble.Result
	Elapsed    time.Duration

	// BankedAsReference reports whether this submission entered the
	// reference bank; BankDecision carries the gate's reason when not.
	BankedAsReference bool
	BankDecision      string
}
