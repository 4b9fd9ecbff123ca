// Package reference maintains and queries the bank of high-scoring
// reference answers a new submission is compared against.
package reference

import (
	"context"
	"time"

	"github.com/abhisek/rubrix/internal/catalog"
)

// SourceKind records how a reference answer entered the bank.
type SourceKind string

const (
	SourceLearner SourceKind = "learner-submitted"
	SourceCurated SourceKind = "curated"
	SourceSeed    SourceKind = "seed-example"
)

// Answer is one stored reference answer. It is inserted once, may be
// promoted to verified by an external reviewer, and may be deactivated,
// but the engine never hard-deletes it.
type Answer struct {
	ID             string
	ExerciseID     string
	SubmissionText string
	Score          float64
	Embedding      []float64
	SourceKind     SourceKind
	Verified       bool
	SkillCategory  string
	Difficulty     catalog.Difficulty
	CreatedAt      time.Time
}

// PoolMatch is one reference answer scored against a submission
// embedding. Similarity is the adjusted value after any cross-exercise
// penalty and difficulty bonus; RawSimilarity is the unadjusted cosine.
type PoolMatch struct {
	Answer        *Answer
	Similarity    float64
	RawSimilarity float64
	CrossExercise bool
}

// PoolResult summarizes the resolved comparison pool.
type PoolResult struct {
	Matches        []PoolMatch
	PoolSize       int
	AvgSimilarity  float64
	BestSimilarity float64
	BestScore      float64
	GoodMatches    int
	WeightedScore  float64
	Percentile     int
	EnsembleWeight float64

	UsedCrossExerciseFallback bool
}

// Persistence is the injected storage collaborator. Keyed lookups only;
// timeouts and retries are the implementation's concern.
type Persistence interface {
	// FindByExercise returns the active references for an exercise.
	FindByExercise(ctx context.Context, exerciseID string) ([]*Answer, error)

	// FindBySkillCategory returns active references for other exercises
	// in the same skill category, excluding excludeExercise.
	FindBySkillCategory(ctx context.Context, category, excludeExercise string) ([]*Answer, error)

	// Insert stores a new reference and returns its id.
	Insert(ctx context.Context, a *Answer) (string, error)

	// MarkVerified promotes a reference to verified.
	MarkVerified(ctx context.Context, id string) error

	// Deactivate soft-deletes a reference.
	Deactivate(ctx context.Context, id string) error
}
