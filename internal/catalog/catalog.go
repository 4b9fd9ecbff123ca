// Package catalog defines the read-only exercise records the scoring
// engine consumes: rubric, skill category, difficulty, and exemplar.
package catalog

import (
	"context"

	"github.com/abhisek/rubrix/internal/rubric"
)

// Difficulty is the exercise difficulty tier.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Tier maps a difficulty to its numeric tier (easy=1, medium=2, hard=3).
// Unknown difficulties map to the middle tier.
func (d Difficulty) Tier() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 2
	}
}

// Exercise is one gradable exercise.
type Exercise struct {
	ID            string
	Title         string
	Prompt        string
	SkillCategory string
	Difficulty    Difficulty
	Exemplar      string
	Rubric        []rubric.Criterion
}

// TotalPoints sums the rubric maxima.
func (e *Exercise) TotalPoints() float64 {
	var total float64
	for _, c := range e.Rubric {
		total += c.MaxPoints
	}
	return total
}

// EmbeddingRecord is the per-exercise record used for cross-exercise
// similarity. It is recomputed when exercise content changes and never
// mutated by a scoring event.
type EmbeddingRecord struct {
	ExerciseID       string
	SkillCategory    string
	Difficulty       Difficulty
	ContentEmbedding []float64
	DerivedTags      []string
}

// Catalog is the read-only exercise lookup the engine depends on.
type Catalog interface {
	Get(ctx context.Context, exerciseID string) (*Exercise, error)
	EmbeddingRecord(ctx context.Context, exerciseID string) (*EmbeddingRecord, error)
}
