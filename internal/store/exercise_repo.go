package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/rubrix/internal/catalog"
	"github.com/abhisek/rubrix/internal/rubric"
)

// ErrExerciseNotFound is returned when an exercise ID has no row.
var ErrExerciseNotFound = errors.New("exercise not found")

// ExerciseRepo implements catalog.Catalog over SQLite and adds write
// access for loading exercises and refreshing their embeddings.
type ExerciseRepo struct {
	db *sql.DB
}

func (r *ExerciseRepo) Get(ctx context.Context, exerciseID string) (*catalog.Exercise, error) {
	var (
		ex        catalog.Exercise
		rubricRaw string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, prompt, skill_category, difficulty, exemplar, rubric
		 FROM exercises WHERE id = ?`, exerciseID).
		Scan(&ex.ID, &ex.Title, &ex.Prompt, &ex.SkillCategory, &ex.Difficulty,
			&ex.Exemplar, &rubricRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrExerciseNotFound, exerciseID)
	}
	if err != nil {
		return nil, fmt.Errorf("query exercise %s: %w", exerciseID, err)
	}

	if err := json.Unmarshal([]byte(rubricRaw), &ex.Rubric); err != nil {
		return nil, fmt.Errorf("unmarshal rubric for %s: %w", exerciseID, err)
	}
	return &ex, nil
}

func (r *ExerciseRepo) EmbeddingRecord(ctx context.Context, exerciseID string) (*catalog.EmbeddingRecord, error) {
	var (
		rec          catalog.EmbeddingRecord
		embeddingRaw string
		tagsRaw      string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, skill_category, difficulty, embedding, derived_tags
		 FROM exercises WHERE id = ?`, exerciseID).
		Scan(&rec.ExerciseID, &rec.SkillCategory, &rec.Difficulty, &embeddingRaw, &tagsRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrExerciseNotFound, exerciseID)
	}
	if err != nil {
		return nil, fmt.Errorf("query embedding record %s: %w", exerciseID, err)
	}

	if err := json.Unmarshal([]byte(embeddingRaw), &rec.ContentEmbedding); err != nil {
		return nil, fmt.Errorf("unmarshal embedding for %s: %w", exerciseID, err)
	}
	if err := json.Unmarshal([]byte(tagsRaw), &rec.DerivedTags); err != nil {
		return nil, fmt.Errorf("unmarshal tags for %s: %w", exerciseID, err)
	}
	return &rec, nil
}

// Put inserts or replaces an exercise. The content embedding and tags
// are stored alongside so EmbeddingRecord lookups stay one query.
func (r *ExerciseRepo) Put(ctx context.Context, ex *catalog.Exercise, embedding []float64, tags []string) error {
	rubricRaw, err := json.Marshal(ex.Rubric)
	if err != nil {
		return fmt.Errorf("marshal rubric: %w", err)
	}
	embeddingRaw, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	tagsRaw, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO exercises (id, title, prompt, skill_category, difficulty, exemplar, rubric, embedding, derived_tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			prompt = excluded.prompt,
			skill_category = excluded.skill_category,
			difficulty = excluded.difficulty,
			exemplar = excluded.exemplar,
			rubric = excluded.rubric,
			embedding = excluded.embedding,
			derived_tags = excluded.derived_tags`,
		ex.ID, ex.Title, ex.Prompt, ex.SkillCategory, string(ex.Difficulty),
		ex.Exemplar, string(rubricRaw), string(embeddingRaw), string(tagsRaw))
	if err != nil {
		return fmt.Errorf("upsert exercise %s: %w", ex.ID, err)
	}
	return nil
}

// List returns all exercises ordered by ID.
func (r *ExerciseRepo) List(ctx context.Context) ([]*catalog.Exercise, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, prompt, skill_category, difficulty, exemplar, rubric
		 FROM exercises ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Exercise
	for rows.Next() {
		var (
			ex        catalog.Exercise
			rubricRaw string
		)
		err := rows.Scan(&ex.ID, &ex.Title, &ex.Prompt, &ex.SkillCategory,
			&ex.Difficulty, &ex.Exemplar, &rubricRaw)
		if err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		var criteria []rubric.Criterion
		if err := json.Unmarshal([]byte(rubricRaw), &criteria); err != nil {
			return nil, fmt.Errorf("unmarshal rubric for %s: %w", ex.ID, err)
		}
		ex.Rubric = criteria
		out = append(out, &ex)
	}
	return out, rows.Err()
}
