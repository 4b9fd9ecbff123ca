package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/rubrix/internal/catalog"
	"github.com/abhisek/rubrix/internal/reference"
)

// ReferenceRepo implements reference.Persistence over SQLite.
// Embeddings are stored as JSON arrays; deactivation is a soft delete.
type ReferenceRepo struct {
	db *sql.DB
}

const referenceColumns = `id, exercise_id, submission_text, score, embedding,
	source_kind, verified, skill_category, difficulty, created_at`

func (r *ReferenceRepo) FindByExercise(ctx context.Context, exerciseID string) ([]*reference.Answer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+referenceColumns+` FROM reference_answers
		 WHERE exercise_id = ? AND active = 1
		 ORDER BY created_at`, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("query references for %s: %w", exerciseID, err)
	}
	defer rows.Close()
	return scanAnswers(rows)
}

func (r *ReferenceRepo) FindBySkillCategory(ctx context.Context, category, excludeExercise string) ([]*reference.Answer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+referenceColumns+` FROM reference_answers
		 WHERE skill_category = ? AND exercise_id != ? AND active = 1
		 ORDER BY created_at`, category, excludeExercise)
	if err != nil {
		return nil, fmt.Errorf("query references for category %s: %w", category, err)
	}
	defer rows.Close()
	return scanAnswers(rows)
}

func (r *ReferenceRepo) Insert(ctx context.Context, a *reference.Answer) (string, error) {
	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}

	embedding, err := json.Marshal(a.Embedding)
	if err != nil {
		return "", fmt.Errorf("marshal embedding: %w", err)
	}

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO reference_answers
		 (id, exercise_id, submission_text, score, embedding, source_kind,
		  verified, skill_category, difficulty, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, a.ExerciseID, a.SubmissionText, a.Score, string(embedding),
		string(a.SourceKind), a.Verified, a.SkillCategory, string(a.Difficulty), createdAt)
	if err != nil {
		return "", fmt.Errorf("insert reference: %w", err)
	}
	return id, nil
}

func (r *ReferenceRepo) MarkVerified(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reference_answers SET verified = 1 WHERE id = ? AND active = 1`, id)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return requireRow(res, id)
}

func (r *ReferenceRepo) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reference_answers SET active = 0 WHERE id = ? AND active = 1`, id)
	if err != nil {
		return fmt.Errorf("deactivate reference: %w", err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("reference %s not found", id)
	}
	return nil
}

func scanAnswers(rows *sql.Rows) ([]*reference.Answer, error) {
	var out []*reference.Answer
	for rows.Next() {
		var (
			a          reference.Answer
			embedding  string
			sourceKind string
			difficulty string
		)
		err := rows.Scan(&a.ID, &a.ExerciseID, &a.SubmissionText, &a.Score,
			&embedding, &sourceKind, &a.Verified, &a.SkillCategory,
			&difficulty, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		if err := json.Unmarshal([]byte(embedding), &a.Embedding); err != nil {
			return nil, fmt.Errorf("unmarshal embedding for %s: %w", a.ID, err)
		}
		a.SourceKind = reference.SourceKind(sourceKind)
		a.Difficulty = catalog.Difficulty(difficulty)
		out = append(out, &a)
	}
	return out, rows.Err()
}
