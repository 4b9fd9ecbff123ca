package store

import (
	"database/sql"
	"fmt"
)

// migrate creates missing tables. Statements are idempotent so opening
// an existing database is a no-op.
func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS exercises (
			id             TEXT PRIMARY KEY,
			title          TEXT NOT NULL,
			prompt         TEXT NOT NULL,
			skill_category TEXT NOT NULL,
			difficulty     TEXT NOT NULL,
			exemplar       TEXT NOT NULL DEFAULT '',
			rubric         TEXT NOT NULL,
			embedding      TEXT NOT NULL DEFAULT '[]',
			derived_tags   TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exercises_skill ON exercises (skill_category)`,

		`CREATE TABLE IF NOT EXISTS reference_answers (
			id              TEXT PRIMARY KEY,
			exercise_id     TEXT NOT NULL,
			submission_text TEXT NOT NULL,
			score           REAL NOT NULL,
			embedding       TEXT NOT NULL,
			source_kind     TEXT NOT NULL,
			verified        INTEGER NOT NULL DEFAULT 0,
			active          INTEGER NOT NULL DEFAULT 1,
			skill_category  TEXT NOT NULL,
			difficulty      TEXT NOT NULL,
			created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_references_exercise ON reference_answers (exercise_id, active)`,
		`CREATE INDEX IF NOT EXISTS idx_references_skill ON reference_answers (skill_category, active)`,

		`CREATE TABLE IF NOT EXISTS llm_request_events (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			sequence      INTEGER NOT NULL,
			timestamp     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			provider      TEXT NOT NULL,
			model         TEXT NOT NULL,
			purpose       TEXT NOT NULL,
			input_tokens  INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			latency_ms    INTEGER NOT NULL DEFAULT 0,
			success       INTEGER NOT NULL DEFAULT 1,
			error_message TEXT NOT NULL DEFAULT '',
			request_body  TEXT NOT NULL DEFAULT '',
			response_body TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_llm_events_sequence ON llm_request_events (sequence)`,

		`CREATE TABLE IF NOT EXISTS scoring_events (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			sequence         INTEGER NOT NULL,
			timestamp        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			exercise_id      TEXT NOT NULL,
			final_score      REAL NOT NULL,
			confidence       REAL NOT NULL,
			confidence_band  TEXT NOT NULL,
			risk_level       TEXT NOT NULL,
			integrity_flags  TEXT NOT NULL DEFAULT '[]',
			rubric_errors    INTEGER NOT NULL DEFAULT 0,
			reference_pool   INTEGER NOT NULL DEFAULT 0,
			cross_fallback   INTEGER NOT NULL DEFAULT 0,
			latency_ms       INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scoring_events_sequence ON scoring_events (sequence)`,
		`CREATE INDEX IF NOT EXISTS idx_scoring_events_exercise ON scoring_events (exercise_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}
