package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// eventRepo implements EventRepo backed by raw SQL and the global
// sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO llm_request_events
		 (sequence, timestamp, provider, model, purpose, input_tokens,
		  output_tokens, latency_ms, success, error_message, request_body, response_body)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().UTC(), data.Provider, data.Model, data.Purpose,
		data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
		data.ErrorMessage, data.RequestBody, data.ResponseBody)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendScoring(ctx context.Context, data ScoringEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}

	flags := data.IntegrityFlags
	if flags == nil {
		flags = []string{}
	}
	flagsRaw, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("marshal integrity flags: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO scoring_events
		 (sequence, timestamp, exercise_id, final_score, confidence,
		  confidence_band, risk_level, integrity_flags, rubric_errors,
		  reference_pool, cross_fallback, latency_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().UTC(), data.ExerciseID, data.FinalScore,
		data.Confidence, data.ConfidenceBand, data.RiskLevel, string(flagsRaw),
		data.RubricErrors, data.ReferencePoolSize, data.CrossExerciseFallback,
		data.LatencyMs)
	if err != nil {
		return fmt.Errorf("save scoring event: %w", err)
	}
	return nil
}

func (r *eventRepo) ListLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	query := `SELECT id, sequence, timestamp, provider, model, purpose,
		input_tokens, output_tokens, latency_ms, success, error_message,
		request_body, response_body
		FROM llm_request_events` + buildWhere(opts) + ` ORDER BY sequence DESC` + buildLimit(opts)

	rows, err := r.db.QueryContext(ctx, query, buildArgs(opts)...)
	if err != nil {
		return nil, fmt.Errorf("query LLM request events: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEvent
	for rows.Next() {
		var e LLMRequestEvent
		err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.Provider,
			&e.Model, &e.Purpose, &e.InputTokens, &e.OutputTokens,
			&e.LatencyMs, &e.Success, &e.ErrorMessage, &e.RequestBody,
			&e.ResponseBody)
		if err != nil {
			return nil, fmt.Errorf("scan LLM request event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMRequest(ctx context.Context, id int64) (*LLMRequestEvent, error) {
	var e LLMRequestEvent
	err := r.db.QueryRowContext(ctx,
		`SELECT id, sequence, timestamp, provider, model, purpose,
		 input_tokens, output_tokens, latency_ms, success, error_message,
		 request_body, response_body
		 FROM llm_request_events WHERE id = ?`, id).
		Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.Provider, &e.Model,
			&e.Purpose, &e.InputTokens, &e.OutputTokens, &e.LatencyMs,
			&e.Success, &e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM request event: %w", err)
	}
	return &e, nil
}

func (r *eventRepo) ListScoring(ctx context.Context, opts QueryOpts) ([]ScoringEvent, error) {
	query := `SELECT id, sequence, timestamp, exercise_id, final_score,
		confidence, confidence_band, risk_level, integrity_flags,
		rubric_errors, reference_pool, cross_fallback, latency_ms
		FROM scoring_events` + buildWhere(opts) + ` ORDER BY sequence DESC` + buildLimit(opts)

	rows, err := r.db.QueryContext(ctx, query, buildArgs(opts)...)
	if err != nil {
		return nil, fmt.Errorf("query scoring events: %w", err)
	}
	defer rows.Close()

	var out []ScoringEvent
	for rows.Next() {
		var (
			e        ScoringEvent
			flagsRaw string
		)
		err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.ExerciseID,
			&e.FinalScore, &e.Confidence, &e.ConfidenceBand, &e.RiskLevel,
			&flagsRaw, &e.RubricErrors, &e.ReferencePoolSize,
			&e.CrossExerciseFallback, &e.LatencyMs)
		if err != nil {
			return nil, fmt.Errorf("scan scoring event: %w", err)
		}
		if err := json.Unmarshal([]byte(flagsRaw), &e.IntegrityFlags); err != nil {
			return nil, fmt.Errorf("unmarshal integrity flags: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) Stats(ctx context.Context, opts QueryOpts) (*ScoringStats, error) {
	query := `SELECT COUNT(*),
		COALESCE(AVG(final_score), 0),
		COALESCE(AVG(confidence), 0),
		COALESCE(SUM(CASE WHEN integrity_flags != '[]' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN risk_level = 'high' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN cross_fallback THEN 1 ELSE 0 END), 0)
		FROM scoring_events` + buildWhere(opts)

	var stats ScoringStats
	err := r.db.QueryRowContext(ctx, query, buildArgs(opts)...).
		Scan(&stats.Total, &stats.AvgScore, &stats.AvgConfidence,
			&stats.Flagged, &stats.HighRisk, &stats.FallbackScored)
	if err != nil {
		return nil, fmt.Errorf("query scoring stats: %w", err)
	}
	return &stats, nil
}

func buildWhere(opts QueryOpts) string {
	var conds []string
	if opts.After > 0 {
		conds = append(conds, "sequence > ?")
	}
	if opts.Before > 0 {
		conds = append(conds, "sequence < ?")
	}
	if !opts.From.IsZero() {
		conds = append(conds, "timestamp >= ?")
	}
	if !opts.To.IsZero() {
		conds = append(conds, "timestamp <= ?")
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func buildArgs(opts QueryOpts) []any {
	var args []any
	if opts.After > 0 {
		args = append(args, opts.After)
	}
	if opts.Before > 0 {
		args = append(args, opts.Before)
	}
	if !opts.From.IsZero() {
		args = append(args, opts.From)
	}
	if !opts.To.IsZero() {
		args = append(args, opts.To)
	}
	return args
}

func buildLimit(opts QueryOpts) string {
	if opts.Limit > 0 {
		return fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	return ""
}
