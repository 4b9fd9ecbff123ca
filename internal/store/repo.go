package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// ScoringEventData captures the outcome of one scoring run.
type ScoringEventData struct {
	ExerciseID            string
	FinalScore            float64
	Confidence            float64
	ConfidenceBand        string
	RiskLevel             string
	IntegrityFlags        []string
	RubricErrors          int
	ReferencePoolSize     int
	CrossExerciseFallback bool
	LatencyMs             int64
}

// ScoringEvent is a stored scoring event.
type ScoringEvent struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	ScoringEventData
}

// ScoringStats aggregates scoring events for reporting.
type ScoringStats struct {
	Total          int
	AvgScore       float64
	AvgConfidence  float64
	Flagged        int
	HighRisk       int
	FallbackScored int
}

// EventRepo provides append and query access to domain events. Events
// share a global monotonic sequence so cross-type ordering holds.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendScoring records a completed scoring run.
	AppendScoring(ctx context.Context, data ScoringEventData) error

	// ListLLMRequests returns LLM request events, newest first.
	ListLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMRequest returns one LLM request event by ID, or nil.
	GetLLMRequest(ctx context.Context, id int64) (*LLMRequestEvent, error)

	// ListScoring returns scoring events, newest first.
	ListScoring(ctx context.Context, opts QueryOpts) ([]ScoringEvent, error)

	// Stats aggregates scoring events in the query window.
	Stats(ctx context.Context, opts QueryOpts) (*ScoringStats, error)
}
