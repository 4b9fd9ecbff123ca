package scoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/rubrix/internal/catalog"
	"github.com/abhisek/rubrix/internal/embedding"
	"github.com/abhisek/rubrix/internal/integrity"
	"github.com/abhisek/rubrix/internal/judge"
	"github.com/abhisek/rubrix/internal/llm"
	"github.com/abhisek/rubrix/internal/reference"
	"github.com/abhisek/rubrix/internal/rubric"
	"github.com/abhisek/rubrix/internal/store"
)

type fakeCatalog struct {
	exercises map[string]*catalog.Exercise
}

func (f *fakeCatalog) Get(_ context.Context, id string) (*catalog.Exercise, error) {
	ex, ok := f.exercises[id]
	if !ok {
		return nil, errors.New("exercise not found")
	}
	return ex, nil
}

func (f *fakeCatalog) EmbeddingRecord(_ context.Context, id string) (*catalog.EmbeddingRecord, error) {
	return nil, errors.New("not implemented")
}

type fakeEvaluator struct {
	judgment *judge.Judgment
	err      error
}

func (f *fakeEvaluator) Evaluate(_ context.Context, _ *catalog.Exercise, _ string) (*judge.Judgment, error) {
	return f.judgment, f.err
}

type fakeMatcher struct {
	pool     *reference.PoolResult
	matchErr error

	mu     sync.Mutex
	banked []*reference.Answer
	accept bool
	reason string
}

func (f *fakeMatcher) MatchReferences(_ context.Context, _ string, _ []float64, _ string, _ catalog.Difficulty) (*reference.PoolResult, error) {
	return f.pool, f.matchErr
}

func (f *fakeMatcher) AddReferenceAnswer(_ context.Context, a *reference.Answer) (bool, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.banked = append(f.banked, a)
	return f.accept, f.reason, nil
}

func (f *fakeMatcher) bankedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.banked)
}

type fakeEvents struct {
	mu      sync.Mutex
	scoring []store.ScoringEventData
}

func (f *fakeEvents) AppendLLMRequest(_ context.Context, _ store.LLMRequestEventData) error {
	return nil
}

func (f *fakeEvents) AppendScoring(_ context.Context, data store.ScoringEventData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scoring = append(f.scoring, data)
	return nil
}

func (f *fakeEvents) ListLLMRequests(_ context.Context, _ store.QueryOpts) ([]store.LLMRequestEvent, error) {
	return nil, nil
}

func (f *fakeEvents) GetLLMRequest(_ context.Context, _ int64) (*store.LLMRequestEvent, error) {
	return nil, nil
}

func (f *fakeEvents) ListScoring(_ context.Context, _ store.QueryOpts) ([]store.ScoringEvent, error) {
	return nil, nil
}

func (f *fakeEvents) Stats(_ context.Context, _ store.QueryOpts) (*store.ScoringStats, error) {
	return nil, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []float64
}

func (f *fakeRecorder) Record(_, _ string, _ int, score float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, score)
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{exercises: map[string]*catalog.Exercise{
		"ex-1": {
			ID:            "ex-1",
			Title:         "Explaining recursion",
			Prompt:        "Explain recursion to a beginner.",
			SkillCategory: "programming",
			Difficulty:    catalog.DifficultyMedium,
			Exemplar:      "A function that calls itself with a smaller input until a base case stops it.",
			Rubric: []rubric.Criterion{
				{Name: "Accuracy", MaxPoints: 60},
				{Name: "Clarity", MaxPoints: 40},
			},
		},
	}}
}

func goodJudgment() *judge.Judgment {
	return &judge.Judgment{
		ClaimedScore: 88,
		Feedback:     "Clear and mostly complete.",
		Criteria: []rubric.CriterionJudgment{
			{Label: "Accuracy", PointsAwarded: 52, MaxPointsClaimed: 60},
			{Label: "Clarity", PointsAwarded: 36, MaxPointsClaimed: 40},
		},
	}
}

const goodSubmission = "Recursion is when a function solves a problem by calling itself on a smaller piece of the same problem. Every recursive function needs a base case so the calls eventually stop. For example, computing a factorial multiplies n by the factorial of n minus one until it reaches one."

func newTestService(t *testing.T, matcher *fakeMatcher, events store.EventRepo, recorder ClusterRecorder) *Service {
	t.Helper()
	emb := embedding.New(llm.NewMockProvider())
	svc := NewService(testCatalog(), &fakeEvaluator{judgment: goodJudgment()}, emb, matcher, events, recorder, DefaultConfig())
	t.Cleanup(svc.Close)
	return svc
}

func TestScoreHappyPath(t *testing.T) {
	matcher := &fakeMatcher{
		accept: true,
		pool: &reference.PoolResult{
			PoolSize:       4,
			WeightedScore:  86,
			EnsembleWeight: 0.12,
			Percentile:     74,
		},
	}
	events := &fakeEvents{}
	svc := newTestService(t, matcher, events, nil)

	result, err := svc.Score(context.Background(), &Request{
		ExerciseID: "ex-1",
		Submission: goodSubmission,
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	if result.Ensemble == nil {
		t.Fatal("expected ensemble result")
	}
	if result.Ensemble.FinalScore < 0 || result.Ensemble.FinalScore > 100 {
		t.Errorf("final score out of bounds: %d", result.Ensemble.FinalScore)
	}
	if result.Rubric == nil || !result.Rubric.IsValid {
		t.Errorf("rubric result = %+v", result.Rubric)
	}
	if result.Integrity.RiskLevel != integrity.RiskLow {
		t.Errorf("risk = %s, want low", result.Integrity.RiskLevel)
	}
	if result.References == nil || result.References.PoolSize != 4 {
		t.Errorf("references = %+v", result.References)
	}
	if !result.BankedAsReference {
		t.Error("clean high-quality submission should be offered to the bank")
	}

	if len(events.scoring) != 1 {
		t.Fatalf("recorded %d scoring events, want 1", len(events.scoring))
	}
	ev := events.scoring[0]
	if ev.ExerciseID != "ex-1" {
		t.Errorf("event exercise = %q", ev.ExerciseID)
	}
	if ev.FinalScore != float64(result.Ensemble.FinalScore) {
		t.Errorf("event score = %v, result score = %d", ev.FinalScore, result.Ensemble.FinalScore)
	}
	if ev.ReferencePoolSize != 4 {
		t.Errorf("event pool size = %d", ev.ReferencePoolSize)
	}
}

func TestScoreUnknownExercise(t *testing.T) {
	svc := newTestService(t, &fakeMatcher{}, nil, nil)

	_, err := svc.Score(context.Background(), &Request{ExerciseID: "nope", Submission: goodSubmission})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestScoreEmptySubmission(t *testing.T) {
	svc := newTestService(t, &fakeMatcher{}, nil, nil)

	_, err := svc.Score(context.Background(), &Request{ExerciseID: "ex-1"})
	if err == nil {
		t.Fatal("expected error for empty submission")
	}
}

func TestScoreJudgeFailureIsFatal(t *testing.T) {
	emb := embedding.New(llm.NewMockProvider())
	svc := NewService(testCatalog(), &fakeEvaluator{err: errors.New("provider down")}, emb, &fakeMatcher{}, nil, nil, DefaultConfig())
	defer svc.Close()

	_, err := svc.Score(context.Background(), &Request{ExerciseID: "ex-1", Submission: goodSubmission})
	if err == nil {
		t.Fatal("expected error when judgment fails")
	}
}

func TestScoreDegradesWithoutEmbeddings(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.EmbedErr = &llm.ErrEmbeddingsUnsupported{Provider: "anthropic"}
	matcher := &fakeMatcher{accept: true}

	svc := NewService(testCatalog(), &fakeEvaluator{judgment: goodJudgment()}, embedding.New(mock), matcher, nil, nil, DefaultConfig())
	defer svc.Close()

	result, err := svc.Score(context.Background(), &Request{ExerciseID: "ex-1", Submission: goodSubmission})
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	if result.References != nil {
		t.Error("reference pool should be skipped without embeddings")
	}
	if result.BankedAsReference || matcher.bankedCount() != 0 {
		t.Error("submission should not be banked without an embedding")
	}
	// Judgment and validator still produce a score.
	if result.Ensemble.FinalScore <= 0 {
		t.Errorf("final score = %d, want > 0", result.Ensemble.FinalScore)
	}
	if w := result.Ensemble.ComponentWeights["embedding"]; w != 0 {
		t.Errorf("embedding weight = %v, want 0", w)
	}
}

func TestScoreFlaggedSubmissionNotBanked(t *testing.T) {
	matcher := &fakeMatcher{accept: true}
	svc := newTestService(t, matcher, nil, nil)

	// Too short to clear the word-count rule.
	result, err := svc.Score(context.Background(), &Request{
		ExerciseID: "ex-1",
		Submission: "recursion calls itself",
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	if len(result.Integrity.Flags) == 0 {
		t.Fatal("expected integrity flags for a three-word submission")
	}
	if matcher.bankedCount() != 0 {
		t.Error("flagged submission must not be offered to the bank")
	}
}

func TestScoreDispatchesClusterUpdate(t *testing.T) {
	recorder := &fakeRecorder{}
	matcher := &fakeMatcher{}
	svc := NewService(testCatalog(), &fakeEvaluator{judgment: goodJudgment()}, embedding.New(llm.NewMockProvider()), matcher, nil, recorder, DefaultConfig())

	result, err := svc.Score(context.Background(), &Request{ExerciseID: "ex-1", Submission: goodSubmission})
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	// Close drains the queue before the worker exits.
	svc.Close()

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.records) != 1 {
		t.Fatalf("recorded %d cluster updates, want 1", len(recorder.records))
	}
	if recorder.records[0] != float64(result.Ensemble.FinalScore) {
		t.Errorf("recorded score = %v, want %d", recorder.records[0], result.Ensemble.FinalScore)
	}
}

func TestScoreTooFastFlag(t *testing.T) {
	svc := newTestService(t, &fakeMatcher{}, nil, nil)

	result, err := svc.Score(context.Background(), &Request{
		ExerciseID:          "ex-1",
		Submission:          goodSubmission,
		Duration:            10 * time.Second,
		ExpectedMinDuration: 2 * time.Minute,
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	found := false
	for _, f := range result.Integrity.Flags {
		if f == integrity.FlagTooFast {
			found = true
		}
	}
	if !found {
		t.Errorf("flags = %v, want too_fast", result.Integrity.Flags)
	}
}
