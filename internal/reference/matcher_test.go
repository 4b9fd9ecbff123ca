package reference

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/abhisek/rubrix/internal/catalog"
)

// fakePersistence is an in-memory Persistence for matcher tests.
type fakePersistence struct {
	byExercise map[string][]*Answer
	byCategory map[string][]*Answer
	inserted   []*Answer
	findErr    error
	insertErr  error
}

func (f *fakePersistence) FindByExercise(_ context.Context, exerciseID string) ([]*Answer, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.byExercise[exerciseID], nil
}

func (f *fakePersistence) FindBySkillCategory(_ context.Context, category, excludeExercise string) ([]*Answer, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []*Answer
	for _, a := range f.byCategory[category] {
		if a.ExerciseID != excludeExercise {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakePersistence) Insert(_ context.Context, a *Answer) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.inserted = append(f.inserted, a)
	return fmt.Sprintf("ref-%d", len(f.inserted)), nil
}

func (f *fakePersistence) MarkVerified(context.Context, string) error { return nil }
func (f *fakePersistence) Deactivate(context.Context, string) error   { return nil }

// unitVec builds a 2-d unit vector whose cosine against the query
// vector {1, 0} is exactly sim.
func unitVec(sim float64) []float64 {
	return []float64{sim, math.Sqrt(1 - sim*sim)}
}

var query = []float64{1, 0}

func TestMatchReferences_EmptyPool(t *testing.T) {
	m := NewMatcher(&fakePersistence{}, DefaultConfig())
	res, err := m.MatchReferences(context.Background(), "ex-1", query, "writing", catalog.DifficultyMedium)
	if err != nil {
		t.Fatal(err)
	}
	if res.Percentile != 50 {
		t.Errorf("Percentile = %d, want neutral 50", res.Percentile)
	}
	if res.AvgSimilarity != 0 || res.BestSimilarity != 0 || res.EnsembleWeight != 0 {
		t.Errorf("empty pool must zero similarity/weight fields: %+v", res)
	}
	if res.UsedCrossExerciseFallback {
		t.Error("empty pool must not report fallback use")
	}
}

func TestMatchReferences_DirectPool(t *testing.T) {
	p := &fakePersistence{byExercise: map[string][]*Answer{
		"ex-1": {
			{ID: "a", ExerciseID: "ex-1", Score: 92, Embedding: unitVec(0.88)},
			{ID: "b", ExerciseID: "ex-1", Score: 85, Embedding: unitVec(0.74)},
			{ID: "c", ExerciseID: "ex-1", Score: 81, Embedding: unitVec(0.55)},
		},
	}}
	m := NewMatcher(p, DefaultConfig())

	res, err := m.MatchReferences(context.Background(), "ex-1", query, "writing", catalog.DifficultyMedium)
	if err != nil {
		t.Fatal(err)
	}
	if res.PoolSize != 3 {
		t.Fatalf("PoolSize = %d, want 3", res.PoolSize)
	}
	if res.UsedCrossExerciseFallback {
		t.Error("direct pool of 3 must not trigger fallback")
	}
	// Good matches only at >= 0.70, but all entries feed the average.
	if res.GoodMatches != 2 {
		t.Errorf("GoodMatches = %d, want 2", res.GoodMatches)
	}
	wantAvg := (0.88 + 0.74 + 0.55) / 3
	if math.Abs(res.AvgSimilarity-wantAvg) > 1e-9 {
		t.Errorf("AvgSimilarity = %f, want %f", res.AvgSimilarity, wantAvg)
	}
	if math.Abs(res.BestSimilarity-0.88) > 1e-9 || res.BestScore != 92 {
		t.Errorf("best = %f/%f, want 0.88/92", res.BestSimilarity, res.BestScore)
	}
}

// Scenario from the fallback design: one direct reference, four
// same-category candidates at raw similarities 0.82/0.75/0.68/0.61.
// After the 0.10 penalty only the first two clear the 0.60 floor.
func TestMatchReferences_CrossExerciseFallback(t *testing.T) {
	p := &fakePersistence{
		byExercise: map[string][]*Answer{
			"ex-1": {{ID: "d", ExerciseID: "ex-1", Score: 90, Embedding: unitVec(0.80)}},
		},
		byCategory: map[string][]*Answer{
			"writing": {
				{ID: "f1", ExerciseID: "ex-2", Score: 88, Difficulty: catalog.DifficultyHard, Embedding: unitVec(0.82)},
				{ID: "f2", ExerciseID: "ex-3", Score: 84, Difficulty: catalog.DifficultyHard, Embedding: unitVec(0.75)},
				{ID: "f3", ExerciseID: "ex-4", Score: 83, Difficulty: catalog.DifficultyHard, Embedding: unitVec(0.68)},
				{ID: "f4", ExerciseID: "ex-5", Score: 82, Difficulty: catalog.DifficultyHard, Embedding: unitVec(0.61)},
			},
		},
	}
	m := NewMatcher(p, DefaultConfig())

	res, err := m.MatchReferences(context.Background(), "ex-1", query, "writing", catalog.DifficultyMedium)
	if err != nil {
		t.Fatal(err)
	}
	if !res.UsedCrossExerciseFallback {
		t.Fatal("expected cross-exercise fallback")
	}
	if res.PoolSize != 3 {
		t.Fatalf("PoolSize = %d, want 1 direct + 2 surviving fallback", res.PoolSize)
	}

	cross := 0
	for _, match := range res.Matches {
		if match.CrossExercise {
			cross++
			if match.Similarity > match.RawSimilarity {
				t.Errorf("fallback similarity %f must not exceed raw %f", match.Similarity, match.RawSimilarity)
			}
		}
	}
	if cross != 2 {
		t.Errorf("cross-exercise matches = %d, want 2", cross)
	}
}

func TestMatchReferences_SameDifficultyBonus(t *testing.T) {
	p := &fakePersistence{
		byCategory: map[string][]*Answer{
			"writing": {
				{ID: "f", ExerciseID: "ex-2", Score: 85, Difficulty: catalog.DifficultyMedium, Embedding: unitVec(0.66)},
			},
		},
	}
	m := NewMatcher(p, DefaultConfig())

	// 0.66 - 0.10 = 0.56 would be dropped; the +0.05 same-difficulty
	// bonus lifts it to 0.61 and keeps it.
	res, err := m.MatchReferences(context.Background(), "ex-1", query, "writing", catalog.DifficultyMedium)
	if err != nil {
		t.Fatal(err)
	}
	if res.PoolSize != 1 {
		t.Fatalf("PoolSize = %d, want 1 (bonus should rescue candidate)", res.PoolSize)
	}
	if math.Abs(res.Matches[0].Similarity-0.61) > 1e-9 {
		t.Errorf("adjusted similarity = %f, want 0.61", res.Matches[0].Similarity)
	}
}

func TestMatchReferences_TopKCap(t *testing.T) {
	var answers []*Answer
	for i := 0; i < 15; i++ {
		answers = append(answers, &Answer{
			ID:         fmt.Sprintf("a%d", i),
			ExerciseID: "ex-1",
			Score:      85,
			Embedding:  unitVec(0.95 - float64(i)*0.01),
		})
	}
	p := &fakePersistence{byExercise: map[string][]*Answer{"ex-1": answers}}
	m := NewMatcher(p, DefaultConfig())

	res, err := m.MatchReferences(context.Background(), "ex-1", query, "writing", catalog.DifficultyMedium)
	if err != nil {
		t.Fatal(err)
	}
	if res.PoolSize != 10 {
		t.Errorf("PoolSize = %d, want TopK cap 10", res.PoolSize)
	}
	// Sorted descending: the best entry must come first.
	if res.Matches[0].Answer.ID != "a0" {
		t.Errorf("first match = %s, want a0", res.Matches[0].Answer.ID)
	}
}

func TestMatchReferences_PercentileBounds(t *testing.T) {
	p := &fakePersistence{byExercise: map[string][]*Answer{
		"ex-1": {{ID: "a", ExerciseID: "ex-1", Score: 95, Embedding: unitVec(0.999)}},
	}}
	m := NewMatcher(p, DefaultConfig())
	res, err := m.MatchReferences(context.Background(), "ex-1", query, "writing", catalog.DifficultyMedium)
	if err != nil {
		t.Fatal(err)
	}
	if res.Percentile < 1 || res.Percentile > 99 {
		t.Errorf("Percentile = %d, want within [1, 99]", res.Percentile)
	}
}

func TestPoolWeight(t *testing.T) {
	m := NewMatcher(&fakePersistence{}, DefaultConfig())

	mk := func(n, verified int) []PoolMatch {
		pool := make([]PoolMatch, n)
		for i := range pool {
			pool[i] = PoolMatch{Answer: &Answer{Verified: i < verified}}
		}
		return pool
	}

	tests := []struct {
		name     string
		n        int
		verified int
		want     float64
	}{
		{"empty", 0, 0, 0},
		{"base only", 2, 0, 0.10},
		{"verified bonus", 3, 2, 0.12},
		{"verified bonus capped", 8, 8, 0.16}, // 0.10 + 0.05 cap + 0.01 size
		{"size bonus at 10", 10, 0, 0.12},
		{"overall cap", 10, 10, 0.17},
	}
	for _, tt := range tests {
		got := m.poolWeight(mk(tt.n, tt.verified))
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: poolWeight = %f, want %f", tt.name, got, tt.want)
		}
	}
}

func TestAddReferenceAnswer_QualityGate(t *testing.T) {
	p := &fakePersistence{}
	m := NewMatcher(p, DefaultConfig())

	added, reason, err := m.AddReferenceAnswer(context.Background(), &Answer{
		ExerciseID: "ex-1", Score: 72, Embedding: unitVec(0.5),
	})
	if err != nil {
		t.Fatal(err)
	}
	if added || reason == "" {
		t.Errorf("added=%v reason=%q, want rejection with reason", added, reason)
	}
	if len(p.inserted) != 0 {
		t.Error("rejected answer must not be inserted")
	}
}

func TestAddReferenceAnswer_DuplicateRejected(t *testing.T) {
	p := &fakePersistence{byExercise: map[string][]*Answer{
		"ex-1": {{ID: "existing", ExerciseID: "ex-1", Score: 90, Embedding: unitVec(0.999)}},
	}}
	m := NewMatcher(p, DefaultConfig())

	added, reason, err := m.AddReferenceAnswer(context.Background(), &Answer{
		ExerciseID: "ex-1", Score: 95, Embedding: unitVec(0.998),
	})
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Error("near duplicate must be rejected")
	}
	if reason == "" {
		t.Error("rejection must carry a reason")
	}
}

func TestAddReferenceAnswer_Accepted(t *testing.T) {
	p := &fakePersistence{}
	m := NewMatcher(p, DefaultConfig())

	a := &Answer{ExerciseID: "ex-1", Score: 91, Embedding: unitVec(0.8)}
	added, reason, err := m.AddReferenceAnswer(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	if !added || reason != "" {
		t.Errorf("added=%v reason=%q, want clean acceptance", added, reason)
	}
	if a.ID == "" {
		t.Error("accepted answer must receive its persisted id")
	}
}

func TestMatchReferences_PersistenceFailure(t *testing.T) {
	p := &fakePersistence{findErr: errors.New("db down")}
	m := NewMatcher(p, DefaultConfig())
	if _, err := m.MatchReferences(context.Background(), "ex-1", query, "writing", catalog.DifficultyMedium); err == nil {
		t.Error("persistence failure must surface as an error")
	}
}
