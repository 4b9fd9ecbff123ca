package reference

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/abhisek/rubrix/internal/catalog"
	"github.com/abhisek/rubrix/internal/vectormath"
)

// Matcher resolves comparison pools against the reference bank and
// manages insertion into it. All similarity math happens here; storage
// access goes through the injected Persistence.
type Matcher struct {
	persistence Persistence
	cfg         Config
}

// NewMatcher creates a Matcher over the given persistence.
func NewMatcher(p Persistence, cfg Config) *Matcher {
	return &Matcher{persistence: p, cfg: cfg}
}

// poolStrategy is one tier of the evidence-gathering policy. Tiers are
// evaluated in order until enough evidence is collected, each with its
// own weight multiplier and similarity floor, so the fallback chain
// stays inspectable and testable per tier.
type poolStrategy struct {
	name             string
	weightMultiplier float64
	minSimilarity    float64
	gate             func(collected int) bool
	fetch            func(ctx context.Context) ([]PoolMatch, error)
}

// MatchReferences resolves the comparison pool for a submission
// embedding: the exercise's own references first, then cross-exercise
// fallback from the same skill category when the direct pool is thin,
// then a neutral no-evidence result.
func (m *Matcher) MatchReferences(ctx context.Context, exerciseID string, embedding []float64, skillCategory string, difficulty catalog.Difficulty) (*PoolResult, error) {
	strategies := []poolStrategy{
		{
			name:             "direct",
			weightMultiplier: 1.0,
			minSimilarity:    0,
			gate:             func(int) bool { return true },
			fetch: func(ctx context.Context) ([]PoolMatch, error) {
				return m.directPool(ctx, exerciseID, embedding)
			},
		},
		{
			name:             "cross-exercise",
			weightMultiplier: m.cfg.FallbackWeight,
			minSimilarity:    m.cfg.FallbackMinSimilarity,
			gate:             func(collected int) bool { return collected < m.cfg.MinDirectPool },
			fetch: func(ctx context.Context) ([]PoolMatch, error) {
				return m.fallbackPool(ctx, exerciseID, embedding, skillCategory, difficulty)
			},
		},
	}

	var pool []PoolMatch
	for _, s := range strategies {
		if !s.gate(len(pool)) {
			continue
		}
		matches, err := s.fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s pool: %w", s.name, err)
		}
		for _, match := range matches {
			if match.Similarity < s.minSimilarity {
				continue
			}
			pool = append(pool, match)
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Similarity > pool[j].Similarity
	})
	if len(pool) > m.cfg.TopK {
		pool = pool[:m.cfg.TopK]
	}

	return m.summarize(pool), nil
}

// directPool scores every active reference of the exercise. Entries
// below the match threshold are kept: they still inform averages even
// when they do not count as good matches.
func (m *Matcher) directPool(ctx context.Context, exerciseID string, embedding []float64) ([]PoolMatch, error) {
	answers, err := m.persistence.FindByExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	matches := make([]PoolMatch, 0, len(answers))
	for _, a := range answers {
		sim := vectormath.ClampedSimilarity(embedding, a.Embedding)
		matches = append(matches, PoolMatch{
			Answer:        a,
			Similarity:    sim,
			RawSimilarity: sim,
		})
	}
	return matches, nil
}

// fallbackPool pulls candidates from other exercises in the same skill
// category, penalizing for the context change and crediting matching
// difficulty.
func (m *Matcher) fallbackPool(ctx context.Context, exerciseID string, embedding []float64, skillCategory string, difficulty catalog.Difficulty) ([]PoolMatch, error) {
	answers, err := m.persistence.FindBySkillCategory(ctx, skillCategory, exerciseID)
	if err != nil {
		return nil, err
	}

	matches := make([]PoolMatch, 0, len(answers))
	for _, a := range answers {
		raw := vectormath.ClampedSimilarity(embedding, a.Embedding)
		adjusted := raw - m.cfg.FallbackPenalty
		if a.Difficulty == difficulty {
			adjusted += m.cfg.SameDifficultyBonus
		}
		matches = append(matches, PoolMatch{
			Answer:        a,
			Similarity:    vectormath.Clamp(adjusted, 0, 1),
			RawSimilarity: raw,
			CrossExercise: true,
		})
	}
	return matches, nil
}

// summarize computes the pool aggregates. An empty pool yields the
// neutral percentile 50 with zero similarities and zero weight: no
// evidence, no opinion.
func (m *Matcher) summarize(pool []PoolMatch) *PoolResult {
	res := &PoolResult{
		Matches:  pool,
		PoolSize: len(pool),
	}
	if len(pool) == 0 {
		res.Percentile = 50
		return res
	}

	var simSum, weightSum, weightedScoreSum float64
	for _, match := range pool {
		simSum += match.Similarity
		if match.Similarity >= m.cfg.MatchThreshold {
			res.GoodMatches++
		}
		if match.Similarity > res.BestSimilarity {
			res.BestSimilarity = match.Similarity
			res.BestScore = match.Answer.Score
		}
		if match.CrossExercise {
			res.UsedCrossExerciseFallback = true
		}

		w := match.Similarity
		if match.CrossExercise {
			w *= m.cfg.FallbackWeight
		}
		weightSum += w
		weightedScoreSum += w * match.Answer.Score
	}

	res.AvgSimilarity = simSum / float64(len(pool))
	if weightSum > 0 {
		res.WeightedScore = weightedScoreSum / weightSum
	}

	goodRatio := float64(res.GoodMatches) / float64(len(pool))
	percentile := math.Round(50*res.AvgSimilarity + 30*res.BestSimilarity + 20*goodRatio)
	res.Percentile = int(vectormath.Clamp(percentile, 1, 99))

	res.EnsembleWeight = m.poolWeight(pool)
	return res
}

// poolWeight is the pool's contribution to the ensemble: a base weight
// plus a small bonus per verified reference and a size bonus, capped.
func (m *Matcher) poolWeight(pool []PoolMatch) float64 {
	if len(pool) == 0 {
		return 0
	}

	verified := 0
	for _, match := range pool {
		if match.Answer.Verified {
			verified++
		}
	}

	w := m.cfg.BaseWeight
	w += math.Min(float64(verified)*m.cfg.VerifiedBonus, m.cfg.VerifiedBonusCap)
	switch {
	case len(pool) >= 10:
		w += 0.02
	case len(pool) >= 5:
		w += 0.01
	}

	return math.Min(w, m.cfg.WeightCap)
}

// AddReferenceAnswer inserts a candidate into the bank when it clears
// the quality threshold and is not a near duplicate of an existing
// active reference. Rejection is a normal outcome, not an error; the
// returned reason explains it.
func (m *Matcher) AddReferenceAnswer(ctx context.Context, a *Answer) (bool, string, error) {
	if a.Score < m.cfg.QualityThreshold {
		return false, fmt.Sprintf("score %.1f below quality threshold %.1f", a.Score, m.cfg.QualityThreshold), nil
	}

	existing, err := m.persistence.FindByExercise(ctx, a.ExerciseID)
	if err != nil {
		return false, "", fmt.Errorf("find existing references: %w", err)
	}
	for _, e := range existing {
		if vectormath.ClampedSimilarity(a.Embedding, e.Embedding) > m.cfg.DuplicateThreshold {
			return false, fmt.Sprintf("near duplicate of reference %s", e.ID), nil
		}
	}

	id, err := m.persistence.Insert(ctx, a)
	if err != nil {
		return false, "", fmt.Errorf("insert reference: %w", err)
	}
	a.ID = id
	return true, "", nil
}
