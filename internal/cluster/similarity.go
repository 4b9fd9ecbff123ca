package cluster

import (
	"github.com/abhisek/rubrix/internal/catalog"
	"github.com/abhisek/rubrix/internal/vectormath"
)

// Fixed blend weights for pairwise exercise similarity.
const (
	contentWeight    = 0.50
	skillWeight      = 0.35
	difficultyWeight = 0.15

	// skillMismatch is the floor score for exercises in different skill
	// categories; they can still resemble each other through content.
	skillMismatch = 0.3

	// variationThreshold is the content similarity above which two
	// exercises from different skill categories count as variations of
	// the same underlying task.
	variationThreshold = 0.7
)

// ExerciseSimilarity computes the pairwise similarity of two exercises
// as a fixed weighted blend of content, skill-category match, and
// difficulty proximity.
func ExerciseSimilarity(a, b *catalog.EmbeddingRecord) Similarity {
	content := vectormath.ClampedSimilarity(a.ContentEmbedding, b.ContentEmbedding)

	skill := skillMismatch
	if a.SkillCategory == b.SkillCategory {
		skill = 1.0
	}

	difficulty := difficultyProximity(a.Difficulty.Tier(), b.Difficulty.Tier())

	return Similarity{
		Overall:    contentWeight*content + skillWeight*skill + difficultyWeight*difficulty,
		Content:    content,
		Skill:      skill,
		Difficulty: difficulty,
	}
}

// difficultyProximity scores how close two difficulty tiers are:
// same tier 1.0, adjacent 0.7, otherwise 0.4.
func difficultyProximity(a, b int) float64 {
	switch diff := abs(a - b); diff {
	case 0:
		return 1.0
	case 1:
		return 0.7
	default:
		return 0.4
	}
}

// Relate labels the relationship of b with respect to a: within the
// same skill category the difficulty tiers decide prerequisite,
// advanced, or parallel; across categories a strong content match makes
// a variation, anything else is merely related.
func Relate(a, b *catalog.EmbeddingRecord) Relationship {
	if a.SkillCategory == b.SkillCategory {
		switch {
		case b.Difficulty.Tier() < a.Difficulty.Tier():
			return RelationPrerequisite
		case b.Difficulty.Tier() > a.Difficulty.Tier():
			return RelationAdvanced
		default:
			return RelationParallel
		}
	}

	content := vectormath.ClampedSimilarity(a.ContentEmbedding, b.ContentEmbedding)
	if content > variationThreshold {
		return RelationVariation
	}
	return RelationRelated
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
