// Package cluster groups exercises by skill, difficulty, and content
// similarity, and turns a learner's per-cluster trend snapshot into
// progression insights and recommendations.
package cluster

// Trend describes the direction of a learner's recent scores within a
// cluster. It is computed outside this package and supplied in the
// snapshot.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
	TrendNew       Trend = "new"
)

// Relationship labels how two exercises relate.
type Relationship string

const (
	RelationPrerequisite Relationship = "prerequisite"
	RelationAdvanced     Relationship = "advanced"
	RelationParallel     Relationship = "parallel"
	RelationVariation    Relationship = "variation"
	RelationRelated      Relationship = "related"
)

// Similarity is the decomposed pairwise exercise similarity.
type Similarity struct {
	Overall    float64
	Content    float64
	Skill      float64
	Difficulty float64
}

// Progress is one cluster's aggregated state for a learner. The engine
// reads it as a snapshot; storage and update cadence live elsewhere.
type Progress struct {
	ClusterID       string
	PrimarySkill    string
	Attempts        int
	TotalExercises  int
	AvgScore        float64
	BestScore       float64
	Trend           Trend
	ImprovementRate float64
}

// InsightKind classifies an Insight.
type InsightKind string

const (
	InsightMastery        InsightKind = "mastery"
	InsightStruggling     InsightKind = "struggling"
	InsightProgress       InsightKind = "progress"
	InsightRecommendation InsightKind = "recommendation"
)

// Insight is one human-readable progression finding.
type Insight struct {
	Kind      InsightKind
	ClusterID string
	Skill     string
	Message   string
}
