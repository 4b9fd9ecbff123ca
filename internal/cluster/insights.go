package cluster

import "fmt"

// Insight thresholds.
const (
	masteryScore       = 85
	strugglingAttempts = 3

	// completionNudge fires once a learner is started but has most of
	// the cluster left.
	completionNudgeMin = 0.1
	completionNudgeMax = 0.5
)

// BuildInsights turns a per-cluster progress snapshot into readable
// findings: mastery calls, struggling alerts, completion nudges, and
// next-step recommendations derived from cluster relationships.
func BuildInsights(snapshot []Progress, related map[string][]Recommendation) []Insight {
	var out []Insight

	for _, p := range snapshot {
		if p.Attempts == 0 {
			continue
		}

		if p.AvgScore >= masteryScore {
			out = append(out, Insight{
				Kind:      InsightMastery,
				ClusterID: p.ClusterID,
				Skill:     p.PrimarySkill,
				Message:   fmt.Sprintf("Strong command of %s: averaging %.0f across %d exercises.", p.PrimarySkill, p.AvgScore, p.Attempts),
			})
			for _, rec := range related[p.ClusterID] {
				if rec.Relationship == RelationAdvanced {
					out = append(out, Insight{
						Kind:      InsightRecommendation,
						ClusterID: rec.ClusterID,
						Skill:     rec.Skill,
						Message:   fmt.Sprintf("Ready for harder %s exercises.", rec.Skill),
					})
				}
			}
			continue
		}

		if p.Trend == TrendDeclining && p.Attempts >= strugglingAttempts {
			out = append(out, Insight{
				Kind:      InsightStruggling,
				ClusterID: p.ClusterID,
				Skill:     p.PrimarySkill,
				Message:   fmt.Sprintf("Scores in %s are slipping over the last %d attempts.", p.PrimarySkill, p.Attempts),
			})
			for _, rec := range related[p.ClusterID] {
				if rec.Relationship == RelationPrerequisite {
					out = append(out, Insight{
						Kind:      InsightRecommendation,
						ClusterID: rec.ClusterID,
						Skill:     rec.Skill,
						Message:   fmt.Sprintf("Revisiting easier %s exercises may rebuild the foundation.", rec.Skill),
					})
				}
			}
			continue
		}

		if p.TotalExercises > 0 {
			ratio := float64(p.Attempts) / float64(p.TotalExercises)
			if ratio >= completionNudgeMin && ratio <= completionNudgeMax {
				out = append(out, Insight{
					Kind:      InsightProgress,
					ClusterID: p.ClusterID,
					Skill:     p.PrimarySkill,
					Message:   fmt.Sprintf("%d of %d %s exercises done; keep going.", p.Attempts, p.TotalExercises, p.PrimarySkill),
				})
			}
		}
	}

	return out
}

// Recommendation links a cluster to a related one for insight text.
type Recommendation struct {
	ClusterID    string
	Skill        string
	Relationship Relationship
}
