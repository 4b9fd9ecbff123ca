package cluster

import "testing"

func insightsOfKind(insights []Insight, kind InsightKind) []Insight {
	var out []Insight
	for _, in := range insights {
		if in.Kind == kind {
			out = append(out, in)
		}
	}
	return out
}

func TestBuildInsights_Mastery(t *testing.T) {
	snapshot := []Progress{
		{ClusterID: "c1", PrimarySkill: "writing", Attempts: 4, AvgScore: 91, Trend: TrendStable},
	}
	related := map[string][]Recommendation{
		"c1": {{ClusterID: "c2", Skill: "writing", Relationship: RelationAdvanced}},
	}

	insights := BuildInsights(snapshot, related)
	if len(insightsOfKind(insights, InsightMastery)) != 1 {
		t.Error("expected a mastery insight at avg 91")
	}
	recs := insightsOfKind(insights, InsightRecommendation)
	if len(recs) != 1 || recs[0].ClusterID != "c2" {
		t.Errorf("recommendations = %+v, want advanced cluster c2", recs)
	}
}

func TestBuildInsights_Struggling(t *testing.T) {
	snapshot := []Progress{
		{ClusterID: "c1", PrimarySkill: "analysis", Attempts: 5, AvgScore: 55, Trend: TrendDeclining},
	}
	related := map[string][]Recommendation{
		"c1": {{ClusterID: "c0", Skill: "analysis", Relationship: RelationPrerequisite}},
	}

	insights := BuildInsights(snapshot, related)
	if len(insightsOfKind(insights, InsightStruggling)) != 1 {
		t.Error("expected a struggling insight for a declining trend with 5 attempts")
	}
	if len(insightsOfKind(insights, InsightRecommendation)) != 1 {
		t.Error("expected a prerequisite recommendation")
	}
}

func TestBuildInsights_DecliningNeedsAttempts(t *testing.T) {
	snapshot := []Progress{
		{ClusterID: "c1", PrimarySkill: "analysis", Attempts: 2, AvgScore: 55, Trend: TrendDeclining},
	}
	if got := insightsOfKind(BuildInsights(snapshot, nil), InsightStruggling); len(got) != 0 {
		t.Errorf("struggling fired with only 2 attempts: %+v", got)
	}
}

func TestBuildInsights_CompletionNudge(t *testing.T) {
	snapshot := []Progress{
		{ClusterID: "c1", PrimarySkill: "writing", Attempts: 3, TotalExercises: 12, AvgScore: 70, Trend: TrendStable},
	}
	if got := insightsOfKind(BuildInsights(snapshot, nil), InsightProgress); len(got) != 1 {
		t.Errorf("progress insights = %d, want 1", len(got))
	}
}

func TestBuildInsights_SkipsUnattempted(t *testing.T) {
	snapshot := []Progress{
		{ClusterID: "c1", PrimarySkill: "writing", Attempts: 0, TotalExercises: 10, Trend: TrendNew},
	}
	if got := BuildInsights(snapshot, nil); len(got) != 0 {
		t.Errorf("insights for unattempted cluster: %+v", got)
	}
}

func TestAnalyzer_RecordAndTrend(t *testing.T) {
	a := NewAnalyzer()

	a.Record("c1", "writing", 10, 60)
	snap := a.Snapshot()
	if len(snap) != 1 || snap[0].Trend != TrendNew {
		t.Fatalf("snapshot = %+v, want one new cluster", snap)
	}

	for _, s := range []float64{65, 70, 80, 85} {
		a.Record("c1", "writing", 10, s)
	}
	snap = a.Snapshot()
	p := snap[0]
	if p.Attempts != 5 {
		t.Errorf("Attempts = %d, want 5", p.Attempts)
	}
	if p.BestScore != 85 {
		t.Errorf("BestScore = %f, want 85", p.BestScore)
	}
	if p.Trend != TrendImproving {
		t.Errorf("Trend = %s, want improving (rate %f)", p.Trend, p.ImprovementRate)
	}
}

func TestAnalyzer_DecliningTrend(t *testing.T) {
	a := NewAnalyzer()
	for _, s := range []float64{90, 85, 80, 60, 55, 50} {
		a.Record("c1", "analysis", 8, s)
	}
	p := a.Snapshot()[0]
	if p.Trend != TrendDeclining {
		t.Errorf("Trend = %s, want declining (rate %f)", p.Trend, p.ImprovementRate)
	}
}
