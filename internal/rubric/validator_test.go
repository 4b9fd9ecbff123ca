package rubric

import (
	"math"
	"testing"
)

func testRubric() []Criterion {
	return []Criterion{
		{Name: "Clarity", MaxPoints: 25},
		{Name: "Completeness", MaxPoints: 25},
		{Name: "Accuracy", MaxPoints: 50},
	}
}

func issuesOfType(issues []Issue, typ IssueType) []Issue {
	var out []Issue
	for _, is := range issues {
		if is.Type == typ {
			out = append(out, is)
		}
	}
	return out
}

func TestReconcile_CleanBreakdown(t *testing.T) {
	judgments := []CriterionJudgment{
		{Label: "Clarity", PointsAwarded: 20, MaxPointsClaimed: 25},
		{Label: "Completeness", PointsAwarded: 22, MaxPointsClaimed: 25},
		{Label: "Accuracy", PointsAwarded: 45, MaxPointsClaimed: 50},
	}
	res := Reconcile(testRubric(), judgments, 87, DefaultConfig())

	if !res.IsValid {
		t.Errorf("IsValid = false, issues: %+v", res.Issues)
	}
	if len(res.Errors()) != 0 {
		t.Errorf("errors = %+v, want none", res.Errors())
	}
	if res.Aggregation.TotalAwarded != 87 {
		t.Errorf("TotalAwarded = %f, want 87", res.Aggregation.TotalAwarded)
	}
	if res.Aggregation.MatchedCount != 3 {
		t.Errorf("MatchedCount = %d, want 3", res.Aggregation.MatchedCount)
	}
}

func TestReconcile_MissingCriterion(t *testing.T) {
	judgments := []CriterionJudgment{
		{Label: "Clarity", PointsAwarded: 20},
		{Label: "Accuracy", PointsAwarded: 40},
	}
	res := Reconcile(testRubric(), judgments, 60, DefaultConfig())

	missing := issuesOfType(res.Issues, IssueMissingCriterion)
	if len(missing) != 1 {
		t.Fatalf("missing_criterion issues = %d, want 1", len(missing))
	}
	if missing[0].Criterion != "Completeness" {
		t.Errorf("missing criterion = %q, want Completeness", missing[0].Criterion)
	}
	rc := res.Breakdown["Completeness"]
	if rc.PointsAwarded != 0 || !rc.Filled {
		t.Errorf("Completeness = %+v, want zero-filled", rc)
	}
	if res.IsValid {
		t.Error("IsValid = true with a missing criterion")
	}
}

// The canonical scenario: typo label resolved by fuzzy match, over-max
// points clamped.
func TestReconcile_TypoAndOverMax(t *testing.T) {
	judgments := []CriterionJudgment{
		{Label: "clarity", PointsAwarded: 25},
		{Label: "Completness", PointsAwarded: 20},
		{Label: "Accuracy", PointsAwarded: 60},
	}
	res := Reconcile(testRubric(), judgments, 95, DefaultConfig())

	if res.Aggregation.MatchedCount != 3 {
		t.Fatalf("MatchedCount = %d, want 3 (fuzzy should resolve Completness)", res.Aggregation.MatchedCount)
	}
	if got := res.Breakdown["Completeness"].PointsAwarded; got != 20 {
		t.Errorf("Completeness points = %f, want 20", got)
	}
	if got := res.Breakdown["Accuracy"].PointsAwarded; got != 50 {
		t.Errorf("Accuracy points = %f, want clamped 50", got)
	}
	if len(issuesOfType(res.Issues, IssueExceedsMax)) != 1 {
		t.Error("expected one exceeds_max error")
	}
	if res.Aggregation.TotalAwarded != 95 {
		t.Errorf("TotalAwarded = %f, want 95", res.Aggregation.TotalAwarded)
	}
}

func TestReconcile_NegativePointsClamped(t *testing.T) {
	judgments := []CriterionJudgment{
		{Label: "Clarity", PointsAwarded: -5},
		{Label: "Completeness", PointsAwarded: 10},
		{Label: "Accuracy", PointsAwarded: 30},
	}
	res := Reconcile(testRubric(), judgments, 40, DefaultConfig())

	if got := res.Breakdown["Clarity"].PointsAwarded; got != 0 {
		t.Errorf("Clarity points = %f, want 0", got)
	}
	if len(issuesOfType(res.Issues, IssueNegativePoints)) != 1 {
		t.Error("expected one negative_points error")
	}
}

func TestReconcile_ExtraLabelDropped(t *testing.T) {
	judgments := []CriterionJudgment{
		{Label: "Clarity", PointsAwarded: 20},
		{Label: "Completeness", PointsAwarded: 20},
		{Label: "Accuracy", PointsAwarded: 40},
		{Label: "Originality", PointsAwarded: 10},
	}
	res := Reconcile(testRubric(), judgments, 80, DefaultConfig())

	extra := issuesOfType(res.Issues, IssueExtraCriterion)
	if len(extra) != 1 {
		t.Fatalf("extra_criterion issues = %d, want 1", len(extra))
	}
	if res.Aggregation.TotalAwarded != 80 {
		t.Errorf("TotalAwarded = %f, extra label must not count", res.Aggregation.TotalAwarded)
	}
	if len(res.Aggregation.UnmatchedLabels) != 1 || res.Aggregation.UnmatchedLabels[0] != "Originality" {
		t.Errorf("UnmatchedLabels = %v", res.Aggregation.UnmatchedLabels)
	}
	if !res.IsValid {
		t.Error("extra labels are warnings; result should stay valid")
	}
}

func TestReconcile_ScoreMismatchSurfacedNotCorrected(t *testing.T) {
	judgments := []CriterionJudgment{
		{Label: "Clarity", PointsAwarded: 10},
		{Label: "Completeness", PointsAwarded: 10},
		{Label: "Accuracy", PointsAwarded: 20},
	}
	res := Reconcile(testRubric(), judgments, 75, DefaultConfig())

	if len(issuesOfType(res.Issues, IssueScoreMismatch)) != 1 {
		t.Fatal("expected score_mismatch warning")
	}
	if res.CorrectedScore != 75 {
		t.Errorf("CorrectedScore = %f, auto-correct is off by default", res.CorrectedScore)
	}

	cfg := DefaultConfig()
	cfg.ScoreAutoCorrect = true
	res = Reconcile(testRubric(), judgments, 75, cfg)
	if res.CorrectedScore != 40 {
		t.Errorf("CorrectedScore = %f, want rubric-derived 40", res.CorrectedScore)
	}
}

func TestReconcile_MaxMismatchWarning(t *testing.T) {
	judgments := []CriterionJudgment{
		{Label: "Clarity", PointsAwarded: 20, MaxPointsClaimed: 30},
		{Label: "Completeness", PointsAwarded: 20, MaxPointsClaimed: 25},
		{Label: "Accuracy", PointsAwarded: 40, MaxPointsClaimed: 50},
	}
	res := Reconcile(testRubric(), judgments, 80, DefaultConfig())

	mm := issuesOfType(res.Issues, IssueMaxMismatch)
	if len(mm) != 1 {
		t.Fatalf("max_mismatch issues = %d, want 1", len(mm))
	}
	if mm[0].Severity != SeverityWarning {
		t.Error("max mismatch is informational, not an error")
	}
	if !res.IsValid {
		t.Error("warnings alone must not invalidate")
	}
}

func TestReconcile_OneToOneMatching(t *testing.T) {
	// Two labels that both resemble Clarity: only one may claim it.
	judgments := []CriterionJudgment{
		{Label: "Clarity", PointsAwarded: 20},
		{Label: "Clarity of response", PointsAwarded: 15},
		{Label: "Completeness", PointsAwarded: 20},
		{Label: "Accuracy", PointsAwarded: 40},
	}
	res := Reconcile(testRubric(), judgments, 80, DefaultConfig())

	if got := res.Breakdown["Clarity"].PointsAwarded; got != 20 {
		t.Errorf("Clarity points = %f, exact match must win", got)
	}
	if len(res.Aggregation.UnmatchedLabels) != 1 {
		t.Errorf("UnmatchedLabels = %v, duplicate claim should be dropped", res.Aggregation.UnmatchedLabels)
	}
}

func TestBlendedScore(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name            string
		claimed, rubric float64
		want            float64
	}{
		{"within threshold untouched", 80, 85, 80},
		{"at threshold untouched", 80, 90, 80},
		{"beyond threshold blended", 80, 100, 86}, // 0.7*80 + 0.3*100
		{"blend clamps", 120, 90, 100},
	}
	for _, tt := range tests {
		got := BlendedScore(tt.claimed, tt.rubric, cfg)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: BlendedScore(%f, %f) = %f, want %f", tt.name, tt.claimed, tt.rubric, got, tt.want)
		}
	}
}
