package rubric

import (
	"fmt"
	"math"
	"strings"

	"github.com/abhisek/rubrix/internal/textmatch"
	"github.com/abhisek/rubrix/internal/vectormath"
)

// Reconcile matches the judge's free-form breakdown against the
// canonical rubric, clamps out-of-range points, fills skipped criteria
// with zero, and cross-checks the claimed overall score against the
// rubric-derived percentage.
//
// Matching is one-to-one: each canonical criterion can be claimed by at
// most one judge label. Exact case-insensitive matches are resolved
// first, then fuzzy matches against the remaining unclaimed criteria.
func Reconcile(criteria []Criterion, judgments []CriterionJudgment, claimedScore float64, cfg Config) *Result {
	res := &Result{
		Breakdown:      make(Breakdown, len(criteria)),
		ClaimedScore:   claimedScore,
		CorrectedScore: claimedScore,
	}

	claimed := make(map[string]CriterionJudgment, len(criteria))
	unmatched := make([]CriterionJudgment, 0, len(judgments))

	// Pass 1: exact case-insensitive matches.
	for _, j := range judgments {
		if name, ok := exactMatch(j.Label, criteria, claimed); ok {
			claimed[name] = j
		} else {
			unmatched = append(unmatched, j)
		}
	}

	// Pass 2: fuzzy matches against criteria still unclaimed.
	for _, j := range unmatched {
		var matched bool
		if cfg.FuzzyMatching {
			pool := unclaimedNames(criteria, claimed)
			if m, _ := textmatch.FindBestMatch(j.Label, pool, cfg.MatchThreshold); m != nil {
				claimed[m.Candidate] = j
				matched = true
			}
		}
		if !matched {
			res.Aggregation.UnmatchedLabels = append(res.Aggregation.UnmatchedLabels, j.Label)
			res.Issues = append(res.Issues, Issue{
				Type:      IssueExtraCriterion,
				Severity:  SeverityWarning,
				Criterion: j.Label,
				Message:   fmt.Sprintf("judge label %q matches no rubric criterion; dropped from scoring", j.Label),
			})
		}
	}

	// Build the reconciled breakdown, covering every canonical
	// criterion exactly once.
	for _, c := range criteria {
		j, ok := claimed[c.Name]
		if !ok {
			res.Breakdown[c.Name] = ReconciledCriterion{MaxPoints: c.MaxPoints, Filled: true}
			res.Issues = append(res.Issues, Issue{
				Type:      IssueMissingCriterion,
				Severity:  SeverityError,
				Criterion: c.Name,
				Message:   fmt.Sprintf("judge never addressed %q; defaulted to 0 points", c.Name),
				Expected:  c.MaxPoints,
			})
			continue
		}

		res.Aggregation.MatchedCount++
		points := j.PointsAwarded

		if points < 0 {
			res.Issues = append(res.Issues, Issue{
				Type:      IssueNegativePoints,
				Severity:  SeverityError,
				Criterion: c.Name,
				Message:   fmt.Sprintf("%q awarded negative points; clamped to 0", c.Name),
				Actual:    points,
			})
			points = 0
		}

		if points > c.MaxPoints {
			res.Issues = append(res.Issues, Issue{
				Type:      IssueExceedsMax,
				Severity:  SeverityError,
				Criterion: c.Name,
				Message:   fmt.Sprintf("%q awarded %.1f of %.1f possible points", c.Name, points, c.MaxPoints),
				Expected:  c.MaxPoints,
				Actual:    points,
			})
			if cfg.AutoCorrectPoints {
				points = c.MaxPoints
			}
		}

		if j.MaxPointsClaimed != 0 && j.MaxPointsClaimed != c.MaxPoints {
			res.Issues = append(res.Issues, Issue{
				Type:      IssueMaxMismatch,
				Severity:  SeverityWarning,
				Criterion: c.Name,
				Message:   fmt.Sprintf("judge claims %q is worth %.1f points, rubric says %.1f", c.Name, j.MaxPointsClaimed, c.MaxPoints),
				Expected:  c.MaxPoints,
				Actual:    j.MaxPointsClaimed,
			})
		}

		res.Breakdown[c.Name] = ReconciledCriterion{
			PointsAwarded: points,
			MaxPoints:     c.MaxPoints,
			Rationale:     j.Rationale,
		}
	}

	// Aggregate and cross-check the claimed overall score.
	for _, rc := range res.Breakdown {
		res.Aggregation.TotalAwarded += rc.PointsAwarded
		res.Aggregation.TotalMax += rc.MaxPoints
	}
	if res.Aggregation.TotalMax > 0 {
		res.Aggregation.Percentage = vectormath.Clamp(
			100*res.Aggregation.TotalAwarded/res.Aggregation.TotalMax, 0, 100)
	}

	if math.Abs(claimedScore-res.Aggregation.Percentage) > cfg.DivergenceThreshold {
		res.Issues = append(res.Issues, Issue{
			Type:     IssueScoreMismatch,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("claimed score %.1f diverges from rubric-derived %.1f",
				claimedScore, res.Aggregation.Percentage),
			Expected: res.Aggregation.Percentage,
			Actual:   claimedScore,
		})
		if cfg.ScoreAutoCorrect {
			res.CorrectedScore = res.Aggregation.Percentage
		}
	}

	res.IsValid = len(res.Errors()) == 0
	return res
}

// exactMatch resolves a label to a canonical criterion name by
// case-insensitive equality, skipping criteria already claimed.
func exactMatch(label string, criteria []Criterion, claimed map[string]CriterionJudgment) (string, bool) {
	norm := strings.ToLower(strings.TrimSpace(label))
	for _, c := range criteria {
		if _, taken := claimed[c.Name]; taken {
			continue
		}
		if strings.ToLower(c.Name) == norm {
			return c.Name, true
		}
	}
	return "", false
}

func unclaimedNames(criteria []Criterion, claimed map[string]CriterionJudgment) []string {
	var out []string
	for _, c := range criteria {
		if _, taken := claimed[c.Name]; !taken {
			out = append(out, c.Name)
		}
	}
	return out
}
