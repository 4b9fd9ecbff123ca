// Package rubric reconciles an LLM judge's per-criterion breakdown
// against the canonical rubric of an exercise.
package rubric

// Criterion is one canonical rubric entry for an exercise. MaxPoints for
// all criteria of an exercise sum to the exercise total (typically 100).
type Criterion struct {
	Name        string  `json:"name"`
	MaxPoints   float64 `json:"max_points"`
	Description string  `json:"description,omitempty"`
}

// CriterionJudgment is one judge-produced line item. Label is free text
// as emitted by the judge and may not match any canonical name exactly.
type CriterionJudgment struct {
	Label            string  `json:"label"`
	PointsAwarded    float64 `json:"points_awarded"`
	MaxPointsClaimed float64 `json:"max_points_claimed"`
	Rationale        string  `json:"rationale,omitempty"`
}

// ReconciledCriterion is the post-reconciliation view of one canonical
// criterion. Filled is true when the judge never addressed the criterion
// and it was defaulted to zero.
type ReconciledCriterion struct {
	PointsAwarded float64
	MaxPoints     float64
	Rationale     string
	Filled        bool
}

// Breakdown maps canonical criterion name to its reconciled values. It
// covers every criterion of the rubric exactly once.
type Breakdown map[string]ReconciledCriterion

// Severity classifies an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// IssueType identifies the rule that produced an Issue.
type IssueType string

const (
	IssueMissingCriterion IssueType = "missing_criterion"
	IssueExtraCriterion   IssueType = "extra_criterion"
	IssueNegativePoints   IssueType = "negative_points"
	IssueExceedsMax       IssueType = "exceeds_max"
	IssueMaxMismatch      IssueType = "max_mismatch"
	IssueScoreMismatch    IssueType = "score_mismatch"
)

// Issue is one structured finding from reconciliation. Findings are
// values, never errors: the caller decides consequence.
type Issue struct {
	Type      IssueType
	Severity  Severity
	Criterion string
	Message   string
	Expected  float64
	Actual    float64
}

// Aggregation summarizes the reconciled breakdown.
type Aggregation struct {
	TotalAwarded    float64
	TotalMax        float64
	Percentage      float64
	MatchedCount    int
	UnmatchedLabels []string
}

// Result is the full output of Reconcile. IsValid is true when no issue
// has error severity; warnings alone do not invalidate a judgment.
type Result struct {
	Breakdown   Breakdown
	Issues      []Issue
	Aggregation Aggregation
	IsValid     bool

	// ClaimedScore is the judge's overall score as given.
	// CorrectedScore equals ClaimedScore unless score auto-correction
	// is enabled and the divergence threshold was exceeded.
	ClaimedScore   float64
	CorrectedScore float64
}

// Errors returns only the error-severity issues.
func (r *Result) Errors() []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			out = append(out, is)
		}
	}
	return out
}
