// Package judge asks the LLM to grade a free-text submission against
// an exercise rubric and parses the structured judgment it returns.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/abhisek/rubrix/internal/catalog"
	"github.com/abhisek/rubrix/internal/llm"
	"github.com/abhisek/rubrix/internal/rubric"
)

// Config holds configuration for the LLM judge.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.2,
	}
}

// Judge performs LLM-based rubric grading.
type Judge struct {
	provider llm.Provider
	cfg      Config
}

// New creates an LLM-based judge.
func New(provider llm.Provider, cfg Config) *Judge {
	return &Judge{provider: provider, cfg: cfg}
}

// Judgment is the parsed grading output.
type Judgment struct {
	ClaimedScore float64
	Feedback     string
	Criteria     []rubric.CriterionJudgment
}

// judgmentOutput is the raw LLM response.
type judgmentOutput struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
	Criteria []struct {
		Label         string  `json:"label"`
		PointsAwarded float64 `json:"points_awarded"`
		MaxPoints     float64 `json:"max_points"`
		Rationale     string  `json:"rationale"`
	} `json:"criteria"`
}

// Evaluate grades a submission against the exercise rubric.
func (j *Judge) Evaluate(ctx context.Context, ex *catalog.Exercise, submission string) (*Judgment, error) {
	ctx = llm.WithPurpose(ctx, "judgment")

	userMsg, err := buildJudgmentMessage(ex, submission)
	if err != nil {
		return nil, fmt.Errorf("build judgment prompt: %w", err)
	}

	llmReq := llm.Request{
		System: judgmentSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      JudgmentSchema,
		MaxTokens:   j.cfg.MaxTokens,
		Temperature: j.cfg.Temperature,
	}

	resp, err := j.provider.Generate(ctx, llmReq)
	if err != nil {
		return nil, fmt.Errorf("LLM judgment failed: %w", err)
	}

	var raw judgmentOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse judgment response: %w", err)
	}

	out := &Judgment{
		ClaimedScore: raw.Score,
		Feedback:     raw.Feedback,
		Criteria:     make([]rubric.CriterionJudgment, len(raw.Criteria)),
	}
	for i, c := range raw.Criteria {
		out.Criteria[i] = rubric.CriterionJudgment{
			Label:            c.Label,
			PointsAwarded:    c.PointsAwarded,
			MaxPointsClaimed: c.MaxPoints,
			Rationale:        c.Rationale,
		}
	}
	return out, nil
}

const judgmentSystemPrompt = `You are an expert grader for free-text exercise submissions. Grade strictly against the rubric provided.

Instructions:
- Award points per criterion. Use the exact criterion names from the rubric.
- Never award more points than a criterion's maximum, and never negative points.
- The overall score is out of 100 and should reflect the rubric totals.
- When an exemplar answer is provided, use it to calibrate, not as the only acceptable answer.
- Keep each rationale to one sentence.`

var judgmentUserTemplate = template.Must(template.New("judgment").Parse(`Exercise: {{.Exercise.Title}}
Prompt: {{.Exercise.Prompt}}

Rubric ({{.TotalPoints}} points total):
{{range .Exercise.Rubric}}- {{.Name}} ({{.MaxPoints}} points){{if .Description}}: {{.Description}}{{end}}
{{end}}
{{- if .Exercise.Exemplar}}
Exemplar answer:
{{.Exercise.Exemplar}}
{{end}}
Submission to grade:
{{.Submission}}`))

func buildJudgmentMessage(ex *catalog.Exercise, submission string) (string, error) {
	var buf bytes.Buffer
	err := judgmentUserTemplate.Execute(&buf, struct {
		Exercise    *catalog.Exercise
		TotalPoints float64
		Submission  string
	}{ex, ex.TotalPoints(), submission})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
