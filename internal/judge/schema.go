package judge

import "github.com/abhisek/rubrix/internal/llm"

// JudgmentSchema constrains the grader's structured output. Responses
// that fail validation surface as llm.ErrInvalidResponse before any
// score is trusted.
var JudgmentSchema = &llm.Schema{
	Name:        "submission-judgment",
	Description: "A rubric-based grade for one free-text submission",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "number",
				"minimum":     0.0,
				"maximum":     100.0,
				"description": "Overall score for the submission on a 0-100 scale",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Two or three sentences of feedback for the learner",
			},
			"criteria": map[string]any{
				"type":        "array",
				"description": "Per-criterion grades, one entry per rubric criterion",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"label": map[string]any{
							"type":        "string",
							"description": "The rubric criterion name this grade applies to",
						},
						"points_awarded": map[string]any{
							"type":        "number",
							"description": "Points awarded for this criterion",
						},
						"max_points": map[string]any{
							"type":        "number",
							"description": "The maximum points this criterion carries",
						},
						"rationale": map[string]any{
							"type":        "string",
							"description": "One-sentence justification for the points awarded",
						},
					},
					"required":             []any{"label", "points_awarded", "max_points", "rationale"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"score", "feedback", "criteria"},
		"additionalProperties": false,
	},
}
