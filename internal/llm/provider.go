package llm

import (
	"context"
	"encoding/json"
)

// Provider is the abstraction over the external model capabilities the
// engine consumes: structured judgment generation and text embeddings.
type Provider interface {
	// Generate sends a prompt and returns structured JSON. When the
	// request carries a Schema, the provider uses its native structured
	// output mechanism and the response Content is the validated JSON.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Embed returns one embedding vector per input text. Providers
	// without an embedding endpoint return *ErrEmbeddingsUnsupported;
	// callers treat that as "no signal", not a failure.
	Embed(ctx context.Context, texts []string) ([][]float64, error)

	// ModelID returns the model identifier this provider is configured
	// to use for generation.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation. Judging is single-turn, so this is
	// one user message in practice.
	Messages []Message

	// Schema is the JSON Schema the response must conform to. When nil
	// the response Content is raw text as json.RawMessage.
	Schema *Schema

	// MaxTokens bounds the response length.
	MaxTokens int

	// Temperature controls randomness, 0.0 - 1.0. Judging runs at 0
	// for repeatability.
	Temperature float64
}

// Message is a single conversation message.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies this schema (tool name for Anthropic, schema
	// name for OpenAI). Kebab-case, e.g. "exercise-judgment".
	Name string

	// Description is sent to the model to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is the generated output: validated JSON when a Schema was
	// requested, otherwise raw text wrapped as a JSON string.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to: "end", "max_tokens", "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
