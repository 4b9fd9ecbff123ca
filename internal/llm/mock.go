package llm

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"math"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider is a deterministic Provider for testing. Generate
// returns canned responses in FIFO order and records all requests;
// Embed returns a stable pseudo-vector derived from the text, so equal
// texts embed identically and similar calls are reproducible.
type MockProvider struct {
	mu         sync.Mutex
	responses  []MockResponse
	Calls      []Request
	EmbedCalls [][]string
	EmbedErr   error
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response or ErrProviderUnavailable
// if the queue is empty.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return nil, &ErrProviderUnavailable{Err: nil}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// mockEmbeddingDim is the size of mock embedding vectors.
const mockEmbeddingDim = 8

// Embed returns deterministic unit vectors seeded from each text.
func (m *MockProvider) Embed(_ context.Context, texts []string) ([][]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EmbedCalls = append(m.EmbedCalls, texts)
	if m.EmbedErr != nil {
		return nil, m.EmbedErr
	}

	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = mockVector(t)
	}
	return out, nil
}

// mockVector hashes the text into a stable unit vector.
func mockVector(text string) []float64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float64, mockEmbeddingDim)
	var mag float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float64(int64(seed>>11)) / float64(1<<52)
		mag += vec[i] * vec[i]
	}
	mag = math.Sqrt(mag)
	if mag == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] /= mag
	}
	return vec
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
