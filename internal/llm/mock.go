package llm

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
)

// MockResponse is one scripted reply. Text is a plain reply, Content a
// structured one; Err short-circuits both.
type MockResponse struct {
	Text    string
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider replays scripted replies in order and remembers every
// request it saw. Once the script runs out it answers with Fallback, or
// with ErrProviderUnavailable when Fallback is nil.
type MockProvider struct {
	Fallback *MockResponse

	mu       sync.Mutex
	script   []MockResponse
	requests []Request
}

func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

func (m *MockProvider) ModelID() string { return "mock" }

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	next, ok := m.pop()
	m.mu.Unlock()

	if !ok {
		return nil, &ErrProviderUnavailable{}
	}
	if next.Err != nil {
		return nil, next.Err
	}

	resp := &Response{
		Text:       next.Text,
		Content:    next.Content,
		Usage:      next.Usage,
		Model:      "mock",
		StopReason: StopEnd,
	}
	if resp.Content == nil {
		resp.Content, _ = json.Marshal(next.Text)
	} else if resp.Text == "" {
		resp.Text = string(next.Content)
	}
	if req.Schema != nil {
		if err := validateResponse(req.Schema, resp.Content); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// pop must be called with mu held.
func (m *MockProvider) pop() (MockResponse, bool) {
	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return next, true
	}
	if m.Fallback != nil {
		return *m.Fallback, true
	}
	return MockResponse{}, false
}

// AddResponse appends to the script.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
}

// Requests returns a copy of every request received so far.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

// LastRequest returns the most recent request, or the zero Request.
func (m *MockProvider) LastRequest() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return Request{}
	}
	return m.requests[len(m.requests)-1]
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
