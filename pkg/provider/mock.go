package provider

import (
	"context"
	"sync"
)

// MockProvider returns scripted responses for local runs and tests.
type MockProvider struct {
	mu         sync.Mutex
	name       string
	configured bool
	calls      int
	script     []mockStep
	fallback   mockStep
}

type mockStep struct {
	resp *Response
	err  error
}

// NewMock creates a configured mock provider that declines every
// request (a response with no candidate).
func NewMock(name string) *MockProvider {
	m := &MockProvider{name: name, configured: true}
	m.fallback = mockStep{resp: &Response{Provider: name}}
	return m
}

// Unconfigured marks the mock as missing credentials.
func (m *MockProvider) Unconfigured() *MockProvider {
	m.configured = false
	return m
}

// Respond appends a scripted successful response. The provider tag is
// filled in automatically.
func (m *MockProvider) Respond(resp *Response) *MockProvider {
	if resp != nil {
		resp.Provider = m.name
	}
	m.script = append(m.script, mockStep{resp: resp})
	return m
}

// Fail appends a scripted failure.
func (m *MockProvider) Fail(err error) *MockProvider {
	m.script = append(m.script, mockStep{err: err})
	return m
}

// AlwaysFail makes every unscripted call fail with err.
func (m *MockProvider) AlwaysFail(err error) *MockProvider {
	m.fallback = mockStep{err: err}
	return m
}

// Name returns the mock's identifier.
func (m *MockProvider) Name() string { return m.name }

// Configured reports the scripted configuration state.
func (m *MockProvider) Configured() bool { return m.configured }

// Calls returns how many times Enhance ran.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Enhance replays the script, then the fallback step.
func (m *MockProvider) Enhance(ctx context.Context, _ *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, Classify(m.name, err)
	}
	if !m.configured {
		return nil, NotConfigured(m.name)
	}

	m.mu.Lock()
	step := m.fallback
	if m.calls < len(m.script) {
		step = m.script[m.calls]
	}
	m.calls++
	m.mu.Unlock()

	if step.err != nil {
		return nil, step.err
	}
	return step.resp, nil
}
