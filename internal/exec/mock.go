package exec

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// MockResponse is the scripted result of a mocked command.
type MockResponse struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

// MockCall records one command seen by a MockExecutor.
type MockCall struct {
	Dir         string
	Name        string
	Args        []string
	Interactive bool
}

// String renders the call as a command line, handy in test failure output.
func (c MockCall) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type mockRule struct {
	match    func(dir, name string, args []string) bool
	response MockResponse
}

// MockExecutor returns scripted responses instead of running processes.
// Rules added later take precedence over earlier ones, so a test can add a
// broad rule first and override specific commands afterwards.
type MockExecutor struct {
	mu       sync.Mutex
	rules    []mockRule
	calls    []MockCall
	fallback *MockResponse
}

// NewMockExecutor creates a mock executor. Commands that match no rule
// return fallback, or an error when fallback is nil.
func NewMockExecutor(fallback *MockResponse) *MockExecutor {
	return &MockExecutor{fallback: fallback}
}

// AddRule registers a response for commands accepted by match.
func (m *MockExecutor) AddRule(match func(dir, name string, args []string) bool, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{match: match, response: resp})
}

// AddExactMatch registers a response for exactly name + args.
func (m *MockExecutor) AddExactMatch(name string, args []string, resp MockResponse) {
	want := slices.Clone(args)
	m.AddRule(func(_, n string, a []string) bool {
		return n == name && slices.Equal(a, want)
	}, resp)
}

// AddPrefixMatch registers a response for name invoked with args starting
// with prefix.
func (m *MockExecutor) AddPrefixMatch(name string, prefix []string, resp MockResponse) {
	want := slices.Clone(prefix)
	m.AddRule(func(_, n string, a []string) bool {
		return n == name && len(a) >= len(want) && slices.Equal(a[:len(want)], want)
	}, resp)
}

// GetCalls returns a copy of every call recorded so far.
func (m *MockExecutor) GetCalls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Reset drops recorded calls but keeps the rules.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *MockExecutor) respond(dir, name string, args []string, interactive bool) MockResponse {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{Dir: dir, Name: name, Args: slices.Clone(args), Interactive: interactive})
	for i := len(m.rules) - 1; i >= 0; i-- {
		if m.rules[i].match(dir, name, args) {
			return m.rules[i].response
		}
	}
	if m.fallback != nil {
		return *m.fallback
	}
	return MockResponse{Err: fmt.Errorf("mock executor: no response for %q", strings.TrimSpace(name+" "+strings.Join(args, " ")))}
}

// Run implements CommandExecutor.
func (m *MockExecutor) Run(_ context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	resp := m.respond(dir, name, args, false)
	return resp.Stdout, resp.Stderr, resp.Err
}

// Output implements CommandExecutor.
func (m *MockExecutor) Output(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	resp := m.respond(dir, name, args, false)
	return resp.Stdout, resp.Err
}

// CombinedOutput implements CommandExecutor.
func (m *MockExecutor) CombinedOutput(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	resp := m.respond(dir, name, args, false)
	return append(slices.Clone(resp.Stdout), resp.Stderr...), resp.Err
}

// Interactive implements CommandExecutor.
func (m *MockExecutor) Interactive(_ context.Context, dir, name string, args ...string) error {
	return m.respond(dir, name, args, true).Err
}
