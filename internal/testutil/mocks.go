package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/core"
)

// MockCall records a call to a mock.
type MockCall struct {
	Method    string
	Args      []string
	Timestamp time.Time
}

type callLog struct {
	callMu sync.Mutex
	calls  []MockCall
}

func (l *callLog) record(method string, args ...string) {
	l.callMu.Lock()
	defer l.callMu.Unlock()
	l.calls = append(l.calls, MockCall{Method: method, Args: args, Timestamp: time.Now()})
}

// Calls returns a copy of the recorded calls.
func (l *callLog) Calls() []MockCall {
	l.callMu.Lock()
	defer l.callMu.Unlock()
	out := make([]MockCall, len(l.calls))
	copy(out, l.calls)
	return out
}

// MockRefiner implements core.Refiner for testing.
type MockRefiner struct {
	callLog
	refineFunc func(ctx context.Context, summary, description string) (core.Refinement, error)
}

// NewMockRefiner creates a refiner that answers "Mock refinement of <summary>".
func NewMockRefiner() *MockRefiner {
	return &MockRefiner{}
}

// WithRefineFunc replaces the default answer.
func (m *MockRefiner) WithRefineFunc(fn func(context.Context, string, string) (core.Refinement, error)) *MockRefiner {
	m.refineFunc = fn
	return m
}

// WithError makes every call fail with err.
func (m *MockRefiner) WithError(err error) *MockRefiner {
	return m.WithRefineFunc(func(context.Context, string, string) (core.Refinement, error) {
		return core.Refinement{}, err
	})
}

// Refine mocks a model call.
func (m *MockRefiner) Refine(ctx context.Context, summary, description string) (core.Refinement, error) {
	m.record("Refine", summary, description)
	if m.refineFunc != nil {
		return m.refineFunc(ctx, summary, description)
	}
	return core.Refinement{
		Text:         "Mock refinement of " + summary,
		Model:        "mock",
		FinishReason: "stop",
	}, nil
}

// MockTracker implements core.IssueTracker over an in-memory map.
type MockTracker struct {
	callLog
	mu           sync.Mutex
	descriptions map[string]string
	updateHook   func(idOrKey, description string) error
}

// NewMockTracker creates a tracker holding the given issues (id → description).
func NewMockTracker(issues map[string]string) *MockTracker {
	descriptions := make(map[string]string, len(issues))
	for k, v := range issues {
		descriptions[k] = v
	}
	return &MockTracker{descriptions: descriptions}
}

// OnUpdate runs hook before each write. A non-nil error aborts the write;
// the hook may also block.
func (m *MockTracker) OnUpdate(hook func(idOrKey, description string) error) *MockTracker {
	m.updateHook = hook
	return m
}

// GetIssue mocks a fetch.
func (m *MockTracker) GetIssue(_ context.Context, idOrKey string) (*core.TrackedIssue, error) {
	m.record("GetIssue", idOrKey)
	m.mu.Lock()
	defer m.mu.Unlock()
	desc, ok := m.descriptions[idOrKey]
	if !ok {
		return nil, core.ErrNotFound("jira issue", idOrKey)
	}
	return &core.TrackedIssue{ID: idOrKey, Key: "MOCK-" + idOrKey, Description: desc}, nil
}

// UpdateDescription mocks a write.
func (m *MockTracker) UpdateDescription(_ context.Context, idOrKey, description string) error {
	m.record("UpdateDescription", idOrKey, description)
	if m.updateHook != nil {
		if err := m.updateHook(idOrKey, description); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.descriptions[idOrKey]; !ok {
		return core.ErrNotFound("jira issue", idOrKey)
	}
	m.descriptions[idOrKey] = description
	return nil
}

// Description returns the current description of an issue.
func (m *MockTracker) Description(idOrKey string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.descriptions[idOrKey]
}
