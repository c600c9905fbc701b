package testutil

import (
	"fmt"
	"sync"
)

// CommandCall records a single command invocation.
type CommandCall struct {
	Name string
	Args []string
}

// MockExecutor records and simulates command execution. It satisfies the
// command runner used by `diveboard time`.
type MockExecutor struct {
	mu sync.Mutex

	// RecordedCalls contains all commands that were invoked.
	RecordedCalls []CommandCall

	// MockOutput is returned by Run.
	MockOutput []byte

	// MockError is returned by Run.
	MockError error

	// OutputFunc, if set, is called instead of returning MockOutput/MockError.
	OutputFunc func(name string, args []string) ([]byte, error)
}

// NewMockExecutor creates a mock with configurable static behavior.
func NewMockExecutor(output []byte, err error) *MockExecutor {
	return &MockExecutor{MockOutput: output, MockError: err}
}

// NewMockExecutorFunc creates a mock with dynamic behavior based on command.
func NewMockExecutorFunc(fn func(name string, args []string) ([]byte, error)) *MockExecutor {
	return &MockExecutor{OutputFunc: fn}
}

// Run records the call and returns configured output/error.
func (m *MockExecutor) Run(name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	m.RecordedCalls = append(m.RecordedCalls, CommandCall{Name: name, Args: args})
	m.mu.Unlock()

	if m.OutputFunc != nil {
		return m.OutputFunc(name, args)
	}
	return m.MockOutput, m.MockError
}

// CallCount returns the number of recorded calls.
func (m *MockExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RecordedCalls)
}

// LastCall returns the most recent command call, or nil if none.
func (m *MockExecutor) LastCall() *CommandCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.RecordedCalls) == 0 {
		return nil
	}
	call := m.RecordedCalls[len(m.RecordedCalls)-1]
	return &call
}

// WasCalledWith returns true if the specified command was invoked.
func (m *MockExecutor) WasCalledWith(name string, args ...string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, call := range m.RecordedCalls {
		if call.Name == name && argsMatch(call.Args, args) {
			return true
		}
	}
	return false
}

func argsMatch(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CommandSequenceMock returns different outputs for sequential calls.
type CommandSequenceMock struct {
	mu       sync.Mutex
	index    int
	Sequence []SequenceStep
}

// SequenceStep defines output for one step in a command sequence.
type SequenceStep struct {
	Output []byte
	Error  error
}

// NewCommandSequenceMock creates a mock that returns different results per call.
func NewCommandSequenceMock(steps ...SequenceStep) *CommandSequenceMock {
	return &CommandSequenceMock{Sequence: steps}
}

// Run returns the next output in the sequence, or an error if exhausted.
func (m *CommandSequenceMock) Run(name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index >= len(m.Sequence) {
		return nil, fmt.Errorf("mock sequence exhausted after %d calls", len(m.Sequence))
	}
	step := m.Sequence[m.index]
	m.index++
	return step.Output, step.Error
}
