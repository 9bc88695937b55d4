package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockCommandRunner is a testify mock of dependency.CommandRunner.
// Expectations match the command line joined with spaces, e.g. On("Output", "pip list --format=json").
type MockCommandRunner struct {
	mock.Mock
}

// Output implements dependency.CommandRunner
func (m *MockCommandRunner) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	ret := m.Called(line)
	var out []byte
	if v := ret.Get(0); v != nil {
		switch o := v.(type) {
		case string:
			out = []byte(o)
		case []byte:
			out = o
		}
	}
	return out, ret.Error(1)
}

// MockCredentialChecker is a map-backed dependency.CredentialChecker that records queries
type MockCredentialChecker struct {
	mu      sync.Mutex
	Valid   map[string]bool
	Errors  map[string]error
	queries []string
}

// NewMockCredentialChecker returns a checker where the given providers are valid
func NewMockCredentialChecker(valid ...string) *MockCredentialChecker {
	m := &MockCredentialChecker{Valid: map[string]bool{}, Errors: map[string]error{}}
	for _, p := range valid {
		m.Valid[p] = true
	}
	return m
}

// IsValid implements dependency.CredentialChecker
func (m *MockCredentialChecker) IsValid(ctx context.Context, provider string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, provider)
	if err := m.Errors[provider]; err != nil {
		return false, err
	}
	return m.Valid[provider], nil
}

// Queries returns the providers asked about so far
func (m *MockCredentialChecker) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}
