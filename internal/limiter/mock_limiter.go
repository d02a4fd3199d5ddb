package limiter

import (
	"context"
	"sync"
)

// MockLimiter is a test double for the Limiter interface
type MockLimiter struct {
	mu sync.Mutex

	// AllowResult is returned by every Allow call
	AllowResult bool

	// AllowCalls records the keys Allow was called with
	AllowCalls  []string
	CloseCalled bool
	CloseError  error
}

// NewMockLimiter creates a mock limiter that always answers allowResult
func NewMockLimiter(allowResult bool) *MockLimiter {
	return &MockLimiter{AllowResult: allowResult}
}

// Allow implements the Limiter interface
func (m *MockLimiter) Allow(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AllowCalls = append(m.AllowCalls, key)
	return m.AllowResult
}

// Close implements the Limiter interface
func (m *MockLimiter) Close() error {
	m.CloseCalled = true
	return m.CloseError
}
