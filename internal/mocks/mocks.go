// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// -- Page Driver Mock --

// MockDriver mocks the stealth.Driver interface. Every call is also recorded
// by name so tests can assert the order in which the installer used the page.
type MockDriver struct {
	mock.Mock

	mu    sync.Mutex
	calls []string
}

// NewMockDriver creates a driver mock with an empty call log.
func NewMockDriver() *MockDriver {
	return &MockDriver{}
}

func (m *MockDriver) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

// CallOrder returns the names of the methods called so far, oldest first.
func (m *MockDriver) CallOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockDriver) SetExtraHTTPHeaders(ctx context.Context, headers map[string]string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	m.record("SetExtraHTTPHeaders")
	return m.Called(ctx, headers).Error(0)
}

func (m *MockDriver) AddInitScript(ctx context.Context, script string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	m.record("AddInitScript")
	return m.Called(ctx, script).Error(0)
}

// -- Browser Page Mock --

// MockPage mocks browser.Page for the open command and the launcher helpers.
type MockPage struct {
	MockDriver
}

// NewMockPage creates a page mock.
func NewMockPage() *MockPage {
	return &MockPage{}
}

func (m *MockPage) Navigate(ctx context.Context, url string) error {
	m.record("Navigate")
	return m.Called(ctx, url).Error(0)
}

func (m *MockPage) Evaluate(ctx context.Context, expression string) (string, error) {
	m.record("Evaluate")
	args := m.Called(ctx, expression)
	return args.String(0), args.Error(1)
}

func (m *MockPage) Close() error {
	m.record("Close")
	return m.Called().Error(0)
}
