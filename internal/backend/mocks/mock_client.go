package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"drafter/client/internal/backend"
	"drafter/client/internal/model"
)

// MockClient is a testify mock of backend.Client.
type MockClient struct {
	mock.Mock
}

var _ backend.Client = (*MockClient)(nil)

// NewMockClient creates a MockClient whose expectations are asserted when the
// test ends.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockClient) ListSessions(ctx context.Context) ([]model.Session, error) {
	args := m.Called(ctx)
	var sessions []model.Session
	if v := args.Get(0); v != nil {
		sessions = v.([]model.Session)
	}
	return sessions, args.Error(1)
}

func (m *MockClient) CreateSession(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockClient) GetHistory(ctx context.Context, sessionID string) (*backend.History, error) {
	args := m.Called(ctx, sessionID)
	var h *backend.History
	if v := args.Get(0); v != nil {
		h = v.(*backend.History)
	}
	return h, args.Error(1)
}

func (m *MockClient) PushDocument(ctx context.Context, sessionID, document, title string) error {
	return m.Called(ctx, sessionID, document, title).Error(0)
}

func (m *MockClient) RenameSession(ctx context.Context, sessionID, title string) error {
	return m.Called(ctx, sessionID, title).Error(0)
}

func (m *MockClient) ClearHistory(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *MockClient) OpenChatStream(ctx context.Context, sessionID, content string) (io.ReadCloser, error) {
	args := m.Called(ctx, sessionID, content)
	var body io.ReadCloser
	if v := args.Get(0); v != nil {
		body = v.(io.ReadCloser)
	}
	return body, args.Error(1)
}

func (m *MockClient) Generate(ctx context.Context, req backend.GenerateRequest) (io.ReadCloser, error) {
	args := m.Called(ctx, req)
	var body io.ReadCloser
	if v := args.Get(0); v != nil {
		body = v.(io.ReadCloser)
	}
	return body, args.Error(1)
}
