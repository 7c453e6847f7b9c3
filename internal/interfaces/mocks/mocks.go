package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"drafter/client/internal/backend"
	"drafter/client/internal/interfaces"
	"drafter/client/internal/model"
	"drafter/client/internal/service"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

var (
	_ interfaces.SessionService     = (*MockSessionService)(nil)
	_ interfaces.ConversationReader = (*MockConversationReader)(nil)
	_ interfaces.ChatService        = (*MockChatService)(nil)
	_ interfaces.ExportService      = (*MockExportService)(nil)
)

// MockSessionService is a testify mock of interfaces.SessionService.
type MockSessionService struct {
	mock.Mock
}

func NewMockSessionService(t testingT) *MockSessionService {
	m := &MockSessionService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSessionService) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSessionService) Sessions() []model.Session {
	args := m.Called()
	if v := args.Get(0); v != nil {
		return v.([]model.Session)
	}
	return nil
}

func (m *MockSessionService) ActiveID() string {
	return m.Called().String(0)
}

func (m *MockSessionService) NewSession(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSessionService) Select(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSessionService) Rename(ctx context.Context, id, title string) error {
	return m.Called(ctx, id, title).Error(0)
}

func (m *MockSessionService) Clear(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockConversationReader is a testify mock of interfaces.ConversationReader.
type MockConversationReader struct {
	mock.Mock
}

func NewMockConversationReader(t testingT) *MockConversationReader {
	m := &MockConversationReader{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockConversationReader) SessionID() string {
	return m.Called().String(0)
}

func (m *MockConversationReader) Messages() []model.Message {
	args := m.Called()
	if v := args.Get(0); v != nil {
		return v.([]model.Message)
	}
	return nil
}

func (m *MockConversationReader) CurrentDocument() (string, bool) {
	args := m.Called()
	return args.String(0), args.Bool(1)
}

// MockChatService is a testify mock of interfaces.ChatService.
type MockChatService struct {
	mock.Mock
}

func NewMockChatService(t testingT) *MockChatService {
	m := &MockChatService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockChatService) Send(ctx context.Context, input string) (*service.Turn, error) {
	args := m.Called(ctx, input)
	var turn *service.Turn
	if v := args.Get(0); v != nil {
		turn = v.(*service.Turn)
	}
	return turn, args.Error(1)
}

func (m *MockChatService) Generate(ctx context.Context, req backend.GenerateRequest) (*service.Turn, error) {
	args := m.Called(ctx, req)
	var turn *service.Turn
	if v := args.Get(0); v != nil {
		turn = v.(*service.Turn)
	}
	return turn, args.Error(1)
}

func (m *MockChatService) Abort(sessionID string) error {
	return m.Called(sessionID).Error(0)
}

func (m *MockChatService) ActiveTurn(sessionID string) (*service.Turn, bool) {
	args := m.Called(sessionID)
	var turn *service.Turn
	if v := args.Get(0); v != nil {
		turn = v.(*service.Turn)
	}
	return turn, args.Bool(1)
}

// MockExportService is a testify mock of interfaces.ExportService.
type MockExportService struct {
	mock.Mock
}

func NewMockExportService(t testingT) *MockExportService {
	m := &MockExportService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockExportService) Copy(ctx context.Context, text string) {
	m.Called(ctx, text)
}

func (m *MockExportService) DownloadSource(ctx context.Context, sessionID, text string) (*model.Download, error) {
	args := m.Called(ctx, sessionID, text)
	var d *model.Download
	if v := args.Get(0); v != nil {
		d = v.(*model.Download)
	}
	return d, args.Error(1)
}

func (m *MockExportService) DownloadRendered(ctx context.Context, sessionID, text string) (*model.Download, error) {
	args := m.Called(ctx, sessionID, text)
	var d *model.Download
	if v := args.Get(0); v != nil {
		d = v.(*model.Download)
	}
	return d, args.Error(1)
}

func (m *MockExportService) Downloads(ctx context.Context, sessionID string, limit int) ([]model.Download, error) {
	args := m.Called(ctx, sessionID, limit)
	var downloads []model.Download
	if v := args.Get(0); v != nil {
		downloads = v.([]model.Download)
	}
	return downloads, args.Error(1)
}
