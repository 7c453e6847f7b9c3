package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"drafter/client/internal/model"
	"drafter/client/internal/repository"
)

// MockRepository is a testify mock of repository.Repository.
type MockRepository struct {
	mock.Mock
}

var _ repository.Repository = (*MockRepository)(nil)

// NewMockRepository creates a MockRepository whose expectations are asserted
// when the test ends.
func NewMockRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRepository) AddDownload(ctx context.Context, download *model.Download) error {
	return m.Called(ctx, download).Error(0)
}

func (m *MockRepository) ListDownloads(ctx context.Context, sessionID string, limit int) ([]model.Download, error) {
	args := m.Called(ctx, sessionID, limit)
	var downloads []model.Download
	if v := args.Get(0); v != nil {
		downloads = v.([]model.Download)
	}
	return downloads, args.Error(1)
}

func (m *MockRepository) GetSetting(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) SetSetting(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}
