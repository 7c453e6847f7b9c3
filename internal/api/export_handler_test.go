package api_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"drafter/client/internal/api"
	"drafter/client/internal/interfaces/mocks"
	"drafter/client/internal/model"
)

func setupExportHandler(t *testing.T) (*api.ExportHandler, *mocks.MockConversationReader, *mocks.MockExportService) {
	conversation := mocks.NewMockConversationReader(t)
	exporter := mocks.NewMockExportService(t)
	return api.NewExportHandler(conversation, exporter), conversation, exporter
}

func TestExportHandler_HandleCopy(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, conversation, exporter := setupExportHandler(t)
		conversation.On("CurrentDocument").Return("# Doc", true).Once()
		conversation.On("SessionID").Return("s1").Once()
		exporter.On("Copy", mock.Anything, "# Doc").Return().Once()

		rr := httptest.NewRecorder()
		handler.HandleCopy(rr, httptest.NewRequest(http.MethodPost, "/api/v1/document/copy", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Nothing to copy", func(t *testing.T) {
		handler, conversation, _ := setupExportHandler(t)
		conversation.On("CurrentDocument").Return("", false).Once()

		rr := httptest.NewRecorder()
		handler.HandleCopy(rr, httptest.NewRequest(http.MethodPost, "/api/v1/document/copy", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestExportHandler_HandleDownload(t *testing.T) {
	t.Run("Rendered", func(t *testing.T) {
		handler, conversation, exporter := setupExportHandler(t)
		conversation.On("CurrentDocument").Return("# Doc", true).Once()
		conversation.On("SessionID").Return("s1").Once()
		exporter.On("DownloadRendered", mock.Anything, "s1", "# Doc").
			Return(&model.Download{ID: "d1", Format: model.FormatHTML, Path: "/tmp/terms-of-service.html"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/document/download", strings.NewReader(`{"format":"html"}`))
		rr := httptest.NewRecorder()
		handler.HandleDownload(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "d1", decodeBody[model.Download](t, rr).ID)
	})

	t.Run("Source", func(t *testing.T) {
		handler, conversation, exporter := setupExportHandler(t)
		conversation.On("CurrentDocument").Return("# Doc", true).Once()
		conversation.On("SessionID").Return("s1").Once()
		exporter.On("DownloadSource", mock.Anything, "s1", "# Doc").
			Return(&model.Download{ID: "d2", Format: model.FormatMarkdown}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/document/download", strings.NewReader(`{"format":"md"}`))
		rr := httptest.NewRecorder()
		handler.HandleDownload(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("Failure - unknown format", func(t *testing.T) {
		handler, _, _ := setupExportHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/document/download", strings.NewReader(`{"format":"pdf"}`))
		rr := httptest.NewRecorder()
		handler.HandleDownload(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "oneof")
	})

	t.Run("Failure - write error", func(t *testing.T) {
		handler, conversation, exporter := setupExportHandler(t)
		conversation.On("CurrentDocument").Return("# Doc", true).Once()
		conversation.On("SessionID").Return("s1").Once()
		exporter.On("DownloadSource", mock.Anything, "s1", "# Doc").Return(nil, errors.New("read-only file system")).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/document/download", strings.NewReader(`{"format":"md"}`))
		rr := httptest.NewRecorder()
		handler.HandleDownload(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "read-only")
	})
}

func TestExportHandler_GetDownloads(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		handler, _, exporter := setupExportHandler(t)
		exporter.On("Downloads", mock.Anything, "", 50).Return([]model.Download{}, nil).Once()

		rr := httptest.NewRecorder()
		handler.GetDownloads(rr, httptest.NewRequest(http.MethodGet, "/api/v1/downloads", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("Filtered", func(t *testing.T) {
		handler, _, exporter := setupExportHandler(t)
		exporter.On("Downloads", mock.Anything, "s1", 5).Return([]model.Download{{ID: "d1"}}, nil).Once()

		rr := httptest.NewRecorder()
		handler.GetDownloads(rr, httptest.NewRequest(http.MethodGet, "/api/v1/downloads?session_id=s1&limit=5", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decodeBody[[]model.Download](t, rr), 1)
	})
}
