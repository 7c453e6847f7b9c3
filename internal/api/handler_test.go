// The `_test` suffix creates a "black box" test package that only sees the
// exported API of package api.
package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"drafter/client/internal/api"
	app_errors "drafter/client/internal/errors"
	"drafter/client/internal/interfaces/mocks"
	"drafter/client/internal/model"
	"drafter/client/internal/service"
)

type handlerMocks struct {
	sessions     *mocks.MockSessionService
	conversation *mocks.MockConversationReader
	chat         *mocks.MockChatService
	exporter     *mocks.MockExportService
}

// setupChatHandler builds a handler whose dependencies are all mocks.
func setupChatHandler(t *testing.T) (*api.ChatHandler, handlerMocks) {
	m := handlerMocks{
		sessions:     mocks.NewMockSessionService(t),
		conversation: mocks.NewMockConversationReader(t),
		chat:         mocks.NewMockChatService(t),
		exporter:     mocks.NewMockExportService(t),
	}
	return api.NewChatHandler(m.sessions, m.conversation, m.chat), m
}

// addChiURLParams simulates how the chi router injects URL parameters
// (e.g. `{sessionID}`) into the request's context.
func addChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for key, value := range params {
		chiCtx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestChatHandler_GetSessions(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// ARRANGE
		handler, m := setupChatHandler(t)
		created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		m.sessions.On("Refresh", mock.Anything).Return(nil).Once()
		m.sessions.On("ActiveID").Return("s2").Once()
		m.sessions.On("Sessions").Return([]model.Session{
			{ID: "s2", Title: "Acme ToS", CreatedAt: created, LastDocument: "# Acme"},
			{ID: "s1"},
		}).Once()
		m.chat.On("ActiveTurn", "s2").Return(&service.Turn{ID: "t1"}, true).Once()
		m.chat.On("ActiveTurn", "s1").Return(nil, false).Once()

		// ACT
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
		rr := httptest.NewRecorder()
		handler.GetSessions(rr, req)

		// ASSERT
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decodeBody[api.SessionListResponse](t, rr)
		require.Len(t, resp.Sessions, 2)
		assert.Equal(t, "s2", resp.ActiveID)
		assert.Equal(t, "Acme ToS", resp.Sessions[0].Title)
		assert.True(t, resp.Sessions[0].Active)
		assert.True(t, resp.Sessions[0].HasDocument)
		assert.True(t, resp.Sessions[0].TurnRunning)
		assert.Equal(t, created, resp.Sessions[0].CreatedAt.UTC())
		assert.Equal(t, "Untitled", resp.Sessions[1].Title)
		assert.Nil(t, resp.Sessions[1].CreatedAt)
	})

	t.Run("Refresh failure serves the cached list", func(t *testing.T) {
		handler, m := setupChatHandler(t)
		m.sessions.On("Refresh", mock.Anything).Return(errors.New("connection refused")).Once()
		m.sessions.On("ActiveID").Return("").Once()
		m.sessions.On("Sessions").Return([]model.Session{}).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
		rr := httptest.NewRecorder()
		handler.GetSessions(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"sessions":[]}`, rr.Body.String())
	})
}

func TestChatHandler_CreateSession(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, m := setupChatHandler(t)
		m.sessions.On("NewSession", mock.Anything).Return("s9", nil).Once()

		rr := httptest.NewRecorder()
		handler.CreateSession(rr, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "s9", decodeBody[api.SessionResponse](t, rr).ID)
	})

	t.Run("Failure - backend gave no session", func(t *testing.T) {
		handler, m := setupChatHandler(t)
		m.sessions.On("NewSession", mock.Anything).Return("", app_errors.ErrSessionUnavailable).Once()

		rr := httptest.NewRecorder()
		handler.CreateSession(rr, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})
}

func TestChatHandler_SelectSession(t *testing.T) {
	handler, m := setupChatHandler(t)
	messages := []model.Message{{ID: "m1", Role: model.RoleAssistant, Content: "# Doc"}}
	m.sessions.On("Select", mock.Anything, "s1").Return(nil).Once()
	m.conversation.On("CurrentDocument").Return("# Doc", true).Once()
	m.conversation.On("SessionID").Return("s1").Once()
	m.conversation.On("Messages").Return(messages).Once()

	req := addChiURLParams(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/select", nil), map[string]string{"sessionID": "s1"})
	rr := httptest.NewRecorder()
	handler.SelectSession(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody[api.ConversationResponse](t, rr)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "# Doc", resp.Document)
	assert.Equal(t, messages, resp.Messages)
}

func TestChatHandler_UpdateSessionTitle(t *testing.T) {
	params := map[string]string{"sessionID": "s1"}

	t.Run("Success", func(t *testing.T) {
		handler, m := setupChatHandler(t)
		m.sessions.On("Rename", mock.Anything, "s1", "Acme Terms").Return(nil).Once()

		req := addChiURLParams(httptest.NewRequest(http.MethodPut, "/api/v1/sessions/s1/title", strings.NewReader(`{"title":"Acme Terms"}`)), params)
		rr := httptest.NewRecorder()
		handler.UpdateSessionTitle(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - validation", func(t *testing.T) {
		handler, _ := setupChatHandler(t)

		req := addChiURLParams(httptest.NewRequest(http.MethodPut, "/api/v1/sessions/s1/title", strings.NewReader(`{"title":""}`)), params)
		rr := httptest.NewRecorder()
		handler.UpdateSessionTitle(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Field 'Title' failed on the 'required' tag")
	})

	t.Run("Failure - malformed body", func(t *testing.T) {
		handler, _ := setupChatHandler(t)

		req := addChiURLParams(httptest.NewRequest(http.MethodPut, "/api/v1/sessions/s1/title", strings.NewReader(`{`)), params)
		rr := httptest.NewRecorder()
		handler.UpdateSessionTitle(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Failure - backend error", func(t *testing.T) {
		handler, m := setupChatHandler(t)
		m.sessions.On("Rename", mock.Anything, "s1", "X").Return(errors.New("api returned non-2xx status 500")).Once()

		req := addChiURLParams(httptest.NewRequest(http.MethodPut, "/api/v1/sessions/s1/title", strings.NewReader(`{"title":"X"}`)), params)
		rr := httptest.NewRecorder()
		handler.UpdateSessionTitle(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestChatHandler_ClearSession(t *testing.T) {
	handler, m := setupChatHandler(t)
	m.sessions.On("Clear", mock.Anything, "missing").Return(app_errors.ErrNotFound).Once()

	req := addChiURLParams(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/missing/clear", nil), map[string]string{"sessionID": "missing"})
	rr := httptest.NewRecorder()
	handler.ClearSession(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestChatHandler_GetDocument(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, m := setupChatHandler(t)
		m.conversation.On("CurrentDocument").Return("# Privacy Policy\n\nText", true).Once()
		m.conversation.On("SessionID").Return("s1").Once()

		rr := httptest.NewRecorder()
		handler.GetDocument(rr, httptest.NewRequest(http.MethodGet, "/api/v1/document", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		resp := decodeBody[api.DocumentResponse](t, rr)
		assert.Equal(t, "Privacy Policy", resp.Title)
	})

	t.Run("No document yet", func(t *testing.T) {
		handler, m := setupChatHandler(t)
		m.conversation.On("CurrentDocument").Return("", false).Once()

		rr := httptest.NewRecorder()
		handler.GetDocument(rr, httptest.NewRequest(http.MethodGet, "/api/v1/document", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestChatHandler_HandleSendMessage(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		handler, m := setupChatHandler(t)
		m.chat.On("Send", mock.Anything, "Draft a ToS").Return(&service.Turn{ID: "t1"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/turns", strings.NewReader(`{"content":"Draft a ToS"}`))
		rr := httptest.NewRecorder()
		handler.HandleSendMessage(rr, req)

		require.Equal(t, http.StatusAccepted, rr.Code)
		assert.Equal(t, "t1", decodeBody[api.TurnResponse](t, rr).ID)
	})

	t.Run("Turn detached from the request context", func(t *testing.T) {
		handler, m := setupChatHandler(t)
		m.chat.On("Send", mock.MatchedBy(func(ctx context.Context) bool {
			return ctx.Done() == nil
		}), "Draft").Return(&service.Turn{ID: "t1"}, nil).Once()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/turns", strings.NewReader(`{"content":"Draft"}`)).WithContext(ctx)
		rr := httptest.NewRecorder()
		handler.HandleSendMessage(rr, req)

		assert.Equal(t, http.StatusAccepted, rr.Code)
	})

	t.Run("Blank message is ignored", func(t *testing.T) {
		handler, m := setupChatHandler(t)
		m.chat.On("Send", mock.Anything, "   ").Return(nil, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/turns", strings.NewReader(`{"content":"   "}`))
		rr := httptest.NewRecorder()
		handler.HandleSendMessage(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("Conflict while a turn runs", func(t *testing.T) {
		handler, m := setupChatHandler(t)
		m.chat.On("Send", mock.Anything, "again").Return(nil, app_errors.ErrTurnInProgress).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/turns", strings.NewReader(`{"content":"again"}`))
		rr := httptest.NewRecorder()
		handler.HandleSendMessage(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), "still being generated")
	})
}

func TestChatHandler_Turns(t *testing.T) {
	params := map[string]string{"sessionID": "s1"}

	t.Run("Get active turn", func(t *testing.T) {
		handler, m := setupChatHandler(t)
		m.chat.On("ActiveTurn", "s1").Return(&service.Turn{ID: "t1"}, true).Once()

		req := addChiURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/turn", nil), params)
		rr := httptest.NewRecorder()
		handler.GetActiveTurn(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("No active turn", func(t *testing.T) {
		handler, m := setupChatHandler(t)
		m.chat.On("ActiveTurn", "s1").Return(nil, false).Once()

		req := addChiURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/turn", nil), params)
		rr := httptest.NewRecorder()
		handler.GetActiveTurn(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Abort", func(t *testing.T) {
		handler, m := setupChatHandler(t)
		m.chat.On("Abort", "s1").Return(nil).Once()

		req := addChiURLParams(httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/s1/turn", nil), params)
		rr := httptest.NewRecorder()
		handler.HandleAbortTurn(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
