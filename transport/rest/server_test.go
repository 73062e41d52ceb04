package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/othello-viewer/internal/apperror"
	"github.com/rocketscienceinc/othello-viewer/internal/entity"
	"github.com/rocketscienceinc/othello-viewer/internal/render"
)

type controllerMock struct {
	mock.Mock
}

func (that *controllerMock) Start(ctx context.Context, agentA, agentB entity.AgentKind) error {
	return that.Called(ctx, agentA, agentB).Error(0)
}

func (that *controllerMock) Reset() {
	that.Called()
}

func (that *controllerMock) Snapshot() entity.Snapshot {
	return that.Called().Get(0).(entity.Snapshot)
}

func newTestHandler(t *testing.T, controller *controllerMock) http.Handler {
	t.Helper()

	renderer, err := render.NewRenderer()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(logger, controller, renderer, "3001").Handler()
}

func serve(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func activeSnapshot() entity.Snapshot {
	return entity.Snapshot{
		Phase:   entity.PhaseActive,
		Session: &entity.Session{ID: "g-1", AgentA: entity.AgentGemini, AgentB: entity.AgentLlama},
		Game:    entity.InitialGameState(),
	}
}

func TestServer_Ping(t *testing.T) {
	rec := serve(newTestHandler(t, &controllerMock{}), http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestServer_Page(t *testing.T) {
	// Given: a controller awaiting setup
	controller := &controllerMock{}
	controller.On("Snapshot").Return(entity.Snapshot{Phase: entity.PhaseAwaitingSetup, Game: entity.InitialGameState()})

	// When: the page is requested
	rec := serve(newTestHandler(t, controller), http.MethodGet, "/", "")

	// Then: the setup form is rendered
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `id="setup-form"`)

	// Then: unknown paths are not served the page
	assert.Equal(t, http.StatusNotFound, serve(newTestHandler(t, controller), http.MethodGet, "/nope", "").Code)
}

func TestServer_State(t *testing.T) {
	controller := &controllerMock{}
	controller.On("Snapshot").Return(activeSnapshot())

	rec := serve(newTestHandler(t, controller), http.MethodGet, "/api/state", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot entity.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, entity.PhaseActive, snapshot.Phase)
	assert.Equal(t, "g-1", snapshot.Session.ID)
}

func TestServer_Stats(t *testing.T) {
	t.Run("Returns the held stats", func(t *testing.T) {
		controller := &controllerMock{}
		snapshot := activeSnapshot()
		snapshot.Stats = entity.Stats{entity.AgentDify: {GamesPlayed: 2, Wins: 1, WinRatePercent: 50}}
		controller.On("Snapshot").Return(snapshot)

		rec := serve(newTestHandler(t, controller), http.MethodGet, "/api/stats", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"dify":{"games_played":2,"wins":1,"win_rate":50,"model_trained":false}}`, rec.Body.String())
	})

	t.Run("Returns an empty object before the first fetch", func(t *testing.T) {
		controller := &controllerMock{}
		controller.On("Snapshot").Return(entity.Snapshot{})

		rec := serve(newTestHandler(t, controller), http.MethodGet, "/api/stats", "")

		assert.JSONEq(t, `{}`, rec.Body.String())
	})
}

func TestServer_StartSession(t *testing.T) {
	t.Run("Creates a session", func(t *testing.T) {
		// Given: a controller accepting the pairing
		controller := &controllerMock{}
		controller.On("Start", mock.Anything, entity.AgentGemini, entity.AgentDify).Return(nil).Once()
		controller.On("Snapshot").Return(activeSnapshot())

		// When: posting the pairing
		rec := serve(newTestHandler(t, controller), http.MethodPost, "/api/session", `{"player1":"gemini","player2":"dify"}`)

		// Then: 201 with the new snapshot
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"phase":"active"`)
		controller.AssertExpectations(t)
	})

	t.Run("Rejects an unknown agent", func(t *testing.T) {
		controller := &controllerMock{}

		rec := serve(newTestHandler(t, controller), http.MethodPost, "/api/session", `{"player1":"gemini","player2":"gpt"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "unknown agent kind")
		controller.AssertNotCalled(t, "Start", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Rejects a malformed body", func(t *testing.T) {
		rec := serve(newTestHandler(t, &controllerMock{}), http.MethodPost, "/api/session", `{`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Conflicts with a running session", func(t *testing.T) {
		controller := &controllerMock{}
		controller.On("Start", mock.Anything, entity.AgentLlama, entity.AgentLlama).Return(apperror.ErrSessionActive).Once()

		rec := serve(newTestHandler(t, controller), http.MethodPost, "/api/session", `{"player1":"llama","player2":"llama"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Reports a remote failure as a bad gateway", func(t *testing.T) {
		// Given: the arena refused the start
		controller := &controllerMock{}
		controller.On("Start", mock.Anything, entity.AgentDify, entity.AgentGemini).
			Return(apperror.ErrStartFailed).
			Once()
		controller.On("Snapshot").Return(entity.Snapshot{Phase: entity.PhaseAwaitingSetup, Error: "API key error: missing"})

		// When: posting the pairing
		rec := serve(newTestHandler(t, controller), http.MethodPost, "/api/session", `{"player1":"dify","player2":"gemini"}`)

		// Then: 502 with the user-facing message
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.JSONEq(t, `{"error":"API key error: missing"}`, rec.Body.String())
	})
}

func TestServer_ResetSession(t *testing.T) {
	controller := &controllerMock{}
	controller.On("Reset").Once()

	rec := serve(newTestHandler(t, controller), http.MethodDelete, "/api/session", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	controller.AssertExpectations(t)
}
