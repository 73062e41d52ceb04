package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/othello-viewer/internal/apperror"
	"github.com/rocketscienceinc/othello-viewer/internal/entity"
)

const maxBodySize = 4096

type sessionController interface {
	Start(ctx context.Context, agentA, agentB entity.AgentKind) error
	Reset()
	Snapshot() entity.Snapshot
}

type pageRenderer interface {
	Page(w io.Writer, snapshot entity.Snapshot, socketPort string) error
}

type startRequest struct {
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	logger     *slog.Logger
	controller sessionController
	renderer   pageRenderer
	socketPort string
}

func (that *handlers) PageHandler(w http.ResponseWriter, _ *http.Request) {
	log := that.logger.With("method", "PageHandler")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := that.renderer.Page(w, that.controller.Snapshot(), that.socketPort); err != nil {
		log.Error("failed to render page", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (that *handlers) StateHandler(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.controller.Snapshot())
}

func (that *handlers) StatsHandler(w http.ResponseWriter, _ *http.Request) {
	stats := that.controller.Snapshot().Stats
	if stats == nil {
		stats = entity.Stats{}
	}

	that.writeJSON(w, http.StatusOK, stats)
}

// StartHandler - starts a session for the posted pairing and answers with the resulting snapshot.
func (that *handlers) StartHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "StartHandler")

	var req startRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	agentA, errA := entity.ParseAgentKind(req.Player1)
	agentB, errB := entity.ParseAgentKind(req.Player2)
	if err := errors.Join(errA, errB); err != nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	// the session outlives the request that created it
	err := that.controller.Start(context.WithoutCancel(r.Context()), agentA, agentB)
	switch {
	case err == nil:
		that.writeJSON(w, http.StatusCreated, that.controller.Snapshot())
	case errors.Is(err, apperror.ErrSessionActive), errors.Is(err, apperror.ErrStaleResponse):
		that.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, apperror.ErrStartFailed):
		that.writeJSON(w, http.StatusBadGateway, errorResponse{Error: that.controller.Snapshot().Error})
	default:
		log.Error("failed to start game", "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to start the game"})
	}
}

func (that *handlers) ResetHandler(w http.ResponseWriter, _ *http.Request) {
	that.controller.Reset()

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
