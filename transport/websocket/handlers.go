package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/othello-viewer/internal/apperror"
	"github.com/rocketscienceinc/othello-viewer/internal/entity"
)

func (that *Server) handleGameStart(ctx context.Context, msg *Message, c *client) error {
	log := that.logger.With("method", "handleGameStart", "clientID", c.id)

	var payloadReq StartPayload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		that.sendError(c, msg.Action, "invalid payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	agentA, errA := entity.ParseAgentKind(payloadReq.Player1)
	agentB, errB := entity.ParseAgentKind(payloadReq.Player2)
	if err := errors.Join(errA, errB); err != nil {
		that.sendError(c, msg.Action, err.Error())
		return nil
	}

	// the arena may take a while; keep reading so a reset can still come through
	go func() {
		err := that.controller.Start(ctx, agentA, agentB)
		switch {
		case err == nil, errors.Is(err, apperror.ErrStaleResponse):
		case errors.Is(err, apperror.ErrSessionActive):
			that.sendError(c, msg.Action, err.Error())
		case errors.Is(err, apperror.ErrStartFailed):
			// the banner carries the message through the state broadcast
			log.Info("game start failed", "error", err)
		default:
			log.Error("failed to start game", "error", err)
			that.sendError(c, msg.Action, "failed to start the game")
		}
	}()

	return nil
}

func (that *Server) handleGameReset(_ context.Context, _ *Message, c *client) error {
	that.logger.Info("game reset requested", "clientID", c.id)

	that.controller.Reset()

	return nil
}
