package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/othello-viewer/internal/entity"
	"github.com/rocketscienceinc/othello-viewer/internal/render"
)

const (
	actionState     = "state"
	actionGameStart = "game:start"
	actionGameReset = "game:reset"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type StartPayload struct {
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
}

type StatePayload struct {
	Snapshot entity.Snapshot   `json:"snapshot"`
	HTML     *render.Fragments `json:"html"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func encodeMessage(action string, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{Action: action, Payload: payloadBytes})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}
