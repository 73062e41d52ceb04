package arena

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/othello-viewer/internal/entity"
)

const (
	pathStart     = "/api/start"
	pathMove      = "/api/move/"
	pathStats     = "/api/stats"
	pathCheckKeys = "/api/check-keys"

	headerRequestID = "X-Request-ID"

	maxErrorBody = 64 << 10
)

var ErrMalformedResponse = errors.New("malformed response from arena")

// RemoteError is a non-2xx answer from the arena. Message is the remote's own error text when it sent one.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (that *RemoteError) Error() string {
	return fmt.Sprintf("arena responded %d: %s", that.StatusCode, that.Message)
}

// Client talks to the remote arena service. Requests are sent without cookies or credentials.
type Client struct {
	logger  *slog.Logger
	baseURL string
	http    *http.Client
}

func New(logger *slog.Logger, baseURL string, timeout time.Duration) *Client {
	return &Client{
		logger:  logger.With("component", "arena"),
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Start - asks the arena to create a match between the two agents.
func (that *Client) Start(ctx context.Context, agentA, agentB entity.AgentKind) (*StartResult, error) {
	body, err := json.Marshal(startRequest{Player1: agentA, Player2: agentB})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal start request: %w", err)
	}

	var resp startResponse
	if err = that.do(ctx, http.MethodPost, pathStart, body, "failed to start the game", &resp); err != nil {
		return nil, err
	}

	if resp.GameID == "" {
		return nil, fmt.Errorf("%w: empty game id", ErrMalformedResponse)
	}

	board, err := entity.BoardFromRows(resp.Board)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	side, err := entity.SideFromWire(resp.CurrentPlayer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return &StartResult{
		GameID:      resp.GameID,
		Board:       board,
		CurrentSide: side,
	}, nil
}

// Move - asks the arena to play the next move of the given match.
func (that *Client) Move(ctx context.Context, gameID string) (*MoveResult, error) {
	var resp moveResponse
	if err := that.do(ctx, http.MethodGet, pathMove+url.PathEscape(gameID), nil, "failed to fetch the next move", &resp); err != nil {
		return nil, err
	}

	result, err := resp.toResult()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return result, nil
}

// Stats - fetches the aggregate record of every agent.
func (that *Client) Stats(ctx context.Context) (entity.Stats, error) {
	var resp map[string]wireStatsRecord
	if err := that.do(ctx, http.MethodGet, pathStats, nil, "failed to fetch stats", &resp); err != nil {
		return nil, err
	}

	stats := make(entity.Stats, len(resp))
	for name, record := range resp {
		converted := entity.StatsRecord{
			GamesPlayed:    record.GamesPlayed,
			Wins:           record.Wins,
			WinRatePercent: record.WinRate,
			IsTrained:      record.ModelTrained,
		}

		if err := converted.Validate(); err != nil {
			return nil, fmt.Errorf("%w: agent %s: %w", ErrMalformedResponse, name, err)
		}

		stats[entity.AgentKind(name)] = converted
	}

	return stats, nil
}

// CheckKeys - asks the arena which agent backends have API credentials configured.
func (that *Client) CheckKeys(ctx context.Context) (*KeysStatus, error) {
	var resp keysResponse
	if err := that.do(ctx, http.MethodGet, pathCheckKeys, nil, "failed to check api keys", &resp); err != nil {
		return nil, err
	}

	status := &KeysStatus{
		Valid:  resp.KeysValid,
		Agents: make(map[entity.AgentKind]bool, len(resp.Status)),
	}
	for name, ok := range resp.Status {
		status.Agents[entity.AgentKind(name)] = ok
	}

	return status, nil
}

func (that *Client) do(ctx context.Context, method, path string, body []byte, fallback string, out any) error {
	requestID := uuid.NewString()
	log := that.logger.With("method", method, "path", path, "requestID", requestID)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, that.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()

	resp, err := that.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to arena failed: %w", err)
	}
	defer resp.Body.Close()

	log.Debug("arena responded", "status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeRemoteError(resp, fallback)
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return nil
}

// decodeRemoteError - prefers the remote's {error} text and falls back to a fixed message.
func decodeRemoteError(resp *http.Response, fallback string) error {
	remoteErr := &RemoteError{StatusCode: resp.StatusCode, Message: fallback}

	var payload errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&payload); err == nil && payload.Error != "" {
		remoteErr.Message = payload.Error
	}

	return remoteErr
}

func (that *moveResponse) toResult() (*MoveResult, error) {
	board, err := entity.BoardFromRows(that.Board)
	if err != nil {
		return nil, err
	}

	result := &MoveResult{
		Board:        board,
		IsOver:       that.GameOver,
		MustSkipTurn: that.SkipTurn,
	}

	if that.CurrentPlayer != nil {
		side, err := entity.SideFromWire(*that.CurrentPlayer)
		if err != nil {
			return nil, err
		}
		result.CurrentSide = &side
	}

	if that.Winner != nil {
		winner, err := entity.WinnerFromWire(*that.Winner)
		if err != nil {
			return nil, err
		}
		result.Winner = winner
	}

	if that.Score != nil {
		result.Score = &entity.Score{A: that.Score.White, B: that.Score.Black}
	}

	if that.LastMove != nil {
		if len(that.LastMove) != 2 {
			return nil, fmt.Errorf("last move has %d coordinates", len(that.LastMove))
		}

		coord := entity.Coord{Row: that.LastMove[0], Col: that.LastMove[1]}
		if !coord.IsValid() {
			return nil, fmt.Errorf("last move (%d,%d) is off the board", coord.Row, coord.Col)
		}
		result.LastMove = &coord
	}

	return result, nil
}
