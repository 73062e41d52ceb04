package arena

import "github.com/rocketscienceinc/othello-viewer/internal/entity"

type startRequest struct {
	Player1 entity.AgentKind `json:"player1"`
	Player2 entity.AgentKind `json:"player2"`
}

type startResponse struct {
	GameID        string   `json:"gameId"`
	Board         [][]int  `json:"board"`
	CurrentPlayer int      `json:"currentPlayer"`
	PlayerTypes   []string `json:"playerTypes,omitempty"`
}

type moveResponse struct {
	Board         [][]int    `json:"board"`
	CurrentPlayer *int       `json:"currentPlayer,omitempty"`
	GameOver      bool       `json:"gameOver,omitempty"`
	Winner        *int       `json:"winner,omitempty"`
	Score         *wireScore `json:"score,omitempty"`
	SkipTurn      bool       `json:"skipTurn,omitempty"`
	LastMove      []int      `json:"lastMove,omitempty"`
	PlayerTypes   []string   `json:"playerTypes,omitempty"`
}

type wireScore struct {
	Black int `json:"black"`
	White int `json:"white"`
}

type wireStatsRecord struct {
	GamesPlayed  int     `json:"games_played"`
	Wins         int     `json:"wins"`
	WinRate      float64 `json:"win_rate"`
	ModelTrained bool    `json:"model_trained"`
}

type keysResponse struct {
	KeysValid bool            `json:"keysValid"`
	Status    map[string]bool `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// StartResult is the remote service's answer to a session-creation request.
type StartResult struct {
	GameID      string
	Board       entity.Board
	CurrentSide entity.Side
}

// MoveResult is one step of a running match. CurrentSide is nil when the remote omitted it,
// which it does on game-over responses.
type MoveResult struct {
	Board        entity.Board
	CurrentSide  *entity.Side
	IsOver       bool
	Winner       entity.Winner
	Score        *entity.Score
	MustSkipTurn bool
	LastMove     *entity.Coord
}

// KeysStatus reports whether the remote has credentials configured for each agent backend.
type KeysStatus struct {
	Valid  bool
	Agents map[entity.AgentKind]bool
}
