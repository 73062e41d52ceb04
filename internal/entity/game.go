package entity

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSide   = errors.New("unknown side")
	ErrUnknownWinner = errors.New("unknown winner")
)

// Side is one of the two seats. Side A is wire player 1 (white), side B is wire player 2 (black).
type Side int

const (
	SideA Side = 1
	SideB Side = 2
)

// SideFromWire - converts the remote currentPlayer value.
func SideFromWire(value int) (Side, error) {
	side := Side(value)
	if side != SideA && side != SideB {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSide, value)
	}

	return side, nil
}

func (that Side) Opponent() Side {
	if that == SideA {
		return SideB
	}
	return SideA
}

// Colour - the piece colour the side plays with.
func (that Side) Colour() string {
	if that == SideA {
		return "white"
	}
	return "black"
}

func (that Side) String() string {
	switch that {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return "unknown"
	}
}

// Winner is absent until the game is over.
type Winner string

const (
	WinnerNone Winner = ""
	WinnerA    Winner = "A"
	WinnerB    Winner = "B"
	WinnerDraw Winner = "draw"
)

// WinnerFromWire - converts the remote winner value (0 draw, 1 player1, 2 player2).
func WinnerFromWire(value int) (Winner, error) {
	switch value {
	case 0:
		return WinnerDraw, nil
	case 1:
		return WinnerA, nil
	case 2:
		return WinnerB, nil
	default:
		return WinnerNone, fmt.Errorf("%w: %d", ErrUnknownWinner, value)
	}
}

// Side - the winning side; false for a draw or an undecided game.
func (that Winner) Side() (Side, bool) {
	switch that {
	case WinnerA:
		return SideA, true
	case WinnerB:
		return SideB, true
	default:
		return 0, false
	}
}

// Score holds final piece counts per side.
type Score struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Session is one running match issued by the remote service.
type Session struct {
	ID     string    `json:"id"`
	AgentA AgentKind `json:"agent_a"`
	AgentB AgentKind `json:"agent_b"`
}

// Agent - the agent playing the given side.
func (that *Session) Agent(side Side) AgentKind {
	if side == SideA {
		return that.AgentA
	}
	return that.AgentB
}

// GameState is the client's view of the match. CurrentSide is always the side that moves next,
// including right after a skipped turn.
type GameState struct {
	Board        Board  `json:"board"`
	CurrentSide  Side   `json:"current_side"`
	IsOver       bool   `json:"is_over"`
	Winner       Winner `json:"winner,omitempty"`
	Score        *Score `json:"score,omitempty"`
	MustSkipTurn bool   `json:"must_skip_turn"`
	LastMove     *Coord `json:"last_move,omitempty"`
}

// InitialGameState - the state shown before a session starts and after every reset.
func InitialGameState() GameState {
	return GameState{
		Board:       NewBoard(),
		CurrentSide: SideB,
	}
}

// SkippedSide - the side that passed; only meaningful when MustSkipTurn is set.
func (that *GameState) SkippedSide() Side {
	return that.CurrentSide.Opponent()
}

// Clone - deep copy, so snapshots never share pointers with controller state.
func (that *GameState) Clone() GameState {
	clone := *that

	if that.Score != nil {
		score := *that.Score
		clone.Score = &score
	}

	if that.LastMove != nil {
		move := *that.LastMove
		clone.LastMove = &move
	}

	return clone
}
