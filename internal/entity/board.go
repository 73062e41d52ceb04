package entity

import (
	"errors"
	"fmt"
)

const BoardSize = 8

var ErrInvalidBoard = errors.New("invalid board")

// Cell is the occupant of a single square.
type Cell int

const (
	CellEmpty Cell = 0
	CellA     Cell = 1
	CellB     Cell = 2
)

func (that Cell) IsValid() bool {
	return that == CellEmpty || that == CellA || that == CellB
}

// Board is replaced wholesale on every poll and never edited cell by cell.
type Board [BoardSize][BoardSize]Cell

// NewBoard - returns the all-empty board.
func NewBoard() Board {
	return Board{}
}

// BoardFromRows - builds a Board from the wire representation, validating its shape and cell values.
func BoardFromRows(rows [][]int) (Board, error) {
	var board Board

	if len(rows) != BoardSize {
		return board, fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidBoard, BoardSize, len(rows))
	}

	for i, row := range rows {
		if len(row) != BoardSize {
			return board, fmt.Errorf("%w: row %d has %d cells", ErrInvalidBoard, i, len(row))
		}

		for j, value := range row {
			cell := Cell(value)
			if !cell.IsValid() {
				return board, fmt.Errorf("%w: cell (%d,%d) has value %d", ErrInvalidBoard, i, j, value)
			}
			board[i][j] = cell
		}
	}

	return board, nil
}

// Rows - returns the board in its wire representation.
func (that Board) Rows() [][]int {
	rows := make([][]int, BoardSize)
	for i := range that {
		rows[i] = make([]int, BoardSize)
		for j, cell := range that[i] {
			rows[i][j] = int(cell)
		}
	}

	return rows
}

// Count - number of cells held by the given occupant.
func (that Board) Count(cell Cell) int {
	count := 0
	for i := range that {
		for _, c := range that[i] {
			if c == cell {
				count++
			}
		}
	}

	return count
}

// Coord addresses a square by row and column.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (that Coord) IsValid() bool {
	return that.Row >= 0 && that.Row < BoardSize && that.Col >= 0 && that.Col < BoardSize
}
