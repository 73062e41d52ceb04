package render

import (
	"fmt"

	"github.com/rocketscienceinc/othello-viewer/internal/entity"
)

const (
	defaultAgentA = entity.AgentGemini
	defaultAgentB = entity.AgentLlama

	classEmpty = "empty"
	noKeyHint  = "API key missing"
)

type agentStyle struct {
	Label string
	Color string
}

var agentStyles = map[entity.AgentKind]agentStyle{
	entity.AgentGemini: {Label: "Gemini", Color: "#4285F4"},
	entity.AgentLlama:  {Label: "Llama", Color: "#FF9800"},
	entity.AgentDify:   {Label: "Dify", Color: "#4CAF50"},
}

func styleOf(kind entity.AgentKind) agentStyle {
	if style, ok := agentStyles[kind]; ok {
		return style
	}

	return agentStyle{Label: string(kind), Color: "#9E9E9E"}
}

// CellView is one square of the rendered grid.
type CellView struct {
	Row        int
	Col        int
	Class      string
	IsLastMove bool
}

type BoardView struct {
	Rows [][]CellView
}

// Board - maps the grid to cells styled by occupant colour, flagging the last move.
func Board(board entity.Board, lastMove *entity.Coord) BoardView {
	view := BoardView{Rows: make([][]CellView, entity.BoardSize)}

	for row := range board {
		view.Rows[row] = make([]CellView, entity.BoardSize)

		for col, cell := range board[row] {
			view.Rows[row][col] = CellView{
				Row:        row,
				Col:        col,
				Class:      cellClass(cell),
				IsLastMove: lastMove != nil && lastMove.Row == row && lastMove.Col == col,
			}
		}
	}

	return view
}

func cellClass(cell entity.Cell) string {
	switch cell {
	case entity.CellA:
		return entity.SideA.Colour()
	case entity.CellB:
		return entity.SideB.Colour()
	default:
		return classEmpty
	}
}

// SideView describes one seat for the status panel.
type SideView struct {
	Side   entity.Side
	Agent  entity.AgentKind
	Label  string
	Color  string
	Colour string
	Pieces int
}

func (that SideView) Title() string {
	return fmt.Sprintf("%s (%s)", that.Label, that.Colour)
}

type StatusView struct {
	IsOver     bool
	IsDraw     bool
	Headline   string
	SkipNotice string
	Current    *SideView
	Winner     *SideView
	Sides      []SideView
	HasScore   bool
}

// Status - summarises whose turn it is, a pass, or the result with the final score.
func Status(state entity.GameState, agentA, agentB entity.AgentKind) StatusView {
	sides := map[entity.Side]SideView{
		entity.SideA: sideView(state, entity.SideA, agentA),
		entity.SideB: sideView(state, entity.SideB, agentB),
	}

	view := StatusView{
		IsOver: state.IsOver,
		Sides:  []SideView{sides[entity.SideA], sides[entity.SideB]},
	}

	if state.IsOver {
		if state.Score != nil {
			view.HasScore = true
			view.Sides[0].Pieces = state.Score.A
			view.Sides[1].Pieces = state.Score.B
		}

		winnerSide, ok := state.Winner.Side()
		if !ok {
			view.IsDraw = true
			view.Headline = "Draw"

			return view
		}

		winner := sides[winnerSide]
		view.Winner = &winner
		view.Headline = winner.Title() + " wins"

		return view
	}

	current := sides[state.CurrentSide]
	view.Current = &current
	view.Headline = current.Title() + " to move"

	if state.MustSkipTurn {
		skipped := sides[state.SkippedSide()]
		view.SkipNotice = skipped.Title() + " has no legal move and passes"
	}

	return view
}

func sideView(state entity.GameState, side entity.Side, agent entity.AgentKind) SideView {
	style := styleOf(agent)

	cell := entity.CellA
	if side == entity.SideB {
		cell = entity.CellB
	}

	return SideView{
		Side:   side,
		Agent:  agent,
		Label:  style.Label,
		Color:  style.Color,
		Colour: side.Colour(),
		Pieces: state.Board.Count(cell),
	}
}

type StatsRowView struct {
	Agent       entity.AgentKind
	Label       string
	Color       string
	GamesPlayed int
	Wins        int
	WinRate     string
	IsTrained   bool
}

type StatsView struct {
	Rows []StatsRowView
}

func (that StatsView) IsEmpty() bool {
	return len(that.Rows) == 0
}

// Stats - one row per agent, known agents first, win rate to one decimal.
func Stats(stats entity.Stats) StatsView {
	view := StatsView{Rows: make([]StatsRowView, 0, len(stats))}

	for _, kind := range stats.OrderedKinds() {
		record := stats[kind]
		style := styleOf(kind)

		view.Rows = append(view.Rows, StatsRowView{
			Agent:       kind,
			Label:       style.Label,
			Color:       style.Color,
			GamesPlayed: record.GamesPlayed,
			Wins:        record.Wins,
			WinRate:     fmt.Sprintf("%.1f%%", record.WinRatePercent),
			IsTrained:   record.IsTrained,
		})
	}

	return view
}

type AgentOption struct {
	Kind    entity.AgentKind
	Label   string
	Color   string
	KeyHint string
}

type SetupView struct {
	Visible  bool
	Disabled bool
	Options  []AgentOption
	DefaultA entity.AgentKind
	DefaultB entity.AgentKind
}

// Setup - the two agent selectors, hidden once a session exists and locked while a request is pending.
func Setup(snapshot entity.Snapshot) SetupView {
	view := SetupView{
		Visible:  !snapshot.IsStarted(),
		Disabled: snapshot.Loading,
		DefaultA: defaultAgentA,
		DefaultB: defaultAgentB,
	}

	for _, kind := range entity.AgentKinds() {
		style := styleOf(kind)

		option := AgentOption{
			Kind:  kind,
			Label: style.Label,
			Color: style.Color,
		}

		if snapshot.KeysStatus != nil && !snapshot.KeysStatus[kind] {
			option.KeyHint = noKeyHint
		}

		view.Options = append(view.Options, option)
	}

	return view
}
