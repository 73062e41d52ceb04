package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/othello-viewer/internal/entity"
)

func openingBoard() entity.Board {
	board := entity.NewBoard()
	board[3][3], board[4][4] = entity.CellA, entity.CellA
	board[3][4], board[4][3] = entity.CellB, entity.CellB

	return board
}

func activeSnapshot() entity.Snapshot {
	game := entity.InitialGameState()
	game.Board = openingBoard()
	game.CurrentSide = entity.SideA
	game.LastMove = &entity.Coord{Row: 3, Col: 4}

	return entity.Snapshot{
		Phase:   entity.PhaseActive,
		Session: &entity.Session{ID: "g-1", AgentA: entity.AgentGemini, AgentB: entity.AgentLlama},
		Game:    game,
	}
}

func TestBoard(t *testing.T) {
	// When: rendering the opening board with a last move
	view := Board(openingBoard(), &entity.Coord{Row: 3, Col: 4})

	// Then: cells are classed by colour and only the last move is flagged
	require.Len(t, view.Rows, entity.BoardSize)
	for _, row := range view.Rows {
		require.Len(t, row, entity.BoardSize)
	}

	assert.Equal(t, "white", view.Rows[3][3].Class)
	assert.Equal(t, "black", view.Rows[3][4].Class)
	assert.Equal(t, "empty", view.Rows[0][0].Class)
	assert.True(t, view.Rows[3][4].IsLastMove)
	assert.False(t, view.Rows[3][3].IsLastMove)
}

func TestStatus(t *testing.T) {
	t.Run("Shows whose turn it is with live piece counts", func(t *testing.T) {
		state := activeSnapshot().Game

		view := Status(state, entity.AgentGemini, entity.AgentLlama)

		assert.False(t, view.IsOver)
		require.NotNil(t, view.Current)
		assert.Equal(t, entity.AgentGemini, view.Current.Agent)
		assert.Equal(t, "Gemini (white) to move", view.Headline)
		assert.Empty(t, view.SkipNotice)
		assert.Equal(t, 2, view.Sides[0].Pieces)
		assert.Equal(t, 2, view.Sides[1].Pieces)
	})

	t.Run("Names the side that passed", func(t *testing.T) {
		// Given: side B passed and side A moves next
		state := activeSnapshot().Game
		state.MustSkipTurn = true

		view := Status(state, entity.AgentGemini, entity.AgentLlama)

		assert.Equal(t, "Llama (black) has no legal move and passes", view.SkipNotice)
		assert.Equal(t, "Gemini (white) to move", view.Headline)
	})

	t.Run("Announces the winner with the final score", func(t *testing.T) {
		state := activeSnapshot().Game
		state.IsOver = true
		state.Winner = entity.WinnerA
		state.Score = &entity.Score{A: 44, B: 20}

		view := Status(state, entity.AgentDify, entity.AgentLlama)

		assert.True(t, view.IsOver)
		require.NotNil(t, view.Winner)
		assert.Equal(t, entity.AgentDify, view.Winner.Agent)
		assert.Equal(t, "Dify (white) wins", view.Headline)
		assert.True(t, view.HasScore)
		assert.Equal(t, 44, view.Sides[0].Pieces)
		assert.Equal(t, 20, view.Sides[1].Pieces)
		assert.Nil(t, view.Current)
	})

	t.Run("Announces a draw", func(t *testing.T) {
		state := activeSnapshot().Game
		state.IsOver = true
		state.Winner = entity.WinnerDraw
		state.Score = &entity.Score{A: 32, B: 32}

		view := Status(state, entity.AgentLlama, entity.AgentLlama)

		assert.True(t, view.IsDraw)
		assert.Nil(t, view.Winner)
		assert.Equal(t, "Draw", view.Headline)
	})
}

func TestStats(t *testing.T) {
	// Given: stats keyed out of display order
	stats := entity.Stats{
		entity.AgentDify:   {GamesPlayed: 3, Wins: 1, WinRatePercent: 33.3333},
		entity.AgentGemini: {GamesPlayed: 4, Wins: 3, WinRatePercent: 75, IsTrained: true},
	}

	// When: rendering them
	view := Stats(stats)

	// Then: rows follow the agent order and rates have one decimal
	require.Len(t, view.Rows, 2)
	assert.Equal(t, entity.AgentGemini, view.Rows[0].Agent)
	assert.Equal(t, "75.0%", view.Rows[0].WinRate)
	assert.True(t, view.Rows[0].IsTrained)
	assert.Equal(t, entity.AgentDify, view.Rows[1].Agent)
	assert.Equal(t, "33.3%", view.Rows[1].WinRate)
	assert.False(t, view.IsEmpty())
	assert.True(t, Stats(nil).IsEmpty())
}

func TestSetup(t *testing.T) {
	t.Run("Offers every agent with the default pairing", func(t *testing.T) {
		view := Setup(entity.Snapshot{Phase: entity.PhaseAwaitingSetup})

		assert.True(t, view.Visible)
		assert.False(t, view.Disabled)
		assert.Equal(t, entity.AgentGemini, view.DefaultA)
		assert.Equal(t, entity.AgentLlama, view.DefaultB)
		require.Len(t, view.Options, len(entity.AgentKinds()))
		for i, kind := range entity.AgentKinds() {
			assert.Equal(t, kind, view.Options[i].Kind)
			assert.Empty(t, view.Options[i].KeyHint)
		}
	})

	t.Run("Is locked while loading and hints at missing keys", func(t *testing.T) {
		view := Setup(entity.Snapshot{
			Phase:      entity.PhaseStarting,
			Loading:    true,
			KeysStatus: map[entity.AgentKind]bool{entity.AgentGemini: true, entity.AgentLlama: true},
		})

		assert.True(t, view.Disabled)
		assert.Empty(t, view.Options[0].KeyHint)
		assert.Equal(t, noKeyHint, view.Options[2].KeyHint)
	})

	t.Run("Is hidden once a session exists", func(t *testing.T) {
		assert.False(t, Setup(activeSnapshot()).Visible)
	})
}

func TestRenderer(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	t.Run("Renders the setup page before a game", func(t *testing.T) {
		var buf bytes.Buffer

		err := renderer.Page(&buf, entity.Snapshot{Phase: entity.PhaseAwaitingSetup}, "3001")

		require.NoError(t, err)
		page := buf.String()
		assert.Contains(t, page, `id="setup-form"`)
		assert.Contains(t, page, `<option value="llama"`)
		assert.Contains(t, page, "3001")
		assert.NotContains(t, page, `class="board"`)
	})

	t.Run("Renders fragments for a running game", func(t *testing.T) {
		snapshot := activeSnapshot()
		snapshot.Error = "LLM error: <timeout>"

		fragments, err := renderer.Fragments(snapshot)

		require.NoError(t, err)
		assert.Contains(t, fragments.Board, `class="board"`)
		assert.Contains(t, fragments.Board, "cell last")
		assert.Contains(t, fragments.Status, "Gemini (white) to move")
		assert.Contains(t, fragments.Stats, "No statistics yet.")
		assert.Empty(t, fragments.Setup)
		assert.Contains(t, fragments.Error, "LLM error: &lt;timeout&gt;")
	})
}
