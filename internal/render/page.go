package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/rocketscienceinc/othello-viewer/internal/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	tmplPage   = "page"
	tmplBoard  = "board"
	tmplStatus = "status"
	tmplStats  = "stats"
	tmplSetup  = "setup"
	tmplError  = "error"
)

// PageView is everything the templates read. Board and Status are nil until a session exists.
type PageView struct {
	Board      *BoardView
	Status     *StatusView
	Stats      StatsView
	Setup      SetupView
	Error      string
	Loading    bool
	Started    bool
	SocketPort string
}

// View - derives the page view from a controller snapshot.
func View(snapshot entity.Snapshot) PageView {
	view := PageView{
		Stats:   Stats(snapshot.Stats),
		Setup:   Setup(snapshot),
		Error:   snapshot.Error,
		Loading: snapshot.Loading,
		Started: snapshot.IsStarted(),
	}

	if snapshot.Session != nil {
		board := Board(snapshot.Game.Board, snapshot.Game.LastMove)
		status := Status(snapshot.Game, snapshot.Session.AgentA, snapshot.Session.AgentB)

		view.Board = &board
		view.Status = &status
	}

	return view
}

// Fragments are the independently replaceable parts of the page.
type Fragments struct {
	Board  string `json:"board"`
	Status string `json:"status"`
	Stats  string `json:"stats"`
	Setup  string `json:"setup"`
	Error  string `json:"error"`
}

type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	templates, err := template.New(tmplPage).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{templates: templates}, nil
}

// Page - writes the full document for the snapshot.
func (that *Renderer) Page(w io.Writer, snapshot entity.Snapshot, socketPort string) error {
	view := View(snapshot)
	view.SocketPort = socketPort

	if err := that.templates.ExecuteTemplate(w, tmplPage, view); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}

	return nil
}

// Fragments - renders each replaceable part of the page for the snapshot.
func (that *Renderer) Fragments(snapshot entity.Snapshot) (*Fragments, error) {
	view := View(snapshot)
	fragments := &Fragments{}

	for name, out := range map[string]*string{
		tmplBoard:  &fragments.Board,
		tmplStatus: &fragments.Status,
		tmplStats:  &fragments.Stats,
		tmplSetup:  &fragments.Setup,
		tmplError:  &fragments.Error,
	} {
		var buf bytes.Buffer
		if err := that.templates.ExecuteTemplate(&buf, name, view); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", name, err)
		}

		*out = buf.String()
	}

	return fragments, nil
}
