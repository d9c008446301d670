// Package view renders the HTML pages served by the handler layer. Pages are
// embedded templates executed into a shared layout.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"stickycheck/internal/models"
)

//go:embed templates/*.html static/*.css
var assetsFS embed.FS

const (
	PageHome     = "home"
	PageNotes    = "notes"
	PageNote     = "note"
	PageNotFound = "not_found"
)

var pageNames = []string{PageHome, PageNotes, PageNote, PageNotFound}

type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.ParseFS(assetsFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("view: parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes the full page for name. Data must expose a Title field.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// Static serves the embedded stylesheet.
func Static() http.Handler {
	sub, err := fs.Sub(assetsFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

type HomePage struct {
	Title string
}

type NotFoundPage struct {
	Title string
}

type NoteCard struct {
	ID        int64
	Title     string
	Completed int
	Total     int
}

type NotesPage struct {
	Title string
	Notes []NoteCard
}

func NewNotesPage(notes []models.Note) NotesPage {
	cards := make([]NoteCard, 0, len(notes))
	for _, n := range notes {
		completed, total := n.Progress()
		cards = append(cards, NoteCard{ID: n.ID, Title: n.Title, Completed: completed, Total: total})
	}
	return NotesPage{Title: "All Notes", Notes: cards}
}

type NotePage struct {
	Title     string
	Note      models.Note
	Completed int
	Total     int
}

func NewNotePage(note models.Note) NotePage {
	completed, total := note.Progress()
	return NotePage{Title: note.Title, Note: note, Completed: completed, Total: total}
}
