package api

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"stickycheck/internal/logger"
	"stickycheck/internal/middleware"
	"stickycheck/internal/store"
	"stickycheck/internal/view"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// Handlers serves the note and checklist pages. Every mutation answers with
// a redirect to the page that shows its result.
type Handlers struct {
	store    store.Store
	log      *slog.Logger
	views    *view.Renderer
	validate *validator.Validate
}

type createNoteForm struct {
	Title string `validate:"required"`
}

type addItemForm struct {
	Text string `validate:"required"`
}

func NewHandlers(s store.Store, log *slog.Logger, views *view.Renderer) *Handlers {
	return &Handlers{
		store:    s,
		log:      log,
		views:    views,
		validate: validator.New(),
	}
}

// Routes builds the request surface. The returned router can still have
// other handlers mounted on it.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.NotFound(h.NotFoundHandler)

	r.Get("/", h.HomeHandler)
	r.Get("/notes", h.ListNotesHandler)
	r.Post("/create", h.CreateNoteHandler)
	r.Get("/note/{id}", h.ViewNoteHandler)
	r.Post("/note/{id}/add", h.AddItemHandler)
	r.Post("/item/{id}/toggle", h.ToggleItemHandler)
	r.Post("/item/{id}/delete", h.DeleteItemHandler)
	r.Post("/delete_note/{id}", h.DeleteNoteHandler)

	r.Handle("/static/*", http.StripPrefix("/static/", view.Static()))

	return r
}

func (h *Handlers) requestLog(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.RequestID(r.Context())),
	)
}

func (h *Handlers) HomeHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.HomeHandler"
	h.renderPage(w, r, h.requestLog(r, op), http.StatusOK, view.PageHome, view.HomePage{Title: "Create Note"})
}

func (h *Handlers) ListNotesHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.ListNotesHandler"
	log := h.requestLog(r, op)

	notes, err := h.store.ListNotes(r.Context())
	if err != nil {
		h.fail(w, r, log, err, "failed to list notes")
		return
	}
	h.renderPage(w, r, log, http.StatusOK, view.PageNotes, view.NewNotesPage(notes))
}

func (h *Handlers) CreateNoteHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.CreateNoteHandler"
	log := h.requestLog(r, op)

	form := createNoteForm{Title: strings.TrimSpace(r.PostFormValue("title"))}
	if err := h.validate.Struct(form); err != nil {
		log.Debug("empty title, nothing created")
		redirect(w, r, "/")
		return
	}

	note, err := h.store.CreateNote(r.Context(), form.Title)
	if err != nil {
		h.fail(w, r, log, err, "failed to create note")
		return
	}

	log.Info("note created", slog.Int64("note_id", note.ID))
	redirect(w, r, notePath(note.ID))
}

func (h *Handlers) ViewNoteHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.ViewNoteHandler"
	log := h.requestLog(r, op)

	noteID, ok := pathID(r)
	if !ok {
		h.NotFoundHandler(w, r)
		return
	}

	note, err := h.store.GetNote(r.Context(), noteID)
	if err != nil {
		h.fail(w, r, log, err, "failed to get note")
		return
	}
	h.renderPage(w, r, log, http.StatusOK, view.PageNote, view.NewNotePage(note))
}

func (h *Handlers) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.AddItemHandler"
	log := h.requestLog(r, op)

	noteID, ok := pathID(r)
	if !ok {
		h.NotFoundHandler(w, r)
		return
	}

	form := addItemForm{Text: strings.TrimSpace(r.PostFormValue("text"))}
	if err := h.validate.Struct(form); err != nil {
		log.Debug("empty item text, nothing created", slog.Int64("note_id", noteID))
		redirect(w, r, notePath(noteID))
		return
	}

	item, err := h.store.AddItem(r.Context(), noteID, form.Text)
	if err != nil {
		h.fail(w, r, log, err, "failed to add item")
		return
	}

	log.Info("item added", slog.Int64("note_id", noteID), slog.Int64("item_id", item.ID))
	redirect(w, r, notePath(noteID))
}

func (h *Handlers) ToggleItemHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.ToggleItemHandler"
	log := h.requestLog(r, op)

	itemID, ok := pathID(r)
	if !ok {
		h.NotFoundHandler(w, r)
		return
	}

	item, err := h.store.ToggleItem(r.Context(), itemID)
	if err != nil {
		h.fail(w, r, log, err, "failed to toggle item")
		return
	}

	log.Info("item toggled", slog.Int64("item_id", item.ID), slog.Bool("completed", item.Completed))
	redirect(w, r, notePath(item.NoteID))
}

func (h *Handlers) DeleteItemHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.DeleteItemHandler"
	log := h.requestLog(r, op)

	itemID, ok := pathID(r)
	if !ok {
		h.NotFoundHandler(w, r)
		return
	}

	item, err := h.store.DeleteItem(r.Context(), itemID)
	if err != nil {
		h.fail(w, r, log, err, "failed to delete item")
		return
	}

	log.Info("item deleted", slog.Int64("item_id", item.ID))
	redirect(w, r, notePath(item.NoteID))
}

func (h *Handlers) DeleteNoteHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.DeleteNoteHandler"
	log := h.requestLog(r, op)

	noteID, ok := pathID(r)
	if !ok {
		h.NotFoundHandler(w, r)
		return
	}

	if err := h.store.DeleteNote(r.Context(), noteID); err != nil {
		h.fail(w, r, log, err, "failed to delete note")
		return
	}

	log.Info("note deleted", slog.Int64("note_id", noteID))
	redirect(w, r, "/notes")
}

func (h *Handlers) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.NotFoundHandler"
	h.renderPage(w, r, h.requestLog(r, op), http.StatusNotFound, view.PageNotFound, view.NotFoundPage{Title: "Not Found"})
}

// fail turns a storage error into a response: lookups of missing records get
// the not-found page, anything else is a 500.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		log.Info("record not found", logger.Err(err))
		h.NotFoundHandler(w, r)
		return
	}
	log.Error(msg, logger.Err(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (h *Handlers) renderPage(w http.ResponseWriter, r *http.Request, log *slog.Logger, status int, page string, data any) {
	var buf bytes.Buffer
	if err := h.views.Render(&buf, page, data); err != nil {
		log.Error("failed to render page", slog.String("page", page), logger.Err(err))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
	render.Status(r, status)
	render.HTML(w, r, buf.String())
}

// pathID parses the {id} URL parameter. Anything that is not a positive
// integer cannot name a record.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func notePath(noteID int64) string {
	return fmt.Sprintf("/note/%d", noteID)
}

func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}
