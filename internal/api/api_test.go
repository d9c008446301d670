package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"stickycheck/internal/logger"
	"stickycheck/internal/models"
	"stickycheck/internal/store"
	"stickycheck/internal/store/sqlstore"
	"stickycheck/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store   *sqlstore.SQLStore
	handler http.Handler
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlstore.New("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	views, err := view.New()
	require.NoError(t, err)

	return &testEnv{
		store:   s,
		handler: NewHandlers(s, logger.Discard(), views).Routes(),
	}
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func (e *testEnv) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, location, w.Header().Get("Location"))
}

func TestHome(t *testing.T) {
	env := setup(t)

	w := env.get("/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `action="/create"`)
	assert.Contains(t, w.Body.String(), `name="title"`)
}

func TestCreateNote(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	w := env.post("/create", url.Values{"title": {"  Groceries  "}})

	notes, err := env.store.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Groceries", notes[0].Title)
	assertRedirect(t, w, notePath(notes[0].ID))
}

func TestCreateNoteWithBlankTitleIsSilent(t *testing.T) {
	env := setup(t)

	for _, title := range []string{"", "   ", "\t"} {
		w := env.post("/create", url.Values{"title": {title}})
		assertRedirect(t, w, "/")
	}
	w := env.post("/create", nil)
	assertRedirect(t, w, "/")

	notes, err := env.store.ListNotes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestListNotesEmpty(t *testing.T) {
	env := setup(t)

	w := env.get("/notes")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No notes yet.")
}

func TestViewNote(t *testing.T) {
	env := setup(t)

	t.Run("not found", func(t *testing.T) {
		for _, path := range []string{"/note/999", "/note/abc", "/note/-1", "/note/0"} {
			w := env.get(path)
			assert.Equal(t, http.StatusNotFound, w.Code, path)
			assert.Contains(t, w.Body.String(), "Nothing here.", path)
		}
	})

	t.Run("empty note", func(t *testing.T) {
		note, err := env.store.CreateNote(context.Background(), "Empty")
		require.NoError(t, err)

		w := env.get(notePath(note.ID))
		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "<h2>Empty</h2>")
		assert.Contains(t, body, "No items yet.")
		assert.NotContains(t, body, "completed</div>")
	})
}

func TestAddItem(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	note, err := env.store.CreateNote(ctx, "Packing")
	require.NoError(t, err)
	path := notePath(note.ID)

	w := env.post(path+"/add", url.Values{"text": {" socks "}})
	assertRedirect(t, w, path)

	w = env.post(path+"/add", url.Values{"text": {"  "}})
	assertRedirect(t, w, path)

	got, err := env.store.GetNote(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "socks", got.Items[0].Text)

	t.Run("missing note", func(t *testing.T) {
		w := env.post("/note/4040/add", url.Values{"text": {"orphan"}})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = env.post("/note/nope/add", url.Values{"text": {"orphan"}})
		assert.Equal(t, http.StatusNotFound, w.Code)

		// Blank text is declined before the note is looked up.
		w = env.post("/note/4040/add", url.Values{"text": {"  "}})
		assertRedirect(t, w, "/note/4040")
	})
}

func TestToggleAndDeleteItem(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	note, err := env.store.CreateNote(ctx, "Chores")
	require.NoError(t, err)
	item, err := env.store.AddItem(ctx, note.ID, "dishes")
	require.NoError(t, err)

	w := env.post("/item/"+itoa(item.ID)+"/toggle", nil)
	assertRedirect(t, w, notePath(note.ID))

	got, err := env.store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	w = env.post("/item/"+itoa(item.ID)+"/delete", nil)
	assertRedirect(t, w, notePath(note.ID))

	_, err = env.store.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, store.ErrItemNotFound)

	assert.Equal(t, http.StatusNotFound, env.post("/item/"+itoa(item.ID)+"/toggle", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.post("/item/"+itoa(item.ID)+"/delete", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.post("/item/x/toggle", nil).Code)
}

func TestDeleteNote(t *testing.T) {
	env := setup(t)

	assert.Equal(t, http.StatusNotFound, env.post("/delete_note/77", nil).Code)

	note, err := env.store.CreateNote(context.Background(), "Gone")
	require.NoError(t, err)

	w := env.post("/delete_note/"+itoa(note.ID), nil)
	assertRedirect(t, w, "/notes")
	assert.Equal(t, http.StatusNotFound, env.get(notePath(note.ID)).Code)
}

func TestMethodsAndUnknownPaths(t *testing.T) {
	env := setup(t)

	assert.Equal(t, http.StatusMethodNotAllowed, env.get("/create").Code)
	assert.Equal(t, http.StatusNotFound, env.get("/does/not/exist").Code)
}

func TestStaticStylesheet(t *testing.T) {
	env := setup(t)

	w := env.get("/static/sticky.css")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".note-card")
}

func TestGroceriesScenario(t *testing.T) {
	env := setup(t)

	w := env.post("/create", url.Values{"title": {"Groceries"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	notePage := w.Header().Get("Location")

	assertRedirect(t, env.post(notePage+"/add", url.Values{"text": {"milk"}}), notePage)
	assertRedirect(t, env.post(notePage+"/add", url.Values{"text": {""}}), notePage)

	note, err := env.store.GetNote(context.Background(), mustID(t, notePage))
	require.NoError(t, err)
	require.Len(t, note.Items, 1)

	assertRedirect(t, env.post("/item/"+itoa(note.Items[0].ID)+"/toggle", nil), notePage)

	w = env.get("/notes")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Groceries")
	assert.Contains(t, w.Body.String(), "1/1 completed")

	w = env.get(notePage)
	assert.Contains(t, w.Body.String(), "1/1 completed")
	assert.Contains(t, w.Body.String(), "milk")
}

func TestDeleteNoteWithItemsScenario(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	note, err := env.store.CreateNote(ctx, "Doomed")
	require.NoError(t, err)
	first, err := env.store.AddItem(ctx, note.ID, "one")
	require.NoError(t, err)
	second, err := env.store.AddItem(ctx, note.ID, "two")
	require.NoError(t, err)

	assertRedirect(t, env.post("/delete_note/"+itoa(note.ID), nil), "/notes")

	w := env.get("/notes")
	assert.NotContains(t, w.Body.String(), "Doomed")

	for _, id := range []int64{first.ID, second.ID} {
		assert.Equal(t, http.StatusNotFound, env.post("/item/"+itoa(id)+"/toggle", nil).Code)
		assert.Equal(t, http.StatusNotFound, env.post("/item/"+itoa(id)+"/delete", nil).Code)
	}
}

// brokenStore fails every listing with a storage error.
type brokenStore struct {
	store.Store
}

func (brokenStore) ListNotes(context.Context) ([]models.Note, error) {
	return nil, errors.New("disk on fire")
}

func TestStorageErrorIsInternal(t *testing.T) {
	views, err := view.New()
	require.NoError(t, err)
	h := NewHandlers(brokenStore{}, logger.Discard(), views).Routes()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notes", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")
}
