package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"stickycheck/internal/models"
	"stickycheck/internal/store"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// DBType represents the type of database
type DBType string

const (
	SQLite     DBType = "sqlite3" // mattn/go-sqlite3, cgo
	SQLitePure DBType = "sqlite"  // modernc.org/sqlite
	Postgres   DBType = "postgres"
)

func (t DBType) isSQLite() bool {
	return t == SQLite || t == SQLitePure
}

// sqliteTimeLayout is how timestamps are written to SQLite so that every
// driver reads back the same text and lexical order matches time order.
const sqliteTimeLayout = "2006-01-02 15:04:05.999999999-07:00"

// SQLStore implements the Store interface for SQL databases
type SQLStore struct {
	db     *sql.DB
	dbType DBType
	now    func() time.Time
}

var _ store.Store = (*SQLStore)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLStore with the given driver and connection string and
// creates the schema if it does not exist yet. Every failure wraps
// store.ErrStorageInit.
func New(driver, connStr string) (*SQLStore, error) {
	const op = "sqlstore.New"

	dbType := DBType(driver)
	switch dbType {
	case SQLite, SQLitePure, Postgres:
	default:
		return nil, fmt.Errorf("%s: %w: unsupported driver %q", op, store.ErrStorageInit, driver)
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, store.ErrStorageInit, err)
	}

	// One local user; a single connection also keeps a :memory: database alive
	// and makes the foreign_keys pragma stick.
	if dbType.isSQLite() {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping: %w: %w", op, store.ErrStorageInit, err)
	}

	s := &SQLStore{
		db:     db,
		dbType: dbType,
		now:    time.Now,
	}

	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: schema: %w: %w", op, store.ErrStorageInit, err)
	}

	return s, nil
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.dbType != Postgres {
		return query
	}
	var result strings.Builder
	argNum := 1
	for _, c := range query {
		if c == '?' {
			fmt.Fprintf(&result, "$%d", argNum)
			argNum++
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	var stmts []string

	if s.dbType == Postgres {
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS notes (
				id SERIAL PRIMARY KEY,
				title TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS checklist_items (
				id SERIAL PRIMARY KEY,
				note_id INTEGER NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
				text TEXT NOT NULL,
				completed BOOLEAN NOT NULL DEFAULT FALSE
			);`,
		}
	} else {
		stmts = []string{
			`PRAGMA foreign_keys = ON;`,
			`CREATE TABLE IF NOT EXISTS notes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				created_at DATETIME NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS checklist_items (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				note_id INTEGER NOT NULL,
				text TEXT NOT NULL,
				completed BOOLEAN NOT NULL DEFAULT 0,
				FOREIGN KEY(note_id) REFERENCES notes(id) ON DELETE CASCADE
			);`,
		}
	}
	stmts = append(stmts, `CREATE INDEX IF NOT EXISTS idx_checklist_items_note_id ON checklist_items(note_id);`)

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// insert runs an INSERT and returns the generated id.
func (s *SQLStore) insert(ctx context.Context, q querier, query string, args ...any) (int64, error) {
	if s.dbType == Postgres {
		var id int64
		err := q.QueryRowContext(ctx, s.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	result, err := q.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLStore) timeArg(t time.Time) any {
	if s.dbType.isSQLite() {
		return t.Format(sqliteTimeLayout)
	}
	return t
}

// Note functions
func (s *SQLStore) CreateNote(ctx context.Context, title string) (models.Note, error) {
	const op = "sqlstore.CreateNote"

	title = strings.TrimSpace(title)
	if title == "" {
		return models.Note{}, fmt.Errorf("%s: %w", op, store.ErrEmptyText)
	}

	createdAt := s.now().UTC().Truncate(time.Microsecond)
	id, err := s.insert(ctx, s.db, "INSERT INTO notes (title, created_at) VALUES (?, ?)", title, s.timeArg(createdAt))
	if err != nil {
		return models.Note{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Note{
		ID:        id,
		Title:     title,
		CreatedAt: createdAt,
		Items:     []models.ChecklistItem{},
	}, nil
}

func (s *SQLStore) ListNotes(ctx context.Context) ([]models.Note, error) {
	const op = "sqlstore.ListNotes"

	var notes []models.Note
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		notes, err = s.queryNotes(ctx, tx)
		if err != nil {
			return err
		}
		if len(notes) == 0 {
			return nil
		}

		noteIDs := make([]int64, len(notes))
		for i, n := range notes {
			noteIDs[i] = n.ID
		}
		itemMap, err := s.itemsByNoteIDs(ctx, tx, noteIDs)
		if err != nil {
			return err
		}
		for i := range notes {
			if items, ok := itemMap[notes[i].ID]; ok {
				notes[i].Items = items
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return notes, nil
}

func (s *SQLStore) queryNotes(ctx context.Context, q querier) ([]models.Note, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, title, created_at FROM notes ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		var n models.Note
		var createdAt dbTime
		if err := rows.Scan(&n.ID, &n.Title, &createdAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.CreatedAt = createdAt.Time
		n.Items = []models.ChecklistItem{}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *SQLStore) GetNote(ctx context.Context, noteID int64) (models.Note, error) {
	const op = "sqlstore.GetNote"

	var note models.Note
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		note, err = s.getNote(ctx, tx, noteID)
		if err != nil {
			return err
		}
		itemMap, err := s.itemsByNoteIDs(ctx, tx, []int64{noteID})
		if err != nil {
			return err
		}
		if items, ok := itemMap[noteID]; ok {
			note.Items = items
		}
		return nil
	})
	if err != nil {
		return models.Note{}, fmt.Errorf("%s: %w", op, err)
	}
	return note, nil
}

func (s *SQLStore) getNote(ctx context.Context, q querier, noteID int64) (models.Note, error) {
	var n models.Note
	var createdAt dbTime
	err := q.QueryRowContext(ctx, s.rebind("SELECT id, title, created_at FROM notes WHERE id = ?"), noteID).
		Scan(&n.ID, &n.Title, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, store.ErrNoteNotFound
	}
	if err != nil {
		return models.Note{}, err
	}
	n.CreatedAt = createdAt.Time
	n.Items = []models.ChecklistItem{}
	return n, nil
}

// DeleteNote removes the note and its items in one transaction. Items are
// deleted explicitly rather than through the engine's ON DELETE CASCADE.
func (s *SQLStore) DeleteNote(ctx context.Context, noteID int64) error {
	const op = "sqlstore.DeleteNote"

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM checklist_items WHERE note_id = ?"), noteID); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, s.rebind("DELETE FROM notes WHERE id = ?"), noteID)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return store.ErrNoteNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Checklist item functions
func (s *SQLStore) AddItem(ctx context.Context, noteID int64, text string) (models.ChecklistItem, error) {
	const op = "sqlstore.AddItem"

	var item models.ChecklistItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, s.rebind("SELECT 1 FROM notes WHERE id = ?"), noteID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNoteNotFound
		}
		if err != nil {
			return err
		}

		text = strings.TrimSpace(text)
		if text == "" {
			return store.ErrEmptyText
		}

		id, err := s.insert(ctx, tx, "INSERT INTO checklist_items (note_id, text) VALUES (?, ?)", noteID, text)
		if err != nil {
			return err
		}
		item = models.ChecklistItem{ID: id, NoteID: noteID, Text: text}
		return nil
	})
	if err != nil {
		return models.ChecklistItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

func (s *SQLStore) GetItem(ctx context.Context, itemID int64) (models.ChecklistItem, error) {
	const op = "sqlstore.GetItem"

	item, err := s.getItem(ctx, s.db, itemID)
	if err != nil {
		return models.ChecklistItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

func (s *SQLStore) getItem(ctx context.Context, q querier, itemID int64) (models.ChecklistItem, error) {
	var it models.ChecklistItem
	err := q.QueryRowContext(ctx, s.rebind("SELECT id, note_id, text, completed FROM checklist_items WHERE id = ?"), itemID).
		Scan(&it.ID, &it.NoteID, &it.Text, &it.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChecklistItem{}, store.ErrItemNotFound
	}
	if err != nil {
		return models.ChecklistItem{}, err
	}
	return it, nil
}

// ToggleItem flips the completed flag and returns the item as stored afterwards.
func (s *SQLStore) ToggleItem(ctx context.Context, itemID int64) (models.ChecklistItem, error) {
	const op = "sqlstore.ToggleItem"

	var item models.ChecklistItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, s.rebind("UPDATE checklist_items SET completed = NOT completed WHERE id = ?"), itemID)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return store.ErrItemNotFound
		}
		item, err = s.getItem(ctx, tx, itemID)
		return err
	})
	if err != nil {
		return models.ChecklistItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

func (s *SQLStore) DeleteItem(ctx context.Context, itemID int64) (models.ChecklistItem, error) {
	const op = "sqlstore.DeleteItem"

	var item models.ChecklistItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		item, err = s.getItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, s.rebind("DELETE FROM checklist_items WHERE id = ?"), itemID)
		return err
	})
	if err != nil {
		return models.ChecklistItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

// itemsByNoteIDs loads the items of several notes with a single query, each
// note's items in insertion order.
func (s *SQLStore) itemsByNoteIDs(ctx context.Context, q querier, noteIDs []int64) (map[int64][]models.ChecklistItem, error) {
	result := make(map[int64][]models.ChecklistItem)
	if len(noteIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(noteIDs))
	args := make([]any, len(noteIDs))
	for i, id := range noteIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf("SELECT id, note_id, text, completed FROM checklist_items WHERE note_id IN (%s) ORDER BY id ASC", strings.Join(placeholders, ","))

	rows, err := q.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it models.ChecklistItem
		if err := rows.Scan(&it.ID, &it.NoteID, &it.Text, &it.Completed); err != nil {
			return nil, fmt.Errorf("scan checklist item: %w", err)
		}
		result[it.NoteID] = append(result[it.NoteID], it)
	}
	return result, rows.Err()
}
