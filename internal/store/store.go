package store

import (
	"context"
	"errors"
	"fmt"

	"stickycheck/internal/models"
)

var (
	// ErrNotFound is matched by every lookup failure.
	ErrNotFound     = errors.New("not found")
	ErrNoteNotFound = fmt.Errorf("note %w", ErrNotFound)
	ErrItemNotFound = fmt.Errorf("checklist item %w", ErrNotFound)

	// ErrEmptyText is returned when a title or item text is blank after trimming.
	ErrEmptyText = errors.New("text is empty")

	// ErrStorageInit wraps failures to open the database or create its schema.
	ErrStorageInit = errors.New("storage init failed")
)

// Store defines the interface for all database operations
type Store interface {
	// Notes
	CreateNote(ctx context.Context, title string) (models.Note, error)
	ListNotes(ctx context.Context) ([]models.Note, error)
	GetNote(ctx context.Context, noteID int64) (models.Note, error)
	DeleteNote(ctx context.Context, noteID int64) error

	// Checklist items
	AddItem(ctx context.Context, noteID int64, text string) (models.ChecklistItem, error)
	GetItem(ctx context.Context, itemID int64) (models.ChecklistItem, error)
	ToggleItem(ctx context.Context, itemID int64) (models.ChecklistItem, error)
	DeleteItem(ctx context.Context, itemID int64) (models.ChecklistItem, error) // Returns the removed item

	Ping(ctx context.Context) error
	Close() error
}
