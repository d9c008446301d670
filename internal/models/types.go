package models

import "time"

type Note struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	CreatedAt time.Time       `json:"created_at"`
	Items     []ChecklistItem `json:"items"`
}

// Progress returns how many of the note's items are completed and how many
// there are in total.
func (n Note) Progress() (completed, total int) {
	for _, it := range n.Items {
		if it.Completed {
			completed++
		}
	}
	return completed, len(n.Items)
}

type ChecklistItem struct {
	ID        int64  `json:"id"`
	NoteID    int64  `json:"note_id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}
