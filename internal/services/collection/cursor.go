package collection

import (
	"context"
	"time"
)

// Cursor is the last page boundary a pager reached within one scope
type Cursor struct {
	After     time.Time `json:"after"`
	Pages     int       `json:"pages"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CursorStore persists cursors so an interrupted collection can resume.
// LoadCursor returns an error wrapping errors.ErrNotFound for an unknown scope.
type CursorStore interface {
	SaveCursor(ctx context.Context, scope string, cursor Cursor) error
	LoadCursor(ctx context.Context, scope string) (*Cursor, error)
}
