package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tagih/internal/core"
)

// QuickNoteRepository stores free-form notes. Notes are never edited.
type QuickNoteRepository struct {
	handle *Handle
	opts   options
}

func NewQuickNoteRepository(handle *Handle, opts ...Option) *QuickNoteRepository {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &QuickNoteRepository{handle: handle, opts: o}
}

// Create trims content and stores it.
func (r *QuickNoteRepository) Create(ctx context.Context, content string) (core.QuickNote, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return core.QuickNote{}, core.ErrEmptyContent
	}

	db, err := r.handle.conn(ctx)
	if err != nil {
		return core.QuickNote{}, err
	}

	res, err := db.ExecContext(ctx,
		`INSERT INTO quick_notes (content, createdAt) VALUES (?, ?)`,
		content, formatTime(r.opts.now()))
	if err != nil {
		return core.QuickNote{}, storageErr("insert quick note", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.QuickNote{}, storageErr("read inserted quick note id", err)
	}

	note, err := scanQuickNote(db.QueryRowContext(ctx,
		`SELECT id, content, createdAt FROM quick_notes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.QuickNote{}, storageErr("read inserted quick note", fmt.Errorf("quick note %d not found after insert", id))
	}
	if err != nil {
		return core.QuickNote{}, storageErr("read inserted quick note", err)
	}

	slog.InfoContext(ctx, "Quick note saved", "id", note.ID)
	return note, nil
}

// List returns every note, newest first.
func (r *QuickNoteRepository) List(ctx context.Context) ([]core.QuickNote, error) {
	db, err := r.handle.conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, content, createdAt FROM quick_notes ORDER BY createdAt DESC, id DESC`)
	if err != nil {
		return nil, storageErr("list quick notes", err)
	}
	defer rows.Close()

	notes := make([]core.QuickNote, 0)
	for rows.Next() {
		n, err := scanQuickNote(rows)
		if err != nil {
			return nil, storageErr("scan quick note", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list quick notes", err)
	}
	return notes, nil
}

// Delete removes the note. Deleting a missing id is not an error.
func (r *QuickNoteRepository) Delete(ctx context.Context, id int64) error {
	db, err := r.handle.conn(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM quick_notes WHERE id = ?`, id); err != nil {
		return storageErr("delete quick note", err)
	}
	return nil
}

func scanQuickNote(s rowScanner) (core.QuickNote, error) {
	var (
		n         core.QuickNote
		createdAt string
	)
	if err := s.Scan(&n.ID, &n.Content, &createdAt); err != nil {
		return core.QuickNote{}, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return core.QuickNote{}, fmt.Errorf("parse createdAt of quick note %d: %w", n.ID, err)
	}
	n.CreatedAt = t
	return n, nil
}
