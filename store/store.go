// Package store archives exported layout documents in a SQLite database so
// that earlier analyses can be listed and fetched by id.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tsawler/uilayout/export"
)

// ErrNotFound is returned when no archived layout has the requested id
var ErrNotFound = errors.New("layout not found")

// DefaultListLimit caps List when no positive limit is given
const DefaultListLimit = 50

// Entry summarizes one archived layout
type Entry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	Components int       `json:"components"`
	Lists      int       `json:"lists"`
	Blocks     int       `json:"blocks"`
	CreatedAt  time.Time `json:"created_at"`
}

// Record is an archived layout with its document
type Record struct {
	Entry
	Document export.Document `json:"document"`
}

// Archive wraps the SQLite database connection.
type Archive struct {
	conn *sql.DB
}

// Open opens (or creates) the archive at path.
func Open(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time
	conn.SetMaxOpenConns(1)

	a := &Archive{conn: conn}
	if err := a.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return a, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.conn.Close()
}

func (a *Archive) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS layouts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			width REAL NOT NULL DEFAULT 0,
			height REAL NOT NULL DEFAULT 0,
			components INTEGER NOT NULL DEFAULT 0,
			lists INTEGER NOT NULL DEFAULT 0,
			blocks INTEGER NOT NULL DEFAULT 0,
			document_json TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_layouts_created ON layouts(created_at)`,
	}

	for _, m := range migrations {
		if _, err := a.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}

// Save archives doc under name and returns its new id.
func (a *Archive) Save(ctx context.Context, name string, doc export.Document) (string, error) {
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, doc, false); err != nil {
		return "", err
	}

	blocks := 0
	if doc.Root != nil {
		doc.Root.Walk(func(*export.Node) { blocks++ })
	}

	id := uuid.New().String()
	_, err := a.conn.ExecContext(ctx,
		`INSERT INTO layouts (id, name, width, height, components, lists, blocks, document_json, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, name, doc.Screen.Width, doc.Screen.Height, len(doc.Components), len(doc.Lists), blocks, buf.String(), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("save layout: %w", err)
	}
	return id, nil
}

// Get returns the archived layout with the given id.
func (a *Archive) Get(ctx context.Context, id string) (*Record, error) {
	var (
		r    Record
		data string
	)
	err := a.conn.QueryRowContext(ctx,
		`SELECT id, name, width, height, components, lists, blocks, created_at, document_json FROM layouts WHERE id = ?`, id,
	).Scan(&r.ID, &r.Name, &r.Width, &r.Height, &r.Components, &r.Lists, &r.Blocks, &r.CreatedAt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get layout %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get layout: %w", err)
	}

	doc, err := export.DecodeDocument(bytes.NewReader([]byte(data)))
	if err != nil {
		return nil, fmt.Errorf("get layout %s: %w", id, err)
	}
	r.Document = doc
	return &r, nil
}

// List returns the most recent entries, newest first.
func (a *Archive) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := a.conn.QueryContext(ctx,
		`SELECT id, name, width, height, components, lists, blocks, created_at FROM layouts ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Width, &e.Height, &e.Components, &e.Lists, &e.Blocks, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes an archived layout.
func (a *Archive) Delete(ctx context.Context, id string) error {
	res, err := a.conn.ExecContext(ctx, `DELETE FROM layouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete layout %s: %w", id, ErrNotFound)
	}
	return nil
}
