// Package docindex keeps a SQLite index of the documents and exercise
// sheets that have been generated, so they can be listed without walking
// the asset store.
package docindex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// ErrNotFound is returned when no record has the requested kind and id.
var ErrNotFound = errors.New("document not found")

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id      TEXT NOT NULL,
	kind    TEXT NOT NULL,
	subject TEXT NOT NULL,
	level   TEXT NOT NULL,
	slug    TEXT NOT NULL,
	pages   INTEGER NOT NULL DEFAULT 0,
	audios  INTEGER NOT NULL DEFAULT 0,
	run_id  TEXT NOT NULL DEFAULT '',
	created INTEGER NOT NULL,
	PRIMARY KEY (kind, id)
);
CREATE INDEX IF NOT EXISTS documents_kind_created ON documents (kind, created);
`

const columns = `id, kind, subject, level, slug, pages, audios, run_id, created`

// Record describes one generated document.
type Record struct {
	ID      string    `json:"id" yaml:"id"`
	Kind    string    `json:"kind" yaml:"kind"`
	Subject string    `json:"subject" yaml:"subject"`
	Level   string    `json:"level" yaml:"level"`
	Slug    string    `json:"slug" yaml:"slug"`
	Pages   int       `json:"pages" yaml:"pages"`
	Audios  int       `json:"audios" yaml:"audios"`
	RunID   string    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Created time.Time `json:"created" yaml:"created"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Kind  string
	Limit int
}

// Index is a document index backed by a single SQLite connection.
type Index struct {
	mu   sync.Mutex
	conn *sqlite.Conn
}

// Open opens (creating if needed) the index at path.
func Open(path string) (*Index, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("opening document index %s: %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating document index schema: %w", err)
	}
	return &Index{conn: conn}, nil
}

// Close closes the underlying connection.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.conn.Close()
}

// with runs fn holding the connection, interrupting it when ctx is done.
func (x *Index) with(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.conn.SetInterrupt(ctx.Done())
	defer x.conn.SetInterrupt(nil)
	return fn(x.conn)
}

// Put inserts or replaces a record. A zero Created is set to now.
func (x *Index) Put(ctx context.Context, r Record) error {
	if r.ID == "" || r.Kind == "" {
		return errors.New("document record needs a kind and an id")
	}
	if r.Created.IsZero() {
		r.Created = time.Now()
	}
	return x.with(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`INSERT OR REPLACE INTO documents (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				r.ID, r.Kind, r.Subject, r.Level, r.Slug, r.Pages, r.Audios, r.RunID, r.Created.Unix(),
			}})
	})
}

// Get returns the record of kind with the given id.
func (x *Index) Get(ctx context.Context, kind, id string) (Record, error) {
	var (
		rec   Record
		found bool
	)
	err := x.with(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT `+columns+` FROM documents WHERE kind = ? AND id = ?`,
			&sqlitex.ExecOptions{
				Args: []any{kind, id},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					rec, found = scan(stmt), true
					return nil
				},
			})
	})
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return rec, nil
}

// List returns records newest first.
func (x *Index) List(ctx context.Context, f Filter) ([]Record, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	var out []Record
	err := x.with(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT `+columns+` FROM documents WHERE (? = '' OR kind = ?) ORDER BY created DESC, id LIMIT ?`,
			&sqlitex.ExecOptions{
				Args: []any{f.Kind, f.Kind, limit},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					out = append(out, scan(stmt))
					return nil
				},
			})
	})
	return out, err
}

// Delete removes a record. Deleting a missing record is not an error.
func (x *Index) Delete(ctx context.Context, kind, id string) error {
	return x.with(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `DELETE FROM documents WHERE kind = ? AND id = ?`,
			&sqlitex.ExecOptions{Args: []any{kind, id}})
	})
}

// Counts returns the number of records per kind.
func (x *Index) Counts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)
	err := x.with(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT kind, COUNT(*) FROM documents GROUP BY kind`,
			&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
				out[stmt.ColumnText(0)] = stmt.ColumnInt(1)
				return nil
			}})
	})
	return out, err
}

func scan(stmt *sqlite.Stmt) Record {
	return Record{
		ID:      stmt.ColumnText(0),
		Kind:    stmt.ColumnText(1),
		Subject: stmt.ColumnText(2),
		Level:   stmt.ColumnText(3),
		Slug:    stmt.ColumnText(4),
		Pages:   stmt.ColumnInt(5),
		Audios:  stmt.ColumnInt(6),
		RunID:   stmt.ColumnText(7),
		Created: time.Unix(stmt.ColumnInt64(8), 0),
	}
}
