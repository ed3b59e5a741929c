// Package store persists and retrieves serialized documents by id,
// adapted from the teacher's internal/database connection-manager
// pattern: a mutex-guarded map of named *sql.DB connections, pluggable
// by driver. Parsing the stored bytes into a normalized node map is
// document.Parse's job; this package only moves bytes in and out.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/golang-sql/civil"
	"golang.org/x/sync/errgroup"

	// Drivers registered by side effect, one per supported backend.
	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"graphvm/internal/errors"
)

// Backend names a configured connection the way DBConnection.Type
// named a scanned target in the teacher's module.
type Backend struct {
	Name   string
	Driver string // sqlite, postgres, mysql, sqlserver
	DSN    string
}

// Record is one stored document: its serialized bytes plus the date
// it was first written (a time-zone-less civil.Date, appropriate for
// a "document created on" field with no meaningful time-of-day).
type Record struct {
	ID      string
	Body    []byte
	Created civil.Date
}

// Store manages a set of named *sql.DB connections, one per
// configured Backend, guarded by a single mutex the way the teacher's
// DatabaseModule.Connections map is.
type Store struct {
	mu    sync.RWMutex
	conns map[string]*sql.DB
}

func New() *Store {
	return &Store{conns: make(map[string]*sql.DB)}
}

// Open adds backend to the store and creates its table if absent.
// The default embedded backend (driver "sqlite") is pure Go via
// modernc.org/sqlite. The Postgres, MySQL and SQL Server drivers are
// registered, but the table and query statements use SQLite syntax
// (BLOB column, "?" placeholders, ON CONFLICT upsert, CREATE TABLE IF
// NOT EXISTS), which those dialects do not accept as written.
func (s *Store) Open(ctx context.Context, backend Backend) error {
	db, err := sql.Open(backend.Driver, backend.DSN)
	if err != nil {
		return errors.Wrap(err, "opening backend %q", backend.Name)
	}
	if err := db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "pinging backend %q", backend.Name)
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return errors.Wrap(err, "creating documents table on %q", backend.Name)
	}
	s.mu.Lock()
	s.conns[backend.Name] = db
	s.mu.Unlock()
	return nil
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS graph_documents (
	id TEXT PRIMARY KEY,
	body BLOB NOT NULL,
	created DATE NOT NULL
)`

// HealthCheck pings every configured backend concurrently, returning
// the first error encountered (errgroup's fail-fast semantics) — the
// startup check a multi-backend deployment runs before serving.
func (s *Store) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for name, db := range s.conns {
		name, db := name, db
		g.Go(func() error {
			if err := db.PingContext(gctx); err != nil {
				return errors.Wrap(err, "backend %q unhealthy", name)
			}
			return nil
		})
	}
	return g.Wait()
}

// Put stores body under id on the named backend, stamping the current
// date.
func (s *Store) Put(ctx context.Context, backend, id string, body []byte) error {
	db, err := s.conn(backend)
	if err != nil {
		return err
	}
	today := civil.DateOf(time.Now())
	_, err = db.ExecContext(ctx,
		`INSERT INTO graph_documents (id, body, created) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET body = excluded.body`,
		id, body, today.String())
	if err != nil {
		return errors.Wrap(err, "storing document %q on backend %q", id, backend)
	}
	return nil
}

// Get retrieves a previously stored document by id.
func (s *Store) Get(ctx context.Context, backend, id string) (*Record, error) {
	db, err := s.conn(backend)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `SELECT body, created FROM graph_documents WHERE id = ?`, id)
	var body []byte
	var createdStr string
	if err := row.Scan(&body, &createdStr); err != nil {
		return nil, errors.Wrap(err, "loading document %q from backend %q", id, backend)
	}
	created, err := civil.ParseDate(createdStr)
	if err != nil {
		return nil, errors.Wrap(err, "parsing stored date for %q", id)
	}
	return &Record{ID: id, Body: body, Created: created}, nil
}

func (s *Store) conn(backend string) (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, ok := s.conns[backend]
	if !ok {
		return nil, fmt.Errorf("store: unknown backend %q", backend)
	}
	return db, nil
}

// Close closes every open backend connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for name, db := range s.conns {
		if err := db.Close(); err != nil && first == nil {
			first = errors.Wrap(err, "closing backend %q", name)
		}
	}
	return first
}
