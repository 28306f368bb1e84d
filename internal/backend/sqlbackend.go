package backend

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/go-sql-driver/mysql" // registers "mysql" driver
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver

	u "github.com/araddon/gou"
)

// Engine picks which database/sql driver SQLFactory dials.
type Engine string

const (
	EngineMySQL    Engine = "mysql"
	EnginePostgres Engine = "postgres"
)

// Target is the configured backend database coordinates.
type Target struct {
	Engine   Engine
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

// SQLFactory is the default, concrete implementation of Factory: it opens a
// database/sql connection pool against the single configured backend and
// hands out SQLBackend sessions that execute statements on it. One pool is
// shared by the process, but each SQLBackend acquires its own *sql.Conn
// from it for the life of the client session.
type SQLFactory struct {
	target Target
	db     *sql.DB
}

// NewSQLFactory opens the backend connection pool described by target.
// database/sql pools dial lazily, so errors surface on first use.
func NewSQLFactory(target Target) (*SQLFactory, error) {
	driverName, dsn, err := dsnFor(target)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to backend: %w", err)
	}
	return &SQLFactory{target: target, db: db}, nil
}

func dsnFor(t Target) (driverName, dsn string, err error) {
	switch t.Engine {
	case EngineMySQL:
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
			t.Username, t.Password, t.Host, t.Port, t.Database), nil
	case EnginePostgres:
		return "pgx", fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
			t.Username, t.Password, t.Host, t.Port, t.Database), nil
	default:
		return "", "", fmt.Errorf("unknown backend engine %q", t.Engine)
	}
}

// Connect satisfies Factory: it grabs a dedicated *sql.Conn for this
// client session, so each session exclusively owns its own backend
// connection.
func (f *SQLFactory) Connect(ctx context.Context, schema string) (Session, error) {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	s := &SQLBackend{conn: conn, engine: f.target.Engine, schema: schema}
	if schema != "" {
		if err := s.SetSchema(ctx, schema); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close shuts down the shared pool. Called once on process teardown, not
// per-session.
func (f *SQLFactory) Close() error { return f.db.Close() }

// SQLBackend implements Session over one database/sql.Conn.
type SQLBackend struct {
	mu      sync.Mutex
	conn    *sql.Conn
	engine  Engine
	schema  string
	version string
	closed  bool
}

var _ Session = (*SQLBackend)(nil)

func (s *SQLBackend) Execute(ctx context.Context, query string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if isRowProducing(query) {
		rows, err := s.conn.QueryContext(ctx, query)
		if err != nil {
			return nil, err
		}
		return resultFromRows(rows)
	}

	res, err := s.conn.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}
	affected, _ := res.RowsAffected()
	lastID, _ := res.LastInsertId()
	return &Result{UpdateCount: affected, LastInsertID: lastID}, nil
}

func (s *SQLBackend) SetSchema(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stmt string
	switch s.engine {
	case EngineMySQL:
		stmt = "USE `" + name + "`"
	case EnginePostgres:
		// Postgres has no mid-session database switch; schemas within a
		// database are the closest analogue.
		stmt = `SET search_path TO "` + name + `"`
	}
	if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
		return err
	}
	s.schema = name
	return nil
}

func (s *SQLBackend) ServerVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != "" {
		return s.version
	}
	var v string
	q := "SELECT VERSION()"
	if s.engine == EnginePostgres {
		q = "SHOW server_version"
	}
	if err := s.conn.QueryRowContext(context.Background(), q).Scan(&v); err != nil {
		u.Debugf("could not read backend server version: %v", err)
		return ""
	}
	s.version = v
	return v
}

func (s *SQLBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

// isRowProducing is a light lexical check, not a parser: a SELECT/SHOW/
// DESCRIBE/EXPLAIN-shaped statement is expected to carry rows back. If the
// guess is wrong the driver errors and that surfaces to the client as an
// ERR/ErrorResponse like any other backend failure.
func isRowProducing(sql string) bool {
	kw := firstKeyword(sql)
	switch kw {
	case "select", "show", "describe", "desc", "explain", "values", "with":
		return true
	}
	return false
}
