// Package backend defines the generic SQL-execution abstraction the wire
// protocol engines run every statement through. Session is a plain
// interface so the gateway stays testable against a fake backend without a
// real database; SQLFactory is the database/sql-backed implementation the
// gateway ships with.
package backend

import "context"

// ColumnKind is the backend-neutral column type the type mapper translates
// into a MySQL column-type byte or a PostgreSQL type OID.
type ColumnKind int

const (
	KindUnknown ColumnKind = iota
	KindBool
	KindTinyInt
	KindSmallInt
	KindInt
	KindBigInt
	KindFloat
	KindDouble
	KindDecimal
	KindDate
	KindTime
	KindTimestamp
	KindChar
	KindVarchar
	KindText
	KindBlob
	KindBit
)

// Column describes one result column: enough for both wire protocols to
// build their own header frames.
type Column struct {
	Name          string
	Kind          ColumnKind
	DisplaySize   int
	Nullable      bool
	Signed        bool
	AutoIncrement bool
	Precision     int
	Scale         int
}

// Row is one row of text-formatted cell values; a nil entry means SQL NULL.
type Row []*string

// RowIterator lazily yields rows, mirroring database/sql.Rows without tying
// callers to that concrete type.
type RowIterator interface {
	Next() bool
	Scan() (Row, error)
	Err() error
	Close() error
}

// Result is what executing one statement against the backend yields: either
// a row-producing ResultSet, or an UpdateCount for DML/DDL.
type Result struct {
	Columns      []Column
	Rows         RowIterator
	UpdateCount  int64
	LastInsertID int64
}

// HasRows reports whether this Result carries a row stream (a SELECT-shaped
// response) as opposed to a bare update count.
func (r *Result) HasRows() bool { return r.Columns != nil }

// Session is the backend connection factory's product: one bound
// connection per client session.
type Session interface {
	// Execute runs sql against the backend and returns its result shape.
	Execute(ctx context.Context, sql string) (*Result, error)
	// SetSchema switches the backend's current database/schema, used by
	// COM_INIT_DB (MySQL) and a Postgres `database` StartupMessage param
	// change is not supported mid-session (real servers don't allow it
	// either).
	SetSchema(ctx context.Context, name string) error
	// ServerVersion is reported in the MySQL handshake / Postgres
	// ParameterStatus(server_version).
	ServerVersion() string
	// Close releases the backend connection. MUST be idempotent.
	Close() error
}

// Factory dials backend sessions, consumed once per accepted client
// connection.
type Factory interface {
	Connect(ctx context.Context, schema string) (Session, error)
}
