package backend

import (
	"context"
	"fmt"
)

// FakeFactory is a canned backend.Factory used by the wire-protocol engine
// tests, so they never need a real database.
type FakeFactory struct {
	Version string
	// Queries maps an exact SQL string to a canned response. Anything not
	// found here returns ErrNoSuchQuery.
	Queries map[string]*Result
}

// ErrNoSuchQuery is returned by FakeBackend.Execute for unregistered SQL,
// surfacing to the client as an ordinary backend execute failure.
type ErrNoSuchQuery struct{ SQL string }

func (e ErrNoSuchQuery) Error() string { return fmt.Sprintf("no such table: %q", e.SQL) }

func (f *FakeFactory) Connect(ctx context.Context, schema string) (Session, error) {
	return &FakeBackend{factory: f, schema: schema}, nil
}

// FakeBackend is a Session backed by FakeFactory.Queries.
type FakeBackend struct {
	factory *FakeFactory
	schema  string
	closed  bool
}

var _ Session = (*FakeBackend)(nil)

func (f *FakeBackend) Execute(ctx context.Context, sql string) (*Result, error) {
	if r, ok := f.factory.Queries[sql]; ok {
		return r, nil
	}
	return nil, ErrNoSuchQuery{SQL: sql}
}

func (f *FakeBackend) SetSchema(ctx context.Context, name string) error {
	f.schema = name
	return nil
}

func (f *FakeBackend) ServerVersion() string {
	if f.factory.Version != "" {
		return f.factory.Version
	}
	return "5.7.25"
}

func (f *FakeBackend) Close() error {
	f.closed = true
	return nil
}

// StaticRows builds a Result with eagerly-materialized rows, handy for
// tests that don't need lazy streaming.
func StaticRows(cols []Column, rows []Row) *Result {
	return &Result{Columns: cols, Rows: &sliceIterator{rows: rows, idx: -1}}
}

type sliceIterator struct {
	rows []Row
	idx  int
}

func (s *sliceIterator) Next() bool {
	s.idx++
	return s.idx < len(s.rows)
}

func (s *sliceIterator) Scan() (Row, error) {
	if s.idx < 0 || s.idx >= len(s.rows) {
		return nil, fmt.Errorf("scan called out of range")
	}
	return s.rows[s.idx], nil
}

func (s *sliceIterator) Err() error   { return nil }
func (s *sliceIterator) Close() error { return nil }
