package backend

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// firstKeyword returns the lowercased leading SQL keyword, skipping leading
// whitespace and a leading "(" as seen from sub-selects and CTEs.
func firstKeyword(q string) string {
	q = strings.TrimSpace(q)
	q = strings.TrimLeft(q, "(")
	q = strings.TrimSpace(q)
	end := strings.IndexAny(q, " \t\n(")
	if end < 0 {
		end = len(q)
	}
	return strings.ToLower(q[:end])
}

// resultFromRows drains a *sql.Rows' column metadata into backend.Column
// descriptors and wraps the cursor as a RowIterator. Rows are left unread;
// Scan() happens lazily as the protocol engine streams them to the
// client.
func resultFromRows(rows *sql.Rows) (*Result, error) {
	cts, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, err
	}
	cols := make([]Column, len(cts))
	for i, ct := range cts {
		cols[i] = columnFromSQL(ct)
	}
	return &Result{
		Columns: cols,
		Rows:    &sqlRowIterator{rows: rows, n: len(cols)},
	}, nil
}

func columnFromSQL(ct *sql.ColumnType) Column {
	nullable, _ := ct.Nullable()
	length, hasLength := ct.Length()
	precision, scale, hasPrecision := ct.DecimalSize()

	c := Column{
		Name:        ct.Name(),
		Nullable:    nullable,
		Signed:      true,
		DisplaySize: 255,
	}
	if hasLength {
		c.DisplaySize = int(length)
	}
	if hasPrecision {
		c.Precision, c.Scale = int(precision), int(scale)
	}
	c.Kind = kindFromDBType(ct.DatabaseTypeName())
	return c
}

// kindFromDBType maps the driver-reported type name (MySQL and pgx both
// surface these, e.g. "VARCHAR", "INT4", "TIMESTAMP") onto the
// backend-neutral ColumnKind the type mapper consumes.
func kindFromDBType(name string) ColumnKind {
	switch strings.ToUpper(name) {
	case "TINYINT", "INT1":
		return KindTinyInt
	case "SMALLINT", "INT2", "YEAR":
		return KindSmallInt
	case "INT", "INTEGER", "INT4", "MEDIUMINT":
		return KindInt
	case "BIGINT", "INT8":
		return KindBigInt
	case "FLOAT", "FLOAT4", "REAL":
		return KindFloat
	case "DOUBLE", "FLOAT8", "DOUBLE PRECISION":
		return KindDouble
	case "DECIMAL", "NUMERIC":
		return KindDecimal
	case "DATE":
		return KindDate
	case "TIME":
		return KindTime
	case "TIMESTAMP", "DATETIME", "TIMESTAMPTZ":
		return KindTimestamp
	case "CHAR", "BPCHAR":
		return KindChar
	case "VARCHAR":
		return KindVarchar
	case "TEXT", "LONGTEXT", "MEDIUMTEXT", "TINYTEXT":
		return KindText
	case "BLOB", "LONGBLOB", "MEDIUMBLOB", "TINYBLOB", "BYTEA", "VARBINARY", "BINARY":
		return KindBlob
	case "BOOL", "BOOLEAN":
		return KindBool
	case "BIT":
		return KindBit
	default:
		return KindUnknown
	}
}

type sqlRowIterator struct {
	rows *sql.Rows
	n    int
	err  error
}

func (it *sqlRowIterator) Next() bool { return it.rows.Next() }

func (it *sqlRowIterator) Scan() (Row, error) {
	raw := make([]interface{}, it.n)
	ptrs := make([]interface{}, it.n)
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := it.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	row := make(Row, it.n)
	for i, v := range raw {
		if v == nil {
			continue
		}
		s := stringify(v)
		row[i] = &s
	}
	return row, nil
}

func (it *sqlRowIterator) Err() error   { return it.rows.Err() }
func (it *sqlRowIterator) Close() error { return it.rows.Close() }

func stringify(v interface{}) string {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case string:
		return t
	case time.Time:
		// pgx scans timestamps as time.Time; clients expect SQL text form
		return t.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", t)
	}
}
