package mysqlwire

import (
	"context"
	"fmt"
	"strings"
	"time"

	u "github.com/araddon/gou"

	"github.com/dataux/sqlgateway/internal/backend"
	"github.com/dataux/sqlgateway/internal/sqlcheck"
)

var startTime = time.Now()

// sessionVariables serves SHOW VARIABLES LIKE '<pattern>' from a small
// static map of the handful of session/global variables common clients
// probe for at connect time.
var sessionVariables = map[string]string{
	"lower_case_file_system":   "OFF",
	"lower_case_table_names":   "0",
	"sql_mode":                 "NO_ENGINE_SUBSTITUTION",
	"character_set_client":     "utf8",
	"character_set_connection": "utf8",
	"character_set_results":    "utf8",
	"character_set_server":     "utf8",
	"max_allowed_packet":       "4194304",
	"autocommit":               "ON",
	"tx_isolation":             "REPEATABLE-READ",
	"version_comment":          "sqlgateway",
}

// dispatch takes payload[0] as the COM_* opcode and branches to its
// handler.
func (c *Conn) dispatch(ctx context.Context, data []byte) (quit bool, err error) {
	cmd := data[0]
	rest := data[1:]

	switch cmd {
	case ComQuit:
		return true, nil

	case ComInitDB:
		name := string(rest)
		if err := c.sess.Backend.SetSchema(ctx, name); err != nil {
			return false, NewSqlError(ErBadDbError, StateGeneral, "Unknown database %q: %v", name, err)
		}
		c.sess.Schema = name
		return false, c.WriteOK(nil)

	case ComQuery:
		return false, c.handleQuery(ctx, string(rest))

	case ComFieldList, ComCreateDB, ComDropDB, ComRefresh, ComProcessInfo,
		ComConnect, ComProcessKill, ComDebug, ComPing:
		return false, c.WriteOK(nil)

	case ComStatistics:
		return false, c.writeStatistics()

	case ComChangeUser:
		return false, c.handleChangeUser(ctx, rest)

	default:
		// permissive: unrecognized opcodes are acknowledged as a no-op
		// rather than rejected
		u.Debugf("conn %d: unhandled %s (%d)", c.sess.ConnID, CommandName(cmd), cmd)
		return false, c.WriteOK(nil)
	}
}

// handleChangeUser re-homes the session the same way COM_INIT_DB does.
func (c *Conn) handleChangeUser(ctx context.Context, rest []byte) error {
	user, pos := ReadNulString(rest, 0)
	c.sess.User = string(user)
	if pos < len(rest) {
		authLen := int(rest[pos])
		pos += 1 + authLen
	}
	if pos < len(rest) {
		db, _ := ReadNulString(rest, pos)
		if len(db) > 0 {
			if err := c.sess.Backend.SetSchema(ctx, string(db)); err != nil {
				return NewSqlError(ErBadDbError, StateGeneral, "Unknown database: %v", err)
			}
			c.sess.Schema = string(db)
		}
	}
	return c.WriteOK(nil)
}

// writeStatistics returns a human-readable status line, the same shape
// mysqladmin's "status" command expects.
func (c *Conn) writeStatistics() error {
	uptime := int(time.Since(startTime).Seconds())
	msg := fmt.Sprintf("Uptime: %d  Threads: 1  Questions: 0  Slow queries: 0  Opens: 0  Flush tables: 1  Open tables: 0  Queries per second avg: 0.0",
		uptime)
	return c.pkg.WritePacket([]byte(msg))
}

// handleQuery splits multi-statement input, intercepts the introspection
// queries, and forwards everything else to the backend.
func (c *Conn) handleQuery(ctx context.Context, sql string) error {
	statements := sqlcheck.SplitStatements(sql)
	if len(statements) == 0 {
		return c.WriteOK(nil)
	}
	for _, stmt := range statements {
		if err := c.runOne(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Conn) runOne(ctx context.Context, sql string) error {
	if res, ok := c.intercept(ctx, sql); ok {
		return c.WriteResultSet(res)
	}

	result, err := c.sess.Backend.Execute(ctx, sql)
	if err != nil {
		return BackendError(err)
	}
	if result.HasRows() {
		return c.WriteResultSet(result)
	}
	return c.WriteOK(&OKResult{
		AffectedRows: uint64(result.UpdateCount),
		LastInsertID: uint64(result.LastInsertID),
		Status:       StatusAutocommit,
	})
}

// intercept serves the handful of introspection queries common clients
// issue right after connecting without hitting the backend, falling back
// to backend delegation first where that's more likely to be accurate.
func (c *Conn) intercept(ctx context.Context, sql string) (*backend.Result, bool) {
	trimmed := strings.TrimSpace(sql)
	upper := strings.ToUpper(trimmed)

	switch {
	case upper == "SELECT DATABASE()":
		cols := []backend.Column{{Name: "DATABASE()", Kind: backend.KindVarchar, DisplaySize: 255}}
		val := c.sess.Schema
		return backend.StaticRows(cols, []backend.Row{{&val}}), true

	case upper == "SHOW DATABASES":
		if res, err := c.sess.Backend.Execute(ctx, sql); err == nil {
			return res, true
		}
		return staticDatabases(c.sess.Schema), true

	case strings.HasPrefix(upper, "SHOW TABLES"):
		if res, err := c.sess.Backend.Execute(ctx, sql); err == nil {
			return res, true
		}
		return staticTables(c.sess.Schema), true

	case strings.HasPrefix(upper, "SHOW VARIABLES LIKE"):
		return staticVariables(trimmed), true
	}
	return nil, false
}

func staticDatabases(current string) *backend.Result {
	cols := []backend.Column{{Name: "Database", Kind: backend.KindVarchar, DisplaySize: 255}}
	names := []string{"information_schema", "mysql", "performance_schema", "sys"}
	if current != "" {
		names = append(names, current)
	}
	rows := make([]backend.Row, len(names))
	for i, n := range names {
		n := n
		rows[i] = backend.Row{&n}
	}
	return backend.StaticRows(cols, rows)
}

func staticTables(schema string) *backend.Result {
	cols := []backend.Column{{Name: fmt.Sprintf("Tables_in_%s", schema), Kind: backend.KindVarchar, DisplaySize: 255}}
	return backend.StaticRows(cols, nil)
}

func staticVariables(sql string) *backend.Result {
	cols := []backend.Column{
		{Name: "Variable_name", Kind: backend.KindVarchar, DisplaySize: 64},
		{Name: "Value", Kind: backend.KindVarchar, DisplaySize: 255},
	}
	pattern := likePattern(sql)
	rows := make([]backend.Row, 0)
	for name, val := range sessionVariables {
		if !likeMatch(name, pattern) {
			continue
		}
		n, v := name, val
		rows = append(rows, backend.Row{&n, &v})
	}
	return backend.StaticRows(cols, rows)
}

// likePattern extracts the quoted pattern from `SHOW VARIABLES LIKE
// '<pattern>'`.
func likePattern(sql string) string {
	start := strings.IndexByte(sql, '\'')
	if start < 0 {
		return "%"
	}
	end := strings.LastIndexByte(sql, '\'')
	if end <= start {
		return "%"
	}
	return sql[start+1 : end]
}

// likeMatch is a minimal SQL LIKE matcher supporting only the leading/
// trailing '%' wildcard shapes real clients send for variable lookups.
func likeMatch(s, pattern string) bool {
	pattern = strings.ToLower(pattern)
	s = strings.ToLower(s)
	switch {
	case pattern == "%":
		return true
	case strings.HasPrefix(pattern, "%") && strings.HasSuffix(pattern, "%"):
		return strings.Contains(s, strings.Trim(pattern, "%"))
	case strings.HasSuffix(pattern, "%"):
		return strings.HasPrefix(s, strings.TrimSuffix(pattern, "%"))
	case strings.HasPrefix(pattern, "%"):
		return strings.HasSuffix(s, strings.TrimPrefix(pattern, "%"))
	default:
		return s == pattern
	}
}
