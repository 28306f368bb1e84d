package pgwire

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"

	u "github.com/araddon/gou"

	"github.com/dataux/sqlgateway/internal/backend"
	"github.com/dataux/sqlgateway/internal/sqlcheck"
	"github.com/dataux/sqlgateway/internal/typemap"
	"github.com/dataux/sqlgateway/models"
)

// Conn is the Postgres session controller, the pgwire counterpart to
// mysqlwire.Conn: one per accepted connection, owning the message framing
// and the bound backend session.
type Conn struct {
	frame *FrameIO
	sess  *models.Session

	// prepared holds the SQL text from the last Parse message, for the
	// extended-query Bind/Execute steps.
	prepared string
}

// NewConn wraps an accepted net.Conn for the Postgres protocol.
func NewConn(c net.Conn) *Conn {
	return &Conn{
		frame: NewFrameIO(c),
		sess:  models.NewSession(models.ProtocolPostgres, c),
	}
}

// Session exposes the underlying session; the listener closes it when the
// handshake fails.
func (c *Conn) Session() *models.Session { return c.sess }

// Handshake runs the startup phase: the SSL probe, the StartupMessage,
// the backend dial, and the fixed authentication sequence.
func (c *Conn) Handshake(ctx context.Context, factory backend.Factory, defaultSchema string) error {
	payload, err := c.frame.ReadStartupFrame()
	if err != nil {
		return err
	}

	if len(payload) == 4 && int32(binary.BigEndian.Uint32(payload)) == SSLRequestCode {
		if err := c.frame.WriteRaw([]byte("N")); err != nil {
			return err
		}
		payload, err = c.frame.ReadStartupFrame()
		if err != nil {
			return err
		}
	}

	if len(payload) < 4 {
		return io.ErrUnexpectedEOF
	}
	version := int32(binary.BigEndian.Uint32(payload[0:4]))
	if version == CancelRequestCode {
		// The server does not honor cancellation; just drop the
		// connection.
		return io.EOF
	}
	if version != ProtocolVersion3 {
		errResp := NewError("FATAL", "08006", fmt.Sprintf("unsupported protocol version %d", version))
		c.WriteError(errResp)
		return errResp
	}

	params := parseStartupParams(payload[4:])
	c.sess.User = params["user"]
	schema := params["database"]
	if schema == "" {
		schema = defaultSchema
	}
	c.sess.Schema = schema

	backendSess, err := factory.Connect(ctx, schema)
	if err != nil {
		errResp := NewError("FATAL", "08006", fmt.Sprintf("could not connect to backend: %v", err))
		c.WriteError(errResp)
		return errResp
	}
	c.sess.Backend = backendSess

	if err := c.frame.WriteMessage(ServerMsgAuth, putInt32(nil, 0)); err != nil {
		return err
	}

	serverVersion := backendSess.ServerVersion()
	if serverVersion == "" {
		serverVersion = DefaultServerVersion
	}
	statusParams := [][2]string{
		{"server_version", serverVersion},
		{"server_encoding", ServerEncoding},
		{"client_encoding", ClientEncoding},
		{"DateStyle", DefaultDateStyle},
		{"TimeZone", DefaultTimeZone},
		{"integer_datetimes", "on"},
	}
	for _, kv := range statusParams {
		buf := putCString(nil, kv[0])
		buf = putCString(buf, kv[1])
		if err := c.frame.WriteMessage(ServerMsgParameterStatus, buf); err != nil {
			return err
		}
	}

	keyData := putInt32(nil, int32(c.sess.ConnID))
	keyData = putInt32(keyData, int32(c.sess.ConnID^0x5a5a5a5a))
	if err := c.frame.WriteMessage(ServerMsgBackendKeyData, keyData); err != nil {
		return err
	}

	c.sess.TxStatus = models.TxIdle
	return c.writeReady()
}

func (c *Conn) writeReady() error {
	return c.frame.WriteMessage(ServerMsgReady, []byte{byte(c.sess.TxStatus)})
}

// parseStartupParams reads the NUL-terminated key/value pairs in a
// StartupMessage body, terminated by a zero-length key.
func parseStartupParams(data []byte) map[string]string {
	params := make(map[string]string)
	pos := 0
	for pos < len(data) {
		key, newPos := readCString(data, pos)
		pos = newPos
		if key == "" {
			break
		}
		val, newPos2 := readCString(data, pos)
		pos = newPos2
		params[key] = val
	}
	return params
}

// Run is the blocking command loop: read one tagged message, dispatch,
// repeat until Terminate/EOF/fatal error.
func (c *Conn) Run(ctx context.Context) {
	defer c.sess.Close()

	for {
		tag, payload, err := c.frame.ReadMessage()
		if err != nil {
			if err != io.EOF {
				u.Debugf("pgwire: conn %d: read error: %v", c.sess.ConnID, err)
			}
			return
		}

		if err := c.dispatch(ctx, tag, payload); err != nil {
			if err == io.EOF {
				return
			}
			c.WriteError(toPgError(err))
			c.writeReady()
		}
		if c.sess.Closed() {
			return
		}
	}
}

func (c *Conn) dispatch(ctx context.Context, tag ClientMessageType, payload []byte) error {
	switch tag {
	case ClientMsgSimpleQuery:
		return c.handleSimpleQuery(ctx, payload)
	case ClientMsgParse:
		return c.handleParse(payload)
	case ClientMsgBind:
		return c.handleBind(payload)
	case ClientMsgDescribe:
		return c.handleDescribe(payload)
	case ClientMsgExecute:
		return c.handleExecute(ctx)
	case ClientMsgClose:
		return c.handleClose()
	case ClientMsgSync:
		return c.writeReady()
	case ClientMsgTerminate:
		return io.EOF
	default:
		return NewError("ERROR", "0A000", fmt.Sprintf("unsupported message type %q", byte(tag)))
	}
}

// handleSimpleQuery implements the simple-query flow: the two
// client-compatibility rewrites, multi-statement splitting, and the
// RowDescription/DataRow/CommandComplete/ReadyForQuery response shape.
func (c *Conn) handleSimpleQuery(ctx context.Context, payload []byte) error {
	sql, _ := readCString(payload, 0)
	for _, stmt := range sqlcheck.SplitStatements(sql) {
		if err := c.runSimple(ctx, rewriteCompat(stmt)); err != nil {
			c.WriteError(toPgError(err))
			break
		}
	}
	return c.writeReady()
}

// rewriteCompat applies two small client-compatibility rewrites: the JDBC
// driver requires UTF8 where some GUI clients send UNICODE, and
// pg_database.datlastsysoid was removed in Postgres 9.0+.
func rewriteCompat(sql string) string {
	trimmed := strings.TrimSpace(sql)
	upper := strings.ToUpper(trimmed)
	switch {
	case upper == "SET CLIENT_ENCODING TO 'UNICODE'":
		return "SET client_encoding TO 'UTF8'"
	case strings.Contains(strings.ToLower(trimmed), "datlastsysoid"):
		return "SELECT DISTINCT 10000::oid as datlastsysoid FROM pg_database"
	default:
		return sql
	}
}

func (c *Conn) runSimple(ctx context.Context, sql string) error {
	result, err := c.sess.Backend.Execute(ctx, sql)
	if err != nil {
		return err
	}
	if result.HasRows() {
		return c.writeRowResult(result)
	}
	return c.frame.WriteMessage(ServerMsgCommandComplete, putCString(nil, commandTag(sql, result.UpdateCount)))
}

// commandTag builds the CommandComplete tag, keyed off the leading
// keyword since the backend doesn't return a statement kind.
func commandTag(sql string, n int64) string {
	stmt := sqlcheck.Parse(sql)
	switch stmt.Kind {
	case sqlcheck.KindInsert:
		return fmt.Sprintf("INSERT 0 %d", n)
	case sqlcheck.KindUpdate:
		return fmt.Sprintf("UPDATE %d", n)
	case sqlcheck.KindDelete:
		return fmt.Sprintf("DELETE %d", n)
	case sqlcheck.KindCreate:
		return "CREATE TABLE"
	case sqlcheck.KindDrop:
		return "DROP TABLE"
	case sqlcheck.KindAlter:
		return "ALTER TABLE"
	case sqlcheck.KindSet:
		return "SET"
	default:
		return fmt.Sprintf("SELECT %d", n)
	}
}

// writeRowResult emits RowDescription, one DataRow per row, and
// CommandComplete.
func (c *Conn) writeRowResult(res *backend.Result) error {
	if err := c.frame.WriteMessage(ServerMsgRowDescription, encodeRowDescription(res.Columns)); err != nil {
		return err
	}
	var n int64
	if res.Rows != nil {
		defer res.Rows.Close()
		for res.Rows.Next() {
			row, err := res.Rows.Scan()
			if err != nil {
				return err
			}
			if err := c.frame.WriteMessage(ServerMsgDataRow, encodeDataRow(row)); err != nil {
				return err
			}
			n++
		}
		if err := res.Rows.Err(); err != nil {
			return err
		}
	}
	return c.frame.WriteMessage(ServerMsgCommandComplete, putCString(nil, fmt.Sprintf("SELECT %d", n)))
}

// encodeRowDescription builds the RowDescription payload: int2 column
// count, then per column NUL-string name, int4 table OID (0), int2 attnum
// (0), int4 type OID, int2 type size, int4 typmod (-1), int2 format
// (0 = text).
func encodeRowDescription(cols []backend.Column) []byte {
	buf := putInt16(nil, int16(len(cols)))
	for _, col := range cols {
		buf = putCString(buf, col.Name)
		buf = putInt32(buf, 0)
		buf = putInt16(buf, 0)
		oid := typemap.PostgresOID(col.Kind)
		buf = putInt32(buf, oid)
		buf = putInt16(buf, typemap.PostgresTypeSize(oid))
		buf = putInt32(buf, -1)
		buf = putInt16(buf, 0)
	}
	return buf
}

// encodeDataRow builds the DataRow payload: int2 column count, then per
// column int4 length-or-(-1) followed by text bytes.
func encodeDataRow(row backend.Row) []byte {
	buf := putInt16(nil, int16(len(row)))
	for _, cell := range row {
		if cell == nil {
			buf = putInt32(buf, -1)
			continue
		}
		buf = putInt32(buf, int32(len(*cell)))
		buf = append(buf, *cell...)
	}
	return buf
}

// handleParse, handleBind, handleDescribe, handleExecute, handleClose
// implement the extended-query path: Parse stores the statement text, Bind
// acknowledges, and Execute actually runs it and streams real rows, so
// prepared-statement clients get live results rather than canned acks.
func (c *Conn) handleParse(payload []byte) error {
	_, pos := readCString(payload, 0) // statement name, portals unsupported
	sql, _ := readCString(payload, pos)
	c.prepared = sql
	return c.frame.WriteMessage(ServerMsgParseComplete, nil)
}

func (c *Conn) handleBind(payload []byte) error {
	// Parameter substitution is out of scope: this gateway executes the
	// prepared text as-is, so Bind only needs to acknowledge.
	return c.frame.WriteMessage(ServerMsgBindComplete, nil)
}

func (c *Conn) handleDescribe(payload []byte) error {
	return c.frame.WriteMessage(ServerMsgNoData, nil)
}

func (c *Conn) handleExecute(ctx context.Context) error {
	if c.prepared == "" {
		return c.frame.WriteMessage(ServerMsgCommandComplete, putCString(nil, "SELECT 0"))
	}
	result, err := c.sess.Backend.Execute(ctx, rewriteCompat(c.prepared))
	if err != nil {
		return err
	}
	if result.HasRows() {
		if err := c.frame.WriteMessage(ServerMsgRowDescription, encodeRowDescription(result.Columns)); err != nil {
			return err
		}
		var n int64
		if result.Rows != nil {
			defer result.Rows.Close()
			for result.Rows.Next() {
				row, err := result.Rows.Scan()
				if err != nil {
					return err
				}
				if err := c.frame.WriteMessage(ServerMsgDataRow, encodeDataRow(row)); err != nil {
					return err
				}
				n++
			}
		}
		return c.frame.WriteMessage(ServerMsgCommandComplete, putCString(nil, fmt.Sprintf("SELECT %d", n)))
	}
	return c.frame.WriteMessage(ServerMsgCommandComplete, putCString(nil, commandTag(c.prepared, result.UpdateCount)))
}

func (c *Conn) handleClose() error {
	c.prepared = ""
	return c.frame.WriteMessage(ServerMsgCloseComplete, nil)
}

// PgError carries the ErrorResponse shape: severity, SQLSTATE, message.
type PgError struct {
	Severity string
	State    string
	Message  string
}

func (e *PgError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Severity, e.Message, e.State)
}

// NewError builds a PgError.
func NewError(severity, state, message string) *PgError {
	return &PgError{Severity: severity, State: state, Message: message}
}

// toPgError wraps a backend execute failure as an ERROR/XX000.
func toPgError(err error) *PgError {
	if pe, ok := err.(*PgError); ok {
		return pe
	}
	return &PgError{Severity: "ERROR", State: "XX000", Message: err.Error()}
}

// WriteError emits the ErrorResponse: a sequence of 1-byte-code/NUL-string
// fields terminated by a zero byte. Callers MUST follow with ReadyForQuery
// so the client's state machine can recover.
func (c *Conn) WriteError(pe *PgError) error {
	buf := make([]byte, 0, 64)
	buf = append(buf, byte(ServerErrFieldSeverity))
	buf = putCString(buf, pe.Severity)
	buf = append(buf, byte(ServerErrFieldSQLState))
	buf = putCString(buf, pe.State)
	buf = append(buf, byte(ServerErrFieldMsgPrimary))
	buf = putCString(buf, pe.Message)
	buf = append(buf, 0)
	return c.frame.WriteMessage(ServerMsgErrorResponse, buf)
}
