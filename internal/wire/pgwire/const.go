// Package pgwire implements the server side of the PostgreSQL 3.0 wire
// protocol: the startup/SSL-probe sequence, simple-query execution, the
// extended-query flow, and the ErrorResponse shape, enough for psql, JDBC,
// and Navicat-class clients to log in and run queries.
//
// http://www.postgresql.org/docs/current/static/protocol.html
package pgwire

// ClientMessageType is the 1-byte tag leading every post-startup client
// message.
type ClientMessageType byte

// ServerMessageType is the 1-byte tag leading every server message.
type ServerMessageType byte

// http://www.postgresql.org/docs/current/static/protocol-message-formats.html
const (
	ClientMsgBind        ClientMessageType = 'B'
	ClientMsgClose       ClientMessageType = 'C'
	ClientMsgDescribe    ClientMessageType = 'D'
	ClientMsgExecute     ClientMessageType = 'E'
	ClientMsgParse       ClientMessageType = 'P'
	ClientMsgPassword    ClientMessageType = 'p'
	ClientMsgSimpleQuery ClientMessageType = 'Q'
	ClientMsgSync        ClientMessageType = 'S'
	ClientMsgTerminate   ClientMessageType = 'X'

	ServerMsgAuth            ServerMessageType = 'R'
	ServerMsgBackendKeyData  ServerMessageType = 'K'
	ServerMsgBindComplete    ServerMessageType = '2'
	ServerMsgCommandComplete ServerMessageType = 'C'
	ServerMsgCloseComplete   ServerMessageType = '3'
	ServerMsgDataRow         ServerMessageType = 'D'
	ServerMsgErrorResponse   ServerMessageType = 'E'
	ServerMsgNoData          ServerMessageType = 'n'
	ServerMsgParameterStatus ServerMessageType = 'S'
	ServerMsgParseComplete   ServerMessageType = '1'
	ServerMsgReady           ServerMessageType = 'Z'
	ServerMsgRowDescription  ServerMessageType = 'T'
)

// ServerErrFieldType names the 1-byte field codes inside an
// ErrorResponse.
type ServerErrFieldType byte

const (
	ServerErrFieldSeverity   ServerErrFieldType = 'S'
	ServerErrFieldSQLState   ServerErrFieldType = 'C'
	ServerErrFieldMsgPrimary ServerErrFieldType = 'M'
)

// ProtocolVersion3 is the only startup protocol version this gateway
// accepts (196608 = 3 << 16).
const ProtocolVersion3 = 196608

// SSLRequestCode is the magic StartupMessage payload a client sends to
// probe for TLS support before the real StartupMessage.
const SSLRequestCode = 0x04D2162F

// CancelRequestCode identifies a CancelRequest sent in place of a real
// StartupMessage; the gateway does not honor cancellation.
const CancelRequestCode = 80877102

// Defaults advertised during the authentication sequence.
const (
	DefaultServerVersion = "13.0"
	ServerEncoding       = "UTF8"
	ClientEncoding       = "UTF8"
	DefaultDateStyle     = "ISO, MDY"
	DefaultTimeZone      = "UTC"
)
