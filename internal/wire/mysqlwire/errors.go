package mysqlwire

import "fmt"

// SqlError carries the MySQL error-packet shape: a numeric code, a
// 5-character SQLSTATE, and a message.
type SqlError struct {
	Code    uint16
	State   string
	Message string
}

func (e *SqlError) Error() string {
	return fmt.Sprintf("ERROR %d (%s): %s", e.Code, e.State, e.Message)
}

// NewSqlError builds a SqlError with a formatted message.
func NewSqlError(code uint16, state, format string, args ...interface{}) *SqlError {
	return &SqlError{Code: code, State: state, Message: fmt.Sprintf(format, args...)}
}

// BackendError wraps a backend execute failure as ERR 1001 / HY000.
func BackendError(err error) *SqlError {
	return NewSqlError(ErGatewayBackendFail, StateGeneral, "SQL Error: %v", err)
}

// AccessDenied builds the 1045 / 28000 refusal, used for the SSL request.
func AccessDenied(msg string) *SqlError {
	return NewSqlError(ErAccessDeniedError, StateSSLNotSupported, msg)
}
