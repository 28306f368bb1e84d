package typemap

import "github.com/dataux/sqlgateway/internal/backend"

// PostgreSQL type OIDs used in RowDescription.
const (
	OIDBool      = 16
	OIDInt8      = 20
	OIDInt2      = 21
	OIDInt4      = 23
	OIDText      = 25
	OIDFloat4    = 700
	OIDFloat8    = 701
	OIDBytea     = 17
	OIDVarchar   = 1043
	OIDChar      = 1042
	OIDDate      = 1082
	OIDTime      = 1083
	OIDTimestamp = 1114
	OIDNumeric   = 1700
)

// PostgresOID maps a backend column kind onto a Postgres type OID, falling
// back to text (25) for anything unmapped.
func PostgresOID(k backend.ColumnKind) int32 {
	switch k {
	case backend.KindBool:
		return OIDBool
	case backend.KindTinyInt, backend.KindSmallInt:
		return OIDInt2
	case backend.KindInt:
		return OIDInt4
	case backend.KindBigInt:
		return OIDInt8
	case backend.KindFloat:
		return OIDFloat4
	case backend.KindDouble:
		return OIDFloat8
	case backend.KindDecimal:
		return OIDNumeric
	case backend.KindChar:
		return OIDChar
	case backend.KindVarchar:
		return OIDVarchar
	case backend.KindDate:
		return OIDDate
	case backend.KindTime:
		return OIDTime
	case backend.KindTimestamp:
		return OIDTimestamp
	case backend.KindBlob:
		return OIDBytea
	default:
		return OIDText
	}
}

// PostgresTypeSize returns the fixed wire size for a type OID, or -1 for
// variable-length types.
func PostgresTypeSize(oid int32) int16 {
	switch oid {
	case OIDBool:
		return 1
	case OIDInt2:
		return 2
	case OIDInt4, OIDDate:
		return 4
	case OIDInt8, OIDFloat8, OIDTimestamp:
		return 8
	case OIDFloat4:
		return 4
	case OIDTime:
		return 8
	default:
		return -1
	}
}
