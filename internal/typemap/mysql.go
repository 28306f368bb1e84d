// Package typemap translates the backend-neutral backend.Column kind into
// the wire encodings each protocol needs: a MySQL column-type byte with
// flags and display length, or a PostgreSQL type OID with wire size.
package typemap

import "github.com/dataux/sqlgateway/internal/backend"

// MySQL column type bytes (protocol field_type, MYSQL_TYPE_*).
const (
	MySQLTypeDecimal   byte = 0x00
	MySQLTypeTiny      byte = 0x01
	MySQLTypeShort     byte = 0x02
	MySQLTypeLong      byte = 0x03
	MySQLTypeFloat     byte = 0x04
	MySQLTypeDouble    byte = 0x05
	MySQLTypeLongLong  byte = 0x08
	MySQLTypeDate      byte = 0x0A
	MySQLTypeTime      byte = 0x0B
	MySQLTypeTimestamp byte = 0x0C
	MySQLTypeVarString byte = 0x0F
	MySQLTypeBit       byte = 0x10
	MySQLTypeBlob      byte = 0xFC
)

// MySQL field flag bits.
const (
	FlagNotNull       uint16 = 0x0001
	FlagUnsigned      uint16 = 0x0020
	FlagAutoIncrement uint16 = 0x0200
)

// MySQLFieldType maps a backend column kind onto the MySQL column-type
// byte, falling back to VARCHAR for anything unmapped.
func MySQLFieldType(k backend.ColumnKind) byte {
	switch k {
	case backend.KindBit:
		return MySQLTypeBit
	case backend.KindTinyInt:
		return MySQLTypeTiny
	case backend.KindSmallInt:
		return MySQLTypeShort
	case backend.KindInt:
		return MySQLTypeLong
	case backend.KindBigInt:
		return MySQLTypeLongLong
	case backend.KindFloat:
		return MySQLTypeFloat
	case backend.KindDouble:
		return MySQLTypeDouble
	case backend.KindDecimal:
		return MySQLTypeDecimal
	case backend.KindDate:
		return MySQLTypeDate
	case backend.KindTime:
		return MySQLTypeTime
	case backend.KindTimestamp:
		return MySQLTypeTimestamp
	case backend.KindChar, backend.KindVarchar, backend.KindText:
		return MySQLTypeVarString
	case backend.KindBlob:
		return MySQLTypeBlob
	default:
		return MySQLTypeVarString
	}
}

// MySQLFieldFlags computes the column-definition flag bits: NOT_NULL when
// the column is non-nullable, AUTO_INCREMENT when flagged, UNSIGNED
// (0x0020) when the column is unsigned.
func MySQLFieldFlags(c backend.Column) uint16 {
	var flags uint16
	if !c.Nullable {
		flags |= FlagNotNull
	}
	if c.AutoIncrement {
		flags |= FlagAutoIncrement
	}
	if !c.Signed {
		flags |= FlagUnsigned
	}
	return flags
}

// MySQLDisplayLength picks the declared column length, falling back to
// the backend-reported display size or 255.
func MySQLDisplayLength(c backend.Column) uint32 {
	switch c.Kind {
	case backend.KindInt, backend.KindBigInt:
		return 11
	case backend.KindDate:
		return 10
	case backend.KindTimestamp:
		return 19
	case backend.KindDecimal:
		return uint32(c.Precision + 2)
	case backend.KindChar, backend.KindVarchar, backend.KindText:
		if c.DisplaySize > 0 {
			return uint32(c.DisplaySize)
		}
		return 255
	default:
		if c.DisplaySize > 0 {
			return uint32(c.DisplaySize)
		}
		return 255
	}
}
