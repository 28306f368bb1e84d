package typemap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dataux/sqlgateway/internal/backend"
)

func TestMySQLFieldType(t *testing.T) {
	cases := []struct {
		kind backend.ColumnKind
		want byte
	}{
		{backend.KindBit, MySQLTypeBit},
		{backend.KindTinyInt, MySQLTypeTiny},
		{backend.KindSmallInt, MySQLTypeShort},
		{backend.KindInt, MySQLTypeLong},
		{backend.KindBigInt, MySQLTypeLongLong},
		{backend.KindFloat, MySQLTypeFloat},
		{backend.KindDouble, MySQLTypeDouble},
		{backend.KindDecimal, MySQLTypeDecimal},
		{backend.KindDate, MySQLTypeDate},
		{backend.KindTime, MySQLTypeTime},
		{backend.KindTimestamp, MySQLTypeTimestamp},
		{backend.KindChar, MySQLTypeVarString},
		{backend.KindVarchar, MySQLTypeVarString},
		{backend.KindText, MySQLTypeVarString},
		{backend.KindBlob, MySQLTypeBlob},
		// unmapped kinds fall back to VARCHAR
		{backend.KindUnknown, MySQLTypeVarString},
		{backend.KindBool, MySQLTypeVarString},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MySQLFieldType(tc.kind), "kind=%d", tc.kind)
	}
}

func TestMySQLFieldFlags(t *testing.T) {
	// nullable, signed, plain column carries no flags
	assert.Equal(t, uint16(0), MySQLFieldFlags(backend.Column{Nullable: true, Signed: true}))

	flags := MySQLFieldFlags(backend.Column{Nullable: false, Signed: true})
	assert.Equal(t, FlagNotNull, flags&FlagNotNull)

	flags = MySQLFieldFlags(backend.Column{Nullable: true, Signed: true, AutoIncrement: true})
	assert.Equal(t, FlagAutoIncrement, flags&FlagAutoIncrement)

	// UNSIGNED is the documented 0x0020 bit, set only for unsigned columns.
	flags = MySQLFieldFlags(backend.Column{Nullable: true, Signed: false})
	assert.Equal(t, FlagUnsigned, flags&FlagUnsigned)
	flags = MySQLFieldFlags(backend.Column{Nullable: true, Signed: true})
	assert.Equal(t, uint16(0), flags&FlagUnsigned)
}

func TestMySQLDisplayLength(t *testing.T) {
	assert.Equal(t, uint32(11), MySQLDisplayLength(backend.Column{Kind: backend.KindInt}))
	assert.Equal(t, uint32(11), MySQLDisplayLength(backend.Column{Kind: backend.KindBigInt}))
	assert.Equal(t, uint32(10), MySQLDisplayLength(backend.Column{Kind: backend.KindDate}))
	assert.Equal(t, uint32(19), MySQLDisplayLength(backend.Column{Kind: backend.KindTimestamp}))
	assert.Equal(t, uint32(12), MySQLDisplayLength(backend.Column{Kind: backend.KindDecimal, Precision: 10}))
	assert.Equal(t, uint32(64), MySQLDisplayLength(backend.Column{Kind: backend.KindVarchar, DisplaySize: 64}))
	assert.Equal(t, uint32(255), MySQLDisplayLength(backend.Column{Kind: backend.KindVarchar}))
	assert.Equal(t, uint32(255), MySQLDisplayLength(backend.Column{Kind: backend.KindUnknown}))
}
