package mysqlwire

import "github.com/dataux/sqlgateway/internal/backend"
import "github.com/dataux/sqlgateway/internal/typemap"

// EncodeColumnDef builds one ColumnDefinition41 packet payload:
// catalog="def", empty schema/table/origTable, the column name, length
// filler 0x0C, charset 0x21, 4-byte max length, 1-byte type code, 2-byte
// flags, 1-byte decimals, 2-byte filler.
func EncodeColumnDef(col backend.Column) []byte {
	data := make([]byte, 0, 64)
	data = append(data, PutLengthEncodedString([]byte("def"))...) // catalog
	data = append(data, PutLengthEncodedString([]byte(""))...)    // schema
	data = append(data, PutLengthEncodedString([]byte(""))...)    // table
	data = append(data, PutLengthEncodedString([]byte(""))...)    // orig table
	data = append(data, PutLengthEncodedString([]byte(col.Name))...)
	data = append(data, PutLengthEncodedString([]byte(col.Name))...) // orig column

	data = append(data, 0x0C) // length of fixed fields filler
	data = append(data, DefaultCollationID, 0x00)
	data = append(data, Uint32ToBytes(typemap.MySQLDisplayLength(col))...)
	data = append(data, typemap.MySQLFieldType(col.Kind))
	data = append(data, Uint16ToBytes(typemap.MySQLFieldFlags(col))...)
	data = append(data, byte(col.Scale)) // decimals
	data = append(data, 0x00, 0x00)      // filler
	return data
}

// EncodeRow builds one text-protocol row packet payload: for each column,
// NULL -> 0xFB, else a lenenc UTF-8 string of the value.
func EncodeRow(row backend.Row) []byte {
	data := make([]byte, 0, 32*len(row))
	for _, cell := range row {
		if cell == nil {
			data = append(data, 0xFB)
			continue
		}
		data = append(data, PutLengthEncodedString([]byte(*cell))...)
	}
	return data
}
