package backend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSNFor(t *testing.T) {
	driver, dsn, err := dsnFor(Target{
		Engine: EngineMySQL, Host: "127.0.0.1", Port: 3306,
		Username: "root", Password: "pw", Database: "demo",
	})
	require.NoError(t, err)
	assert.Equal(t, "mysql", driver)
	assert.Equal(t, "root:pw@tcp(127.0.0.1:3306)/demo", dsn)

	driver, dsn, err = dsnFor(Target{
		Engine: EnginePostgres, Host: "localhost", Port: 5433,
		Username: "postgres", Password: "pw", Database: "dmp",
	})
	require.NoError(t, err)
	assert.Equal(t, "pgx", driver)
	assert.Equal(t, "postgres://postgres:pw@localhost:5433/dmp", dsn)

	_, _, err = dsnFor(Target{Engine: "oracle"})
	assert.Error(t, err)
}

func TestFirstKeyword(t *testing.T) {
	assert.Equal(t, "select", firstKeyword("SELECT 1"))
	assert.Equal(t, "select", firstKeyword("  select * from t"))
	assert.Equal(t, "select", firstKeyword("(SELECT 1) UNION (SELECT 2)"))
	assert.Equal(t, "insert", firstKeyword("insert into t values (1)"))
	assert.Equal(t, "commit", firstKeyword("COMMIT"))
	assert.Equal(t, "", firstKeyword("   "))
}

func TestIsRowProducing(t *testing.T) {
	assert.True(t, isRowProducing("SELECT 1"))
	assert.True(t, isRowProducing("show tables"))
	assert.True(t, isRowProducing("DESCRIBE t"))
	assert.True(t, isRowProducing("explain select 1"))
	assert.True(t, isRowProducing("WITH t AS (SELECT 1) SELECT * FROM t"))
	assert.False(t, isRowProducing("INSERT INTO t VALUES (1)"))
	assert.False(t, isRowProducing("UPDATE t SET a=1"))
	assert.False(t, isRowProducing("CREATE TABLE t (a int)"))
}

func TestKindFromDBType(t *testing.T) {
	cases := []struct {
		name string
		want ColumnKind
	}{
		{"TINYINT", KindTinyInt},
		{"SMALLINT", KindSmallInt},
		{"INT2", KindSmallInt},
		{"INT", KindInt},
		{"INT4", KindInt},
		{"MEDIUMINT", KindInt},
		{"BIGINT", KindBigInt},
		{"INT8", KindBigInt},
		{"FLOAT4", KindFloat},
		{"DOUBLE", KindDouble},
		{"FLOAT8", KindDouble},
		{"DECIMAL", KindDecimal},
		{"NUMERIC", KindDecimal},
		{"DATE", KindDate},
		{"TIME", KindTime},
		{"DATETIME", KindTimestamp},
		{"TIMESTAMPTZ", KindTimestamp},
		{"CHAR", KindChar},
		{"BPCHAR", KindChar},
		{"VARCHAR", KindVarchar},
		{"TEXT", KindText},
		{"longtext", KindText},
		{"BYTEA", KindBlob},
		{"BLOB", KindBlob},
		{"BOOL", KindBool},
		{"BIT", KindBit},
		{"GEOMETRY", KindUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, kindFromDBType(tc.name), "type=%q", tc.name)
	}
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "abc", stringify([]byte("abc")))
	assert.Equal(t, "abc", stringify("abc"))
	assert.Equal(t, "42", stringify(int64(42)))
	assert.Equal(t, "3.5", stringify(3.5))
	assert.Equal(t, "true", stringify(true))

	ts := time.Date(2016, 3, 1, 22, 15, 0, 0, time.UTC)
	assert.Equal(t, "2016-03-01 22:15:00", stringify(ts))
}
