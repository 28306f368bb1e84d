package mysqlwire_test

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataux/sqlgateway/testutil"
)

// These tests drive the full listener through the real go-sql-driver/mysql
// client: if the driver completes the handshake and runs queries, the wire
// subset is byte-compatible with what a real client expects.

func TestClientHandshakeAndQuery(t *testing.T) {
	addr, stop := testutil.RunTestMySQLServer(t, testutil.FakeArticlesFactory())
	defer stop()

	db, err := sql.Open("mysql", fmt.Sprintf("root:@%s/demo", addr))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping(), "COM_PING through the real client")

	rows, err := db.Query("select * from article")
	require.NoError(t, err)
	defer rows.Close()

	cols, err := rows.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "author", "count"}, cols)

	require.True(t, rows.Next())
	var title, author string
	var count int
	require.NoError(t, rows.Scan(&title, &author, &count))
	assert.Equal(t, "article1", title)
	assert.Equal(t, "aaron", author)
	assert.Equal(t, 22, count)
	assert.False(t, rows.Next())
	require.NoError(t, rows.Err())
}

func TestClientSelectDatabase(t *testing.T) {
	addr, stop := testutil.RunTestMySQLServer(t, testutil.FakeArticlesFactory())
	defer stop()

	db, err := sql.Open("mysql", fmt.Sprintf("root:@%s/demo", addr))
	require.NoError(t, err)
	defer db.Close()

	var schema string
	require.NoError(t, db.QueryRow("SELECT DATABASE()").Scan(&schema))
	assert.Equal(t, "demo", schema)
}

func TestClientBackendErrorSurfaced(t *testing.T) {
	addr, stop := testutil.RunTestMySQLServer(t, testutil.FakeArticlesFactory())
	defer stop()

	db, err := sql.Open("mysql", fmt.Sprintf("root:@%s/demo", addr))
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query("select nothing from nowhere")
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.Contains(t, err.Error(), "SQL Error:")

	// the session is still usable after the error
	require.NoError(t, db.Ping())
}
