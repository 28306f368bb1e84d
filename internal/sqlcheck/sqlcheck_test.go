package sqlcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKinds(t *testing.T) {
	cases := []struct {
		sql  string
		kind Kind
	}{
		{"SELECT * FROM article", KindSelect},
		{"  select 1", KindSelect},
		{"WITH t AS (SELECT 1) SELECT * FROM t", KindSelect},
		{"VALUES (1)", KindSelect},
		{"show databases", KindShow},
		{"DESCRIBE article", KindDescribe},
		{"desc article", KindDescribe},
		{"EXPLAIN SELECT 1", KindExplain},
		{"SET autocommit = 1", KindSet},
		{"INSERT INTO t VALUES (1)", KindInsert},
		{"replace into t values (1)", KindInsert},
		{"UPDATE t SET a = 1", KindUpdate},
		{"DELETE FROM t", KindDelete},
		{"CREATE TABLE t (a int)", KindCreate},
		{"DROP TABLE t", KindDrop},
		{"ALTER TABLE t ADD b int", KindAlter},
		{"BEGIN", KindBegin},
		{"START TRANSACTION", KindBegin},
		{"COMMIT", KindCommit},
		{"ROLLBACK", KindRollback},
		{"GIBBERISH foo", KindUnknown},
	}
	for _, tc := range cases {
		stmt := Parse(tc.sql)
		assert.Equal(t, tc.kind, stmt.Kind, "sql=%q", tc.sql)
		assert.Equal(t, tc.sql, stmt.SQL)
	}
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate("SELECT 1"))
	assert.True(t, Validate("not even sql"))
	assert.False(t, Validate(""))
	assert.False(t, Validate("   \t\n"))
}

func TestSplitStatements(t *testing.T) {
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, SplitStatements("SELECT 1; SELECT 2"))
	assert.Equal(t, []string{"SELECT 1"}, SplitStatements("SELECT 1;"))
	assert.Equal(t, []string{"SELECT 1"}, SplitStatements("  SELECT 1  "))
	assert.Len(t, SplitStatements(" ; ;; "), 0)
	assert.Len(t, SplitStatements(""), 0)
}
