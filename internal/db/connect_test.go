package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteSchema(t *testing.T) {
	ctx := context.Background()
	dbh, err := Open(ctx, DriverSQLite, "file:connect_test?mode=memory&cache=shared")
	require.NoError(t, err)
	defer dbh.Close()

	var n int
	require.NoError(t, dbh.QueryRowContext(ctx, `SELECT COUNT(*) FROM score_checks`).Scan(&n))
	assert.Zero(t, n)

	_, err = dbh.ExecContext(ctx, `INSERT INTO score_checks (id,subject,source,input_json,options_json,valid,score,passed,grade,errors_json,created_at)
		VALUES ('a','s','single','1','{}',1,1,0,'F','[]',1)`)
	require.NoError(t, err)
	_, err = dbh.ExecContext(ctx, `INSERT INTO score_checks (id,subject,source,input_json,options_json,valid,score,passed,grade,errors_json,created_at)
		VALUES ('a','s','single','1','{}',1,1,0,'F','[]',1)`)
	assert.Error(t, err, "id stays unique")

	var seq int64
	require.NoError(t, dbh.QueryRowContext(ctx, `SELECT seq FROM score_checks WHERE id='a'`).Scan(&seq))
	assert.Equal(t, int64(1), seq)

	// schema creation is idempotent
	require.NoError(t, ensureSchema(ctx, dbh, DriverSQLite))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Driver("mysql"), "")
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestRebind(t *testing.T) {
	q := `SELECT 1 FROM score_checks WHERE subject=? AND grade=? LIMIT ?`
	assert.Equal(t, q, Rebind(DriverSQLite, q))
	assert.Equal(t, `SELECT 1 FROM score_checks WHERE subject=$1 AND grade=$2 LIMIT $3`, Rebind(DriverPostgres, q))
}
