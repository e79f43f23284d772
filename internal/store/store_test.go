package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLite_MigratesIdempotently(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "nested", "attendance.db"))
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, DriverSQLite, db.Driver)
	assert.True(t, db.Healthy(ctx))
	require.NoError(t, db.Migrate(ctx))

	_, err = db.Client.ExecContext(ctx, `INSERT INTO attendance (id, teacher_id, attendance_date) VALUES ('a', 't1', '2026-10-18')`)
	require.NoError(t, err)
	_, err = db.Client.ExecContext(ctx, `INSERT INTO attendance (id, teacher_id, attendance_date) VALUES ('b', 't1', '2026-10-18')`)
	assert.Error(t, err, "unique (teacher_id, attendance_date) must reject a second row")
}

func TestDB_NilIsUnhealthy(t *testing.T) {
	var db *DB
	assert.False(t, db.Healthy(context.Background()))
	assert.NoError(t, db.Close())
}

func TestRedis_Healthy(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr())
	defer r.Close()
	assert.True(t, r.Healthy(context.Background()))

	mr.Close()
	assert.False(t, r.Healthy(context.Background()))
}
