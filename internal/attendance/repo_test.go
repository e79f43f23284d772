package attendance

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teacherattend/internal/store"
)

func newSQLiteLedger(t *testing.T, c *clock) (*SQLLedger, *store.DB) {
	t.Helper()
	db, err := store.NewSQLite(context.Background(), filepath.Join(t.TempDir(), "attendance.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	l := NewSQLLedger(db.Client, DialectFor(db.Driver))
	l.now = c.Now
	return l, db
}

func TestSQLLedger_AppendAndFind(t *testing.T) {
	c := newClock(day1)
	l, _ := newSQLiteLedger(t, c)
	ctx := context.Background()
	require.NoError(t, l.Ping(ctx))

	rec, err := l.Append(ctx, NewRecord{TeacherID: "t1", TeacherName: "Alice", Date: "2026-10-18", Status: StatusPresent, BiometricType: "Fingerprint"})
	require.NoError(t, err)

	found, err := l.FindByTeacherAndDate(ctx, "t1", "2026-10-18")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, rec.ID, found[0].ID)
	assert.Equal(t, "Alice", found[0].TeacherName)
	assert.Equal(t, StatusPresent, found[0].Status)
	assert.Equal(t, "Fingerprint", found[0].BiometricType)
	assert.True(t, found[0].Timestamp.Equal(day1))

	none, err := l.FindByTeacherAndDate(ctx, "t1", "2026-10-19")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLLedger_AppendConflict(t *testing.T) {
	c := newClock(day1)
	l, db := newSQLiteLedger(t, c)
	ctx := context.Background()

	rec := NewRecord{TeacherID: "t1", Date: "2026-10-18", Status: StatusPresent}
	_, err := l.Append(ctx, rec)
	require.NoError(t, err)

	c.Advance(time.Minute)
	_, err = l.Append(ctx, rec)
	assert.ErrorIs(t, err, ErrAlreadyMarked)

	var n int
	require.NoError(t, db.Client.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSQLLedger_ListByDateNewestFirst(t *testing.T) {
	c := newClock(day1)
	l, _ := newSQLiteLedger(t, c)
	ctx := context.Background()

	for _, teacher := range []string{"t1", "t2", "t3"} {
		_, err := l.Append(ctx, NewRecord{TeacherID: teacher, Date: "2026-10-18", Status: StatusPresent})
		require.NoError(t, err)
		c.Advance(1500 * time.Millisecond)
	}
	_, err := l.Append(ctx, NewRecord{TeacherID: "t1", Date: "2026-10-19", Status: StatusPresent})
	require.NoError(t, err)

	records, err := l.ListByDate(ctx, "2026-10-18")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"t3", "t2", "t1"}, []string{records[0].TeacherID, records[1].TeacherID, records[2].TeacherID})
}

func TestSQLLedger_MalformedRow(t *testing.T) {
	c := newClock(day1)
	l, db := newSQLiteLedger(t, c)
	ctx := context.Background()

	_, err := db.Client.ExecContext(ctx, `
		INSERT INTO attendance (id, teacher_id, attendance_date, status, marked_at)
		VALUES ('legacy', 't1', '2026-10-18', 'late', ?)
	`, day1)
	require.NoError(t, err)

	_, err = l.ListByDate(ctx, "2026-10-18")
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestSQLLedger_Rebind(t *testing.T) {
	pg := &SQLLedger{dialect: DialectPostgres}
	lite := &SQLLedger{dialect: DialectSQLite}
	q := `WHERE a = $1 AND b = $2 LIMIT $10`
	assert.Equal(t, q, pg.rebind(q))
	assert.Equal(t, `WHERE a = ? AND b = ? LIMIT ?`, lite.rebind(q))
	assert.Equal(t, DialectSQLite, DialectFor(store.DriverSQLite))
	assert.Equal(t, DialectPostgres, DialectFor(store.DriverPostgres))
}
