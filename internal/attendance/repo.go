package attendance

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Dialect selects placeholder syntax for SQLLedger.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

// DialectFor maps a database/sql driver name to a Dialect.
func DialectFor(driver string) Dialect {
	if driver == "sqlite3" {
		return DialectSQLite
	}
	return DialectPostgres
}

// SQLLedger persists attendance records in Postgres or SQLite. The unique
// (teacher_id, attendance_date) index makes Append an insert-if-absent.
type SQLLedger struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

var _ Ledger = (*SQLLedger)(nil)

// NewSQLLedger creates a ledger over an already migrated database.
func NewSQLLedger(db *sql.DB, dialect Dialect) *SQLLedger {
	return &SQLLedger{db: db, dialect: dialect, now: time.Now}
}

var placeholder = regexp.MustCompile(`\$\d+`)

func (l *SQLLedger) rebind(query string) string {
	if l.dialect == DialectSQLite {
		return placeholder.ReplaceAllString(query, "?")
	}
	return query
}

const recordColumns = `id, teacher_id, teacher_name, attendance_date, status, marked_at, biometric_type`

// Append writes a new record, or returns ErrAlreadyMarked when the teacher
// already has one for that date.
func (l *SQLLedger) Append(ctx context.Context, rec NewRecord) (Record, error) {
	if err := rec.validate(); err != nil {
		return Record{}, err
	}
	out := Record{
		ID:            uuid.NewString(),
		TeacherID:     rec.TeacherID,
		TeacherName:   rec.TeacherName,
		Date:          rec.Date,
		Status:        rec.Status,
		Timestamp:     l.now().UTC(),
		BiometricType: rec.BiometricType,
	}

	row := l.db.QueryRowContext(ctx, l.rebind(`
		INSERT INTO attendance (`+recordColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (teacher_id, attendance_date) DO NOTHING
		RETURNING id
	`), out.ID, out.TeacherID, out.TeacherName, out.Date, string(out.Status), out.Timestamp, out.BiometricType)

	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrAlreadyMarked
		}
		return Record{}, err
	}
	return out, nil
}

func (l *SQLLedger) FindByTeacherAndDate(ctx context.Context, teacherID, date string) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, l.rebind(`
		SELECT `+recordColumns+`
		FROM attendance
		WHERE teacher_id = $1 AND attendance_date = $2
		ORDER BY marked_at ASC, id ASC
	`), teacherID, date)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func (l *SQLLedger) ListByDate(ctx context.Context, date string) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, l.rebind(`
		SELECT `+recordColumns+`
		FROM attendance
		WHERE attendance_date = $1
		ORDER BY marked_at DESC, id DESC
	`), date)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func (l *SQLLedger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var (
			rec    Record
			status string
		)
		if err := rows.Scan(&rec.ID, &rec.TeacherID, &rec.TeacherName, &rec.Date, &status, &rec.Timestamp, &rec.BiometricType); err != nil {
			return nil, &Error{Kind: KindMalformedRecord, Err: err}
		}
		rec.Status = Status(status)
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
