package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Ledger is the attendance record store. Each call is atomic on its own;
// Append refuses a second record for the same teacher and date.
type Ledger interface {
	Append(ctx context.Context, rec NewRecord) (Record, error)
	// FindByTeacherAndDate returns matches in ledger creation order.
	FindByTeacherAndDate(ctx context.Context, teacherID, date string) ([]Record, error)
	// ListByDate returns all records of a date, newest timestamp first.
	ListByDate(ctx context.Context, date string) ([]Record, error)
	Ping(ctx context.Context) error
}

type document struct {
	id   string
	seq  int64
	data map[string]any
}

// MemoryLedger is a document-map ledger for dev mode and tests.
type MemoryLedger struct {
	mu   sync.RWMutex
	docs []document
	seq  int64
	now  func() time.Time
}

var _ Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty ledger. now stamps appended records;
// nil means time.Now.
func NewMemoryLedger(now func() time.Time) *MemoryLedger {
	if now == nil {
		now = time.Now
	}
	return &MemoryLedger{now: now}
}

func (m *MemoryLedger) Append(ctx context.Context, rec NewRecord) (Record, error) {
	if err := rec.validate(); err != nil {
		return Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.docs {
		if d.data["teacherId"] == rec.TeacherID && d.data["date"] == rec.Date {
			return Record{}, ErrAlreadyMarked
		}
	}

	id := uuid.NewString()
	ts := m.now().UTC()
	m.insertLocked(id, encodeDocument(rec, ts))

	return Record{
		ID:            id,
		TeacherID:     rec.TeacherID,
		TeacherName:   rec.TeacherName,
		Date:          rec.Date,
		Status:        rec.Status,
		Timestamp:     ts,
		BiometricType: rec.BiometricType,
	}, nil
}

// InsertDocument stores a raw document without any checks, the way an
// external writer to the collection could.
func (m *MemoryLedger) InsertDocument(id string, doc map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(id, doc)
}

func (m *MemoryLedger) insertLocked(id string, doc map[string]any) {
	m.seq++
	cp := make(map[string]any, len(doc))
	for k, v := range doc {
		cp[k] = v
	}
	m.docs = append(m.docs, document{id: id, seq: m.seq, data: cp})
}

func (m *MemoryLedger) FindByTeacherAndDate(ctx context.Context, teacherID, date string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for _, d := range m.docs {
		if d.data["teacherId"] != teacherID || d.data["date"] != date {
			continue
		}
		rec, err := decodeDocument(d.id, d.data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *MemoryLedger) ListByDate(ctx context.Context, date string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type ranked struct {
		rec Record
		seq int64
	}
	var matches []ranked
	for _, d := range m.docs {
		if d.data["date"] != date {
			continue
		}
		rec, err := decodeDocument(d.id, d.data)
		if err != nil {
			return nil, err
		}
		matches = append(matches, ranked{rec: rec, seq: d.seq})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		ti, tj := matches[i].rec.Timestamp, matches[j].rec.Timestamp
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return matches[i].seq > matches[j].seq
	})

	out := make([]Record, 0, len(matches))
	for _, r := range matches {
		out = append(out, r.rec)
	}
	return out, nil
}

func (m *MemoryLedger) Ping(ctx context.Context) error { return nil }

// Len returns the number of stored documents.
func (m *MemoryLedger) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
