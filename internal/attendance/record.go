package attendance

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Collection is the ledger collection holding attendance records.
const Collection = "attendance"

// DateLayout is the calendar date format of Record.Date.
const DateLayout = "2006-01-02"

// Status of an attendance record. Only present is written today.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Record is one teacher's attendance for one day. Immutable once written.
type Record struct {
	ID            string    `json:"id" validate:"required"`
	TeacherID     string    `json:"teacher_id" validate:"required"`
	TeacherName   string    `json:"teacher_name"`
	Date          string    `json:"date" validate:"required,datetime=2006-01-02"`
	Status        Status    `json:"status" validate:"required,oneof=present absent"`
	Timestamp     time.Time `json:"timestamp" validate:"required"`
	BiometricType string    `json:"biometric_type"`
}

// NewRecord is what the workflow hands the ledger; the ledger fills in
// the id and timestamp.
type NewRecord struct {
	TeacherID     string `validate:"required"`
	TeacherName   string
	Date          string `validate:"required,datetime=2006-01-02"`
	Status        Status `validate:"required,oneof=present absent"`
	BiometricType string
}

var validate = validator.New()

// Validate checks a record read back from a ledger.
func (r Record) Validate() error {
	if err := validate.Struct(r); err != nil {
		return &Error{Kind: KindMalformedRecord, Reason: r.ID, Err: err}
	}
	return nil
}

func (n NewRecord) validate() error {
	if err := validate.Struct(n); err != nil {
		return &Error{Kind: KindInvalidRequest, Err: err}
	}
	return nil
}

// ParseDate validates a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &Error{Kind: KindInvalidDate, Reason: fmt.Sprintf("%q", s)}
	}
	return d, nil
}

// decodeDocument turns a stored document into a Record, refusing any
// document whose fields are missing or of the wrong type.
func decodeDocument(id string, doc map[string]any) (Record, error) {
	malformed := func(field string) error {
		return &Error{Kind: KindMalformedRecord, Reason: fmt.Sprintf("%s: field %q", id, field)}
	}
	str := func(field string, required bool) (string, error) {
		v, ok := doc[field]
		if !ok {
			if required {
				return "", malformed(field)
			}
			return "", nil
		}
		s, ok := v.(string)
		if !ok {
			return "", malformed(field)
		}
		return s, nil
	}

	teacherID, err := str("teacherId", true)
	if err != nil {
		return Record{}, err
	}
	teacherName, err := str("teacherName", false)
	if err != nil {
		return Record{}, err
	}
	date, err := str("date", true)
	if err != nil {
		return Record{}, err
	}
	status, err := str("status", true)
	if err != nil {
		return Record{}, err
	}
	biometricType, err := str("biometricType", false)
	if err != nil {
		return Record{}, err
	}
	ts, ok := doc["timestamp"].(time.Time)
	if !ok {
		return Record{}, malformed("timestamp")
	}

	rec := Record{
		ID:            id,
		TeacherID:     teacherID,
		TeacherName:   teacherName,
		Date:          date,
		Status:        Status(status),
		Timestamp:     ts,
		BiometricType: biometricType,
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func encodeDocument(n NewRecord, ts time.Time) map[string]any {
	return map[string]any{
		"teacherId":     n.TeacherID,
		"teacherName":   n.TeacherName,
		"date":          n.Date,
		"status":        string(n.Status),
		"timestamp":     ts,
		"biometricType": n.BiometricType,
	}
}
