package attendance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"teacherattend/internal/auth"
	"teacherattend/internal/biometric"
)

// MarkPrompt is shown on the device when a teacher marks attendance.
var MarkPrompt = biometric.Prompt{
	Message:       "Authenticate to mark your attendance",
	CancelLabel:   "Cancel",
	FallbackLabel: "Use Device Passcode",
}

// CapabilityChecker reports what the biometric device can do.
type CapabilityChecker interface {
	Check(ctx context.Context) (biometric.Capabilities, error)
}

// Authenticator runs one biometric challenge.
type Authenticator interface {
	Authenticate(ctx context.Context, p biometric.Prompt) (biometric.Result, error)
}

// Recorder observes workflow outcomes.
type Recorder interface {
	ObserveMark(outcome string, elapsed time.Duration)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Checker       CapabilityChecker
	Authenticator Authenticator
	Ledger        Ledger
	Identity      auth.Provider
	// Guard defaults to a MemoryGuard.
	Guard Guard
}

// Option tunes a Service.
type Option func(*Service)

// WithClock sets the wall clock and the zone whose calendar day is "today".
func WithClock(now func() time.Time, loc *time.Location) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.rec = r }
}

// Service marks and reads teacher attendance.
type Service struct {
	checker  CapabilityChecker
	authn    Authenticator
	ledger   Ledger
	identity auth.Provider
	guard    Guard
	now      func() time.Time
	loc      *time.Location
	log      zerolog.Logger
	rec      Recorder
}

// NewService wires the workflow.
func NewService(d Deps, opts ...Option) *Service {
	s := &Service{
		checker:  d.Checker,
		authn:    d.Authenticator,
		ledger:   d.Ledger,
		identity: d.Identity,
		guard:    d.Guard,
		now:      time.Now,
		loc:      time.Local,
		log:      zerolog.Nop(),
	}
	if s.guard == nil {
		s.guard = NewMemoryGuard()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar day in the service's zone.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(DateLayout)
}

// MarkForCurrent marks attendance for the caller resolved by the identity
// provider.
func (s *Service) MarkForCurrent(ctx context.Context) (Record, error) {
	if s.identity == nil {
		return Record{}, &Error{Kind: KindIdentity, Reason: "no identity provider"}
	}
	id, err := s.identity.Identify(ctx)
	if err != nil {
		return Record{}, &Error{Kind: KindIdentity, Err: err}
	}
	return s.MarkAttendance(ctx, id.UID, id.Name)
}

// MarkAttendance runs capability gate, challenge, duplicate check and
// commit, in that order, stopping at the first failure. Every failure is
// an *Error.
//
// The duplicate check reads before writing, and the ledger's Append is
// itself insert-if-absent, so a concurrent mark from another device that
// slips past the read still ends in ErrAlreadyMarked.
func (s *Service) MarkAttendance(ctx context.Context, teacherID, teacherName string) (rec Record, err error) {
	start := time.Now()
	startDay := s.Today()
	defer func() { s.observe(teacherID, startDay, start, err) }()

	if strings.TrimSpace(teacherID) == "" {
		return Record{}, &Error{Kind: KindInvalidRequest, Reason: "teacher id required"}
	}

	release, err := s.guard.Acquire(ctx, teacherID)
	if err != nil {
		if errors.Is(err, ErrMarkInProgress) {
			return Record{}, err
		}
		return Record{}, &Error{Kind: KindInternal, Reason: "in-flight guard", Err: err}
	}
	defer release()

	caps, err := s.checker.Check(ctx)
	if err != nil {
		return Record{}, &Error{Kind: KindCapabilityCheckFailed, Err: err}
	}
	if !caps.HasHardware {
		return Record{}, ErrHardwareUnavailable
	}
	if !caps.IsEnrolled {
		return Record{}, ErrNotEnrolled
	}

	res, err := s.authn.Authenticate(ctx, MarkPrompt)
	if err != nil {
		return Record{}, challengeError(err)
	}
	switch res.Outcome {
	case biometric.Success:
	case biometric.UserCancelled:
		return Record{}, ErrCancelled
	case biometric.UserRequestedFallback:
		return Record{}, ErrFallbackNotAllowed
	default:
		return Record{}, &Error{Kind: KindAuthenticationFailed, Reason: res.Reason}
	}

	// The challenge can run past midnight; the record belongs to the day
	// it is committed on.
	today := s.Today()
	existing, err := s.ledger.FindByTeacherAndDate(ctx, teacherID, today)
	if err != nil {
		return Record{}, ledgerError(err)
	}
	if len(existing) > 0 {
		return Record{}, ErrAlreadyMarked
	}

	// Once issued the write runs to completion even if the caller goes away.
	rec, err = s.ledger.Append(context.WithoutCancel(ctx), NewRecord{
		TeacherID:     teacherID,
		TeacherName:   teacherName,
		Date:          today,
		Status:        StatusPresent,
		BiometricType: caps.Label(),
	})
	if err != nil {
		return Record{}, ledgerError(err)
	}
	return rec, nil
}

func challengeError(err error) error {
	switch {
	case errors.Is(err, biometric.ErrHardwareUnavailable):
		return ErrHardwareUnavailable
	case errors.Is(err, biometric.ErrNotEnrolled):
		return ErrNotEnrolled
	case errors.Is(err, biometric.ErrCapabilityCheckFailed):
		return &Error{Kind: KindCapabilityCheckFailed, Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindCancelled, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindAuthenticationFailed, Reason: "timed out", Err: err}
	default:
		return &Error{Kind: KindAuthenticationFailed, Err: err}
	}
}

// GetTodayAttendance returns the teacher's record for today, or nil. If the
// ledger holds several, the earliest one wins.
func (s *Service) GetTodayAttendance(ctx context.Context, teacherID string) (*Record, error) {
	records, err := s.ledger.FindByTeacherAndDate(ctx, teacherID, s.Today())
	if err != nil {
		return nil, ledgerError(err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	rec := records[0]
	return &rec, nil
}

// GetAttendanceByDate lists a day's records, most recent mark first.
func (s *Service) GetAttendanceByDate(ctx context.Context, date string) ([]Record, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	records, err := s.ledger.ListByDate(ctx, date)
	if err != nil {
		return nil, ledgerError(err)
	}
	return records, nil
}

// CheckCapabilities exposes the device capability snapshot.
func (s *Service) CheckCapabilities(ctx context.Context) (biometric.Capabilities, error) {
	caps, err := s.checker.Check(ctx)
	if err != nil {
		return biometric.Capabilities{}, &Error{Kind: KindCapabilityCheckFailed, Err: err}
	}
	return caps, nil
}

func (s *Service) observe(teacherID, date string, start time.Time, err error) {
	outcome := "marked"
	if err != nil {
		outcome = KindOf(err).String()
	}
	if s.rec != nil {
		s.rec.ObserveMark(outcome, time.Since(start))
	}

	level := zerolog.InfoLevel
	switch {
	case err == nil:
	case KindOf(err) == KindInternal, KindOf(err) == KindLedger,
		KindOf(err) == KindMalformedRecord, KindOf(err) == KindCapabilityCheckFailed:
		level = zerolog.ErrorLevel
	}
	s.log.WithLevel(level).
		Str("teacher_id", teacherID).
		Str("date", date).
		Str("outcome", outcome).
		AnErr("error", err).
		Msg("mark attendance")
}
