package attendance

import "errors"

// Kind classifies a workflow failure.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidRequest
	KindIdentity
	KindMarkInProgress
	KindHardwareUnavailable
	KindNotEnrolled
	KindCapabilityCheckFailed
	KindCancelled
	KindFallbackNotAllowed
	KindAuthenticationFailed
	KindAlreadyMarked
	KindInvalidDate
	KindMalformedRecord
	KindLedger
)

var kindNames = map[Kind]string{
	KindInternal:              "internal",
	KindInvalidRequest:        "invalid_request",
	KindIdentity:              "identity_unavailable",
	KindMarkInProgress:        "mark_in_progress",
	KindHardwareUnavailable:   "hardware_unavailable",
	KindNotEnrolled:           "not_enrolled",
	KindCapabilityCheckFailed: "capability_check_failed",
	KindCancelled:             "cancelled",
	KindFallbackNotAllowed:    "fallback_not_allowed",
	KindAuthenticationFailed:  "authentication_failed",
	KindAlreadyMarked:         "already_marked",
	KindInvalidDate:           "invalid_date",
	KindMalformedRecord:       "malformed_record",
	KindLedger:                "ledger_error",
}

var kindMessages = map[Kind]string{
	KindInternal:              "internal error",
	KindInvalidRequest:        "invalid request",
	KindIdentity:              "caller identity unavailable",
	KindMarkInProgress:        "attendance marking is already in progress",
	KindHardwareUnavailable:   "biometric authentication is not available on this device",
	KindNotEnrolled:           "no biometric credentials found, set up fingerprint or face recognition in your device settings",
	KindCapabilityCheckFailed: "failed to check biometric capabilities",
	KindCancelled:             "authentication was cancelled",
	KindFallbackNotAllowed:    "biometric authentication is required for attendance",
	KindAuthenticationFailed:  "biometric authentication failed, please try again",
	KindAlreadyMarked:         "attendance has already been marked for today",
	KindInvalidDate:           "invalid date, expected YYYY-MM-DD",
	KindMalformedRecord:       "malformed attendance record",
	KindLedger:                "attendance ledger error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "internal"
}

// Message is the user-facing text for the kind.
func (k Kind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return kindMessages[KindInternal]
}

// Error is the single error type returned by the workflow.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Message()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind against a bare sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Reason == "" && t.Err == nil
}

var (
	ErrInvalidRequest        = &Error{Kind: KindInvalidRequest}
	ErrIdentity              = &Error{Kind: KindIdentity}
	ErrMarkInProgress        = &Error{Kind: KindMarkInProgress}
	ErrHardwareUnavailable   = &Error{Kind: KindHardwareUnavailable}
	ErrNotEnrolled           = &Error{Kind: KindNotEnrolled}
	ErrCapabilityCheckFailed = &Error{Kind: KindCapabilityCheckFailed}
	ErrCancelled             = &Error{Kind: KindCancelled}
	ErrFallbackNotAllowed    = &Error{Kind: KindFallbackNotAllowed}
	ErrAuthenticationFailed  = &Error{Kind: KindAuthenticationFailed}
	ErrAlreadyMarked         = &Error{Kind: KindAlreadyMarked}
	ErrInvalidDate           = &Error{Kind: KindInvalidDate}
	ErrMalformedRecord       = &Error{Kind: KindMalformedRecord}
	ErrLedger                = &Error{Kind: KindLedger}
)

// KindOf reports the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func ledgerError(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindLedger, Err: err}
}
