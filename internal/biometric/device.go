package biometric

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrHardwareUnavailable   = errors.New("biometric hardware not available on this device")
	ErrNotEnrolled           = errors.New("no biometric credentials enrolled")
	ErrCapabilityCheckFailed = errors.New("biometric capability check failed")
)

// Modality is a biometric sensor type a device can offer.
type Modality int

const (
	ModalityUnknown Modality = iota
	Fingerprint
	FacialRecognition
	Iris
)

func (m Modality) String() string {
	switch m {
	case Fingerprint:
		return "fingerprint"
	case FacialRecognition:
		return "facial_recognition"
	case Iris:
		return "iris"
	default:
		return "unknown"
	}
}

// ParseModality maps a device type name onto a Modality.
func ParseModality(s string) Modality {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fingerprint", "touch_id":
		return Fingerprint
	case "facial_recognition", "face", "face_id":
		return FacialRecognition
	case "iris":
		return Iris
	default:
		return ModalityUnknown
	}
}

// SecurityLevel is the strongest kind of credential enrolled on the device.
type SecurityLevel int

const (
	SecurityUnknown SecurityLevel = iota
	SecurityNone
	SecuritySecret
	SecurityBiometricWeak
	SecurityBiometricStrong
)

func (l SecurityLevel) String() string {
	switch l {
	case SecurityNone:
		return "None"
	case SecuritySecret:
		return "Secret"
	case SecurityBiometricWeak:
		return "Weak Biometric"
	case SecurityBiometricStrong:
		return "Strong Biometric"
	default:
		return "Unknown"
	}
}

// ParseSecurityLevel maps a device level name onto a SecurityLevel.
func ParseSecurityLevel(s string) SecurityLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return SecurityNone
	case "secret":
		return SecuritySecret
	case "biometric_weak":
		return SecurityBiometricWeak
	case "biometric_strong":
		return SecurityBiometricStrong
	default:
		return SecurityUnknown
	}
}

// ChallengeRequest is what the device is asked to show the user.
type ChallengeRequest struct {
	PromptMessage         string `json:"prompt_message"`
	CancelLabel           string `json:"cancel_label"`
	FallbackLabel         string `json:"fallback_label"`
	RequireConfirmation   bool   `json:"require_confirmation"`
	DisableDeviceFallback bool   `json:"disable_device_fallback"`
}

// ChallengeResponse is the raw device answer. Error holds a device code
// such as "user_cancel" or "user_fallback" when Success is false.
type ChallengeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// Device is the local biometric API.
type Device interface {
	HasHardware(ctx context.Context) (bool, error)
	IsEnrolled(ctx context.Context) (bool, error)
	SupportedTypes(ctx context.Context) ([]Modality, error)
	SecurityLevel(ctx context.Context) (SecurityLevel, error)
	Challenge(ctx context.Context, req ChallengeRequest) (ChallengeResponse, error)
}
