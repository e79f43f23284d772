package biometric

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModalityLabel_Precedence(t *testing.T) {
	cases := []struct {
		name  string
		types []Modality
		want  string
	}{
		{"face beats fingerprint", []Modality{Fingerprint, FacialRecognition}, "Face Recognition"},
		{"fingerprint beats iris", []Modality{Iris, Fingerprint}, "Fingerprint"},
		{"iris only", []Modality{Iris}, "Iris"},
		{"empty", nil, "Biometric"},
		{"unrecognised", []Modality{ModalityUnknown}, "Biometric"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ModalityLabel(tc.types))
		})
	}
}

func TestSecurityLevel_String(t *testing.T) {
	assert.Equal(t, "Strong Biometric", ParseSecurityLevel("biometric_strong").String())
	assert.Equal(t, "Weak Biometric", ParseSecurityLevel("BIOMETRIC_WEAK").String())
	assert.Equal(t, "Secret", SecuritySecret.String())
	assert.Equal(t, "None", SecurityNone.String())
	assert.Equal(t, "Unknown", ParseSecurityLevel("quantum").String())
}

func TestChecker_Check(t *testing.T) {
	dev := &FakeDevice{Hardware: true, Enrolled: false, Types: []Modality{Iris}, Level: SecuritySecret}

	caps, err := NewChecker(dev).Check(context.Background())
	require.NoError(t, err)
	assert.True(t, caps.HasHardware)
	assert.False(t, caps.IsEnrolled)
	assert.Equal(t, []string{"iris"}, caps.TypeNames())
	assert.Equal(t, "Iris", caps.Label())
	assert.Equal(t, SecuritySecret, caps.SecurityLevel)
}

func TestChecker_QueryFailureIsNotUnavailable(t *testing.T) {
	boom := errors.New("sensor service crashed")
	dev := &FakeDevice{QueryErr: boom}

	_, err := NewChecker(dev).Check(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapabilityCheckFailed)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrHardwareUnavailable)
}

func TestAuthenticator_Preconditions(t *testing.T) {
	t.Run("no hardware", func(t *testing.T) {
		dev := &FakeDevice{Hardware: false, Enrolled: true}
		_, err := NewAuthenticator(dev).Authenticate(context.Background(), Prompt{})
		assert.ErrorIs(t, err, ErrHardwareUnavailable)
		assert.Equal(t, 0, dev.Challenges())
	})
	t.Run("not enrolled", func(t *testing.T) {
		dev := &FakeDevice{Hardware: true, Enrolled: false}
		_, err := NewAuthenticator(dev).Authenticate(context.Background(), Prompt{})
		assert.ErrorIs(t, err, ErrNotEnrolled)
		assert.Equal(t, 0, dev.Challenges())
	})
}

func TestAuthenticator_MapsDeviceResponses(t *testing.T) {
	cases := []struct {
		resp ChallengeResponse
		want Result
	}{
		{ChallengeResponse{Success: true}, Result{Outcome: Success}},
		{ChallengeResponse{Error: "user_cancel"}, Result{Outcome: UserCancelled}},
		{ChallengeResponse{Error: "system_cancel"}, Result{Outcome: Failed, Reason: "system_cancel"}},
		{ChallengeResponse{Error: "app_cancel"}, Result{Outcome: Failed, Reason: "app_cancel"}},
		{ChallengeResponse{Error: "user_fallback"}, Result{Outcome: UserRequestedFallback}},
		{ChallengeResponse{Error: "lockout"}, Result{Outcome: Failed, Reason: "lockout"}},
		{ChallengeResponse{}, Result{Outcome: Failed, Reason: "unknown"}},
	}
	for _, tc := range cases {
		t.Run(tc.want.Outcome.String()+"/"+tc.resp.Error, func(t *testing.T) {
			dev := SimulatedDevice()
			dev.Response = tc.resp

			got, err := NewAuthenticator(dev).Authenticate(context.Background(), Prompt{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, 1, dev.Challenges())
		})
	}
}

func TestAuthenticator_RequestShape(t *testing.T) {
	dev := SimulatedDevice()
	_, err := NewAuthenticator(dev).Authenticate(context.Background(), Prompt{Message: "Mark me"})
	require.NoError(t, err)

	req := dev.LastRequest()
	assert.Equal(t, "Mark me", req.PromptMessage)
	assert.Equal(t, "Cancel", req.CancelLabel)
	assert.Equal(t, "Use Passcode", req.FallbackLabel)
	assert.True(t, req.RequireConfirmation)
	assert.False(t, req.DisableDeviceFallback)
}

func TestAuthenticator_ChallengeError(t *testing.T) {
	dev := SimulatedDevice()
	dev.ChallengeErr = errors.New("bridge hung up")

	_, err := NewAuthenticator(dev).Authenticate(context.Background(), Prompt{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridge hung up")
}
