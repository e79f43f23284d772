package biometric

import (
	"context"
	"sync"
)

// FakeDevice is an in-process Device with scripted answers. It backs the
// simulated bridge used in dev (BIOMETRIC_SKIP) and the tests.
type FakeDevice struct {
	mu sync.Mutex

	Hardware bool
	Enrolled bool
	Types    []Modality
	Level    SecurityLevel
	Response ChallengeResponse

	// QueryErr fails every capability query; ChallengeErr fails the challenge.
	QueryErr     error
	ChallengeErr error

	challenges int
	last       ChallengeRequest
}

// SimulatedDevice is an enrolled fingerprint device that always matches.
func SimulatedDevice() *FakeDevice {
	return &FakeDevice{
		Hardware: true,
		Enrolled: true,
		Types:    []Modality{Fingerprint},
		Level:    SecurityBiometricStrong,
		Response: ChallengeResponse{Success: true},
	}
}

func (f *FakeDevice) HasHardware(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Hardware, f.QueryErr
}

func (f *FakeDevice) IsEnrolled(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Enrolled, f.QueryErr
}

func (f *FakeDevice) SupportedTypes(ctx context.Context) ([]Modality, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	return append([]Modality(nil), f.Types...), nil
}

func (f *FakeDevice) SecurityLevel(ctx context.Context) (SecurityLevel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Level, f.QueryErr
}

func (f *FakeDevice) Challenge(ctx context.Context, req ChallengeRequest) (ChallengeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.challenges++
	f.last = req
	if f.ChallengeErr != nil {
		return ChallengeResponse{}, f.ChallengeErr
	}
	if err := ctx.Err(); err != nil {
		return ChallengeResponse{}, err
	}
	return f.Response, nil
}

// Challenges returns how many challenges were issued.
func (f *FakeDevice) Challenges() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.challenges
}

// LastRequest returns the most recent challenge request.
func (f *FakeDevice) LastRequest() ChallengeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}
