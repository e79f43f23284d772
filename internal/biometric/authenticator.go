package biometric

import (
	"context"
	"fmt"
)

// Outcome tags a Result.
type Outcome int

const (
	Success Outcome = iota
	UserCancelled
	UserRequestedFallback
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case UserCancelled:
		return "user_cancelled"
	case UserRequestedFallback:
		return "user_fallback"
	default:
		return "failed"
	}
}

// Result is the mapped outcome of one challenge. Reason is set for Failed.
type Result struct {
	Outcome Outcome
	Reason  string
}

// Prompt holds the labels shown during a challenge.
type Prompt struct {
	Message       string
	CancelLabel   string
	FallbackLabel string
}

func (p Prompt) withDefaults() Prompt {
	if p.Message == "" {
		p.Message = "Authenticate to continue"
	}
	if p.CancelLabel == "" {
		p.CancelLabel = "Cancel"
	}
	if p.FallbackLabel == "" {
		p.FallbackLabel = "Use Passcode"
	}
	return p
}

// Authenticator issues a single biometric challenge and maps its result.
type Authenticator struct {
	device  Device
	checker *Checker
}

// NewAuthenticator creates an authenticator over a device.
func NewAuthenticator(device Device) *Authenticator {
	return &Authenticator{device: device, checker: NewChecker(device)}
}

// Authenticate fails fast when the device cannot run a challenge, otherwise
// blocks until the device resolves exactly one challenge. It never retries.
func (a *Authenticator) Authenticate(ctx context.Context, p Prompt) (Result, error) {
	caps, err := a.checker.Check(ctx)
	if err != nil {
		return Result{}, err
	}
	if !caps.HasHardware {
		return Result{}, ErrHardwareUnavailable
	}
	if !caps.IsEnrolled {
		return Result{}, ErrNotEnrolled
	}

	p = p.withDefaults()
	resp, err := a.device.Challenge(ctx, ChallengeRequest{
		PromptMessage:         p.Message,
		CancelLabel:           p.CancelLabel,
		FallbackLabel:         p.FallbackLabel,
		RequireConfirmation:   true,
		DisableDeviceFallback: false,
	})
	if err != nil {
		return Result{}, fmt.Errorf("biometric challenge: %w", err)
	}
	return mapResponse(resp), nil
}

func mapResponse(resp ChallengeResponse) Result {
	if resp.Success {
		return Result{Outcome: Success}
	}
	switch resp.Error {
	case "user_cancel":
		return Result{Outcome: UserCancelled}
	case "user_fallback":
		return Result{Outcome: UserRequestedFallback}
	case "":
		return Result{Outcome: Failed, Reason: "unknown"}
	default:
		return Result{Outcome: Failed, Reason: resp.Error}
	}
}
