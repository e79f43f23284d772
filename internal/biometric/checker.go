package biometric

import (
	"context"
	"fmt"
)

// Capabilities is a fresh snapshot of what the device can do.
type Capabilities struct {
	HasHardware    bool          `json:"has_hardware"`
	IsEnrolled     bool          `json:"is_enrolled"`
	SupportedTypes []Modality    `json:"-"`
	SecurityLevel  SecurityLevel `json:"-"`
}

// Supports reports whether m is among the supported types.
func (c Capabilities) Supports(m Modality) bool {
	for _, t := range c.SupportedTypes {
		if t == m {
			return true
		}
	}
	return false
}

// Label is the display name of the preferred modality.
func (c Capabilities) Label() string {
	return ModalityLabel(c.SupportedTypes)
}

// TypeNames returns the supported types as device names.
func (c Capabilities) TypeNames() []string {
	names := make([]string, 0, len(c.SupportedTypes))
	for _, t := range c.SupportedTypes {
		names = append(names, t.String())
	}
	return names
}

// ModalityLabel picks a label with precedence face > fingerprint > iris.
func ModalityLabel(types []Modality) string {
	c := Capabilities{SupportedTypes: types}
	switch {
	case c.Supports(FacialRecognition):
		return "Face Recognition"
	case c.Supports(Fingerprint):
		return "Fingerprint"
	case c.Supports(Iris):
		return "Iris"
	default:
		return "Biometric"
	}
}

// Checker queries the device for its biometric capabilities.
type Checker struct {
	device Device
}

// NewChecker creates a checker over a device.
func NewChecker(device Device) *Checker {
	return &Checker{device: device}
}

// Check queries the device. Results are never cached.
func (c *Checker) Check(ctx context.Context) (Capabilities, error) {
	hasHardware, err := c.device.HasHardware(ctx)
	if err != nil {
		return Capabilities{}, fmt.Errorf("%w: hardware: %w", ErrCapabilityCheckFailed, err)
	}
	isEnrolled, err := c.device.IsEnrolled(ctx)
	if err != nil {
		return Capabilities{}, fmt.Errorf("%w: enrollment: %w", ErrCapabilityCheckFailed, err)
	}
	types, err := c.device.SupportedTypes(ctx)
	if err != nil {
		return Capabilities{}, fmt.Errorf("%w: supported types: %w", ErrCapabilityCheckFailed, err)
	}
	level, err := c.device.SecurityLevel(ctx)
	if err != nil {
		return Capabilities{}, fmt.Errorf("%w: security level: %w", ErrCapabilityCheckFailed, err)
	}
	return Capabilities{
		HasHardware:    hasHardware,
		IsEnrolled:     isEnrolled,
		SupportedTypes: types,
		SecurityLevel:  level,
	}, nil
}
