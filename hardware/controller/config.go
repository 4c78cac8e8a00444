package controller

// Config holds the small set of host-tunable preferences the analog
// controller consults. It carries documented defaults and clamps its own
// fields rather than trusting the caller, the way the teacher's
// hardware/preferences types clamp TIA revision bits - there is no disk
// persistence here, that's the host's job; this struct is the already-
// resolved result of whatever settings layer the host runs.
type Config struct {
	// ForceAnalogOnReset starts the controller in analog mode on every
	// Reset, unless DisableAnalogModeForcing overrides it.
	ForceAnalogOnReset bool

	// AnalogDPadInDigitalMode lets the left stick substitute for the d-pad
	// while the controller is in digital, non-configuration mode.
	AnalogDPadInDigitalMode bool

	// AxisScale multiplies every axis reading before it is mapped from
	// -1..1 into 0..255. Clamped to [0.01, 1.50]; the sign is discarded
	// before clamping.
	AxisScale float32

	// VibrationBias is added to a motor's raw intensity before the cubic
	// conditioning curve is applied, to compensate for motors that don't
	// spin up cleanly at low input values.
	VibrationBias uint8

	// DisableAnalogModeForcing overrides ForceAnalogOnReset off. When
	// ForceAnalogOnReset is also set, NewAnalogController raises
	// notifications.NoticeAnalogModeForcingDisabled once.
	DisableAnalogModeForcing bool
}

// DefaultConfig returns the preference values the original hardware ships
// with.
func DefaultConfig() Config {
	return Config{
		AxisScale:     1.00,
		VibrationBias: 8,
	}
}

// Normalize clamps every field to its documented range. Callers that build
// a Config from untrusted input should call this before passing it to
// NewAnalogController.
func (c *Config) Normalize() {
	if c.AxisScale < 0 {
		c.AxisScale = -c.AxisScale
	}
	if c.AxisScale < 0.01 {
		c.AxisScale = 0.01
	}
	if c.AxisScale > 1.50 {
		c.AxisScale = 1.50
	}
}
