// Package machine describes which pins a CNC controller uses for which
// signals and brings them up on a pins.Board.
package machine

import (
	"errors"
	"fmt"
)

// Role says what a signal does, and so how its pin must be configured.
type Role string

const (
	RoleStep       Role = "step"
	RoleDirection  Role = "direction"
	RoleEnable     Role = "enable"
	RoleLimit      Role = "limit"
	RoleProbe      Role = "probe"
	RoleSpindlePWM Role = "spindle_pwm"
	RoleServo      Role = "servo"
)

var roles = []Role{RoleStep, RoleDirection, RoleEnable, RoleLimit, RoleProbe, RoleSpindlePWM, RoleServo}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range roles {
		if r == known {
			return true
		}
	}
	return false
}

// NeedsPWM reports whether the role drives a PWM peripheral.
func (r Role) NeedsPWM() bool {
	return r == RoleSpindlePWM || r == RoleServo
}

var (
	ErrUnknownRole = errors.New("unknown signal role")
	ErrNeedsPWM    = errors.New("pin is not PWM capable")
	ErrNoSignals   = errors.New("machine defines no signals")
)

// ConfigError ties a configuration failure to the signal that caused it.
type ConfigError struct {
	Signal string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Signal == "" {
		return "machine: " + e.Err.Error()
	}
	return fmt.Sprintf("machine: signal %q: %v", e.Signal, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Signal binds a named controller signal to a pin descriptor.
type Signal struct {
	Pin  string `yaml:"pin"`  // Pin descriptor, e.g. "gpio.15:pu"
	Role Role   `yaml:"role"` // How the pin is used

	// Servo signals only
	Channel  int     `yaml:"channel,omitempty"`   // PWM channel
	RangeMin float64 `yaml:"range_min,omitempty"` // Travel at minimum pulse (mm)
	RangeMax float64 `yaml:"range_max,omitempty"` // Travel at maximum pulse (mm)
}

// Axis holds the motion limits of one axis.
type Axis struct {
	StepsPerMM   float64 `yaml:"steps_per_mm"`
	MaxRate      float64 `yaml:"max_rate"`     // mm/min
	Acceleration float64 `yaml:"acceleration"` // mm/min^2
	MaxTravel    float64 `yaml:"max_travel"`   // mm
}

type Homing struct {
	Enable     bool    `yaml:"enable"`
	DirMask    uint8   `yaml:"dir_mask"`
	FeedRate   float64 `yaml:"feed_rate"` // mm/min
	SeekRate   float64 `yaml:"seek_rate"` // mm/min
	DebounceMS int     `yaml:"debounce_ms"`
	Pulloff    float64 `yaml:"pulloff"` // mm
}

type Spindle struct {
	RPMMin    float64 `yaml:"rpm_min"`
	RPMMax    float64 `yaml:"rpm_max"`
	LaserMode bool    `yaml:"laser_mode"`
}

// Defaults are the controller settings a machine starts with.
type Defaults struct {
	StepPulseUS     int   `yaml:"step_pulse_us"`
	IdleLockMS      int   `yaml:"idle_lock_ms"` // 255 keeps steppers enabled
	StepInvertMask  uint8 `yaml:"step_invert_mask"`
	DirInvertMask   uint8 `yaml:"dir_invert_mask"`
	InvertEnable    bool  `yaml:"invert_enable"`
	InvertLimitPins bool  `yaml:"invert_limit_pins"`
	InvertProbePin  bool  `yaml:"invert_probe_pin"`

	JunctionDeviation float64 `yaml:"junction_deviation"` // mm
	ArcTolerance      float64 `yaml:"arc_tolerance"`      // mm
	SoftLimits        bool    `yaml:"soft_limits"`
	HardLimits        bool    `yaml:"hard_limits"`

	Homing  Homing          `yaml:"homing"`
	Spindle Spindle         `yaml:"spindle"`
	Axes    map[string]Axis `yaml:"axes"` // "x", "y", "z"
}

// Config is a complete machine description.
type Config struct {
	Name     string            `yaml:"name"`
	Signals  map[string]Signal `yaml:"signals"`
	Defaults Defaults          `yaml:"defaults"`
}
