package machine

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"gopin/pins"
)

// Load reads and parses a machine file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read machine file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML (or JSON) machine description, fills in defaults and
// validates every signal.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks roles and pin descriptors without touching any hardware.
func (c *Config) Validate() error {
	if len(c.Signals) == 0 {
		return &ConfigError{Err: ErrNoSignals}
	}
	for _, name := range c.SignalNames() {
		sig := c.Signals[name]
		if !sig.Role.Valid() {
			return &ConfigError{Signal: name, Err: fmt.Errorf("%w %q", ErrUnknownRole, sig.Role)}
		}
		d, err := pins.ParseDescriptor(sig.Pin)
		if err != nil {
			return &ConfigError{Signal: name, Err: err}
		}
		if d.Kind == pins.KindGPIO {
			if _, err := pins.ParseOptions(d.Index, d.Options); err != nil {
				return &ConfigError{Signal: name, Err: err}
			}
		}
	}
	return nil
}

// SignalNames returns the signal names in sorted order.
func (c *Config) SignalNames() []string {
	names := make([]string, 0, len(c.Signals))
	for name := range c.Signals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyDefaults fills in missing configuration values with stock Grbl
// settings
func applyDefaults(cfg *Config) {
	if cfg.Name == "" {
		cfg.Name = "unnamed"
	}

	d := &cfg.Defaults
	if d.StepPulseUS == 0 {
		d.StepPulseUS = 3
	}
	if d.IdleLockMS == 0 {
		d.IdleLockMS = 250
	}
	if d.JunctionDeviation == 0 {
		d.JunctionDeviation = 0.01
	}
	if d.ArcTolerance == 0 {
		d.ArcTolerance = 0.002
	}

	if d.Homing.FeedRate == 0 {
		d.Homing.FeedRate = 200.0
	}
	if d.Homing.SeekRate == 0 {
		d.Homing.SeekRate = 2000.0
	}
	if d.Homing.DebounceMS == 0 {
		d.Homing.DebounceMS = 250
	}
	if d.Homing.Pulloff == 0 {
		d.Homing.Pulloff = 1.0
	}

	if d.Spindle.RPMMax == 0 {
		d.Spindle.RPMMax = 1000.0
	}

	if d.Axes == nil {
		d.Axes = make(map[string]Axis)
	}
	for _, name := range []string{"x", "y", "z"} {
		if _, ok := d.Axes[name]; !ok {
			d.Axes[name] = Axis{}
		}
	}
	for name, axis := range d.Axes {
		if axis.StepsPerMM == 0 {
			axis.StepsPerMM = 100.0
		}
		if axis.MaxRate == 0 {
			axis.MaxRate = 1000.0
		}
		if axis.Acceleration == 0 {
			axis.Acceleration = 200.0 * 60 * 60 // 200 mm/s^2
		}
		if axis.MaxTravel == 0 {
			axis.MaxTravel = 1000.0
		}
		d.Axes[name] = axis
	}
}

// ServoAxis returns the pen/laser machine with a stepper X axis and hobby
// servos on Y and Z.
func ServoAxis() *Config {
	return &Config{
		Name: "servo_axis",
		Signals: map[string]Signal{
			"x_step":           {Pin: "gpio.12", Role: RoleStep},
			"x_direction":      {Pin: "gpio.26", Role: RoleDirection},
			"steppers_disable": {Pin: "gpio.13", Role: RoleEnable},
			"x_limit":          {Pin: "gpio.15", Role: RoleLimit},
			"y_limit":          {Pin: "gpio.4", Role: RoleLimit},
			"spindle_pwm":      {Pin: "gpio.17", Role: RoleSpindlePWM},
			"servo_y":          {Pin: "gpio.14", Role: RoleServo, Channel: 6, RangeMin: 0, RangeMax: 30},
			"servo_z":          {Pin: "gpio.27", Role: RoleServo, Channel: 5, RangeMin: 0, RangeMax: 20},
		},
		Defaults: Defaults{
			StepPulseUS:       3,
			IdleLockMS:        250,
			InvertLimitPins:   true,
			JunctionDeviation: 0.01,
			ArcTolerance:      0.002,
			Homing: Homing{
				FeedRate:   200.0,
				SeekRate:   1000.0,
				DebounceMS: 250,
				Pulloff:    3.0,
			},
			Spindle: Spindle{RPMMin: 0, RPMMax: 1000.0},
			Axes: map[string]Axis{
				"x": {StepsPerMM: 40, MaxRate: 2000.0, Acceleration: 50.0 * 60 * 60, MaxTravel: 300.0},
				"y": {StepsPerMM: 100.0, MaxRate: 2000.0, Acceleration: 50.0 * 60 * 60, MaxTravel: 100.0},
				"z": {StepsPerMM: 100.0, MaxRate: 2000.0, Acceleration: 50.0 * 60 * 60, MaxTravel: 100.0},
			},
		},
	}
}
