package sim

import (
	"encoding/json"
	"fmt"

	"winch/core"
)

// AxisSettings configures one channel of the simulated machine.
type AxisSettings struct {
	StepPin     uint8   `json:"step_pin"`
	DirPin      uint8   `json:"dir_pin"`
	Freq        float64 `json:"freq"`          // natural frequency, Hz
	Damping     float64 `json:"damping"`       // 1.0 = critical
	QdMax       float64 `json:"qd_max"`        // steps/s
	QddMax      float64 `json:"qdd_max"`       // steps/s^2
	MaxStepRate int64   `json:"max_step_rate"` // steps/s
}

// Settings is the JSON configuration for a simulation run.
type Settings struct {
	Axes map[string]AxisSettings `json:"axes"` // keyed "x","y","z","a"

	EnablePin uint8   `json:"enable_pin"`
	LimitPins []uint8 `json:"limit_pins"`
	UseLimits bool    `json:"use_limits"`

	ISRIntervalUS  uint32 `json:"isr_interval_us"`
	PathIntervalUS uint32 `json:"path_interval_us"`
}

// LoadSettings parses a JSON configuration and fills in defaults for
// anything left out.
func LoadSettings(jsonData []byte) (*Settings, error) {
	s := &Settings{}
	if err := json.Unmarshal(jsonData, s); err != nil {
		return nil, fmt.Errorf("sim config: %w", err)
	}
	applyDefaults(s)
	return s, nil
}

// DefaultSettings returns the stock CNC shield wiring with default path
// dynamics, a 20 kHz interrupt and a 1 kHz main loop.
func DefaultSettings() *Settings {
	s := &Settings{}
	applyDefaults(s)
	return s
}

func applyDefaults(s *Settings) {
	defaults := core.DefaultConfig()

	if s.Axes == nil {
		s.Axes = make(map[string]AxisSettings)
	}
	for i := 0; i < core.NumAxes; i++ {
		name := string(core.AxisNames[i])
		ax, ok := s.Axes[name]
		if !ok {
			ax = AxisSettings{}
		}
		def := defaults.Axes[i]
		if ax.StepPin == 0 {
			ax.StepPin = uint8(def.StepPin)
		}
		if ax.DirPin == 0 {
			ax.DirPin = uint8(def.DirPin)
		}
		if ax.Freq == 0 {
			ax.Freq = def.Freq
		}
		if ax.Damping == 0 {
			ax.Damping = def.Damping
		}
		if ax.QdMax == 0 {
			ax.QdMax = def.QdMax
		}
		if ax.QddMax == 0 {
			ax.QddMax = def.QddMax
		}
		s.Axes[name] = ax
	}

	if s.EnablePin == 0 {
		s.EnablePin = uint8(defaults.EnablePin)
	}
	if len(s.LimitPins) == 0 {
		s.LimitPins = []uint8{
			uint8(core.XLimitPin), uint8(core.YLimitPin), uint8(core.ZLimitPin),
		}
	}
	if s.ISRIntervalUS == 0 {
		s.ISRIntervalUS = 50 // 20 kHz
	}
	if s.PathIntervalUS == 0 {
		s.PathIntervalUS = 1000 // 1 kHz
	}
}

// MachineConfig translates the settings into the core configuration.
func (s *Settings) MachineConfig() core.Config {
	cfg := core.Config{
		EnablePin: core.Pin(s.EnablePin),
		UseLimits: s.UseLimits,
	}
	for i := 0; i < core.NumAxes; i++ {
		ax := s.Axes[string(core.AxisNames[i])]
		cfg.Axes[i] = core.AxisConfig{
			StepPin:     core.Pin(ax.StepPin),
			DirPin:      core.Pin(ax.DirPin),
			Freq:        ax.Freq,
			Damping:     ax.Damping,
			QdMax:       ax.QdMax,
			QddMax:      ax.QddMax,
			MaxStepRate: ax.MaxStepRate,
		}
	}
	for i := 0; i < core.NumLimits && i < len(s.LimitPins); i++ {
		cfg.LimitPins[i] = core.Pin(s.LimitPins[i])
	}
	return cfg
}
