package core

// Axis composition: each winch channel owns one path generator polled from
// the main loop and one step generator polled from the timer interrupt. The
// only coupling is the integer setpoint copied from path to stepper between
// path polls.

const (
	// NumAxes is the number of channels on the CNC shield (X, Y, Z, A).
	NumAxes = 4

	// NumLimits is the number of limit switch inputs (X, Y, Z).
	NumLimits = 3
)

// AxisNames gives the conventional channel letters, indexed like Config.Axes.
var AxisNames = [NumAxes]byte{'x', 'y', 'z', 'a'}

// AxisConfig holds the static per-channel setup.
type AxisConfig struct {
	StepPin Pin
	DirPin  Pin

	// Second-order path response and safety clamps.
	Freq    float64 // natural frequency, Hz
	Damping float64 // damping ratio, 1.0 = critical
	QdMax   float64 // steps/s
	QddMax  float64 // steps/s^2

	// MaxStepRate bounds the step generator pulse rate in steps/s.
	// Zero keeps the power-on default of 5000 steps/s.
	MaxStepRate int64
}

// Config describes a whole machine: four axes plus the shared enable output
// and the limit inputs.
type Config struct {
	Axes      [NumAxes]AxisConfig
	EnablePin Pin
	LimitPins [NumLimits]Pin
	UseLimits bool
}

// Axis pairs one path generator with one step generator. Both live for the
// duration of the program; there is no cross-axis sharing.
type Axis struct {
	Path    *Path
	Stepper *Stepper
}

// NewAxis builds an axis from its configuration. Hardware pins are not
// touched until Machine.Init.
func NewAxis(cfg AxisConfig) *Axis {
	a := &Axis{
		Path:    NewPath(),
		Stepper: NewStepper(cfg.StepPin, cfg.DirPin),
	}
	a.Path.SetFreqDamping(cfg.Freq, cfg.Damping)
	a.Path.SetLimits(cfg.QdMax, cfg.QddMax)
	if cfg.MaxStepRate > 0 {
		a.Stepper.SetSpeed(cfg.MaxStepRate)
	}
	return a
}

// Transfer copies the current path position into the stepper target.
// Foreground only; the stepper picks the new target up on its next tick.
func (a *Axis) Transfer() {
	a.Stepper.SetTarget(a.Path.CurrentPosition())
}

// Machine owns the four axes and the shared shield pins.
type Machine struct {
	axes      [NumAxes]*Axis
	enablePin Pin
	limitPins [NumLimits]Pin
	useLimits bool
	tripped   [NumLimits]bool
	enabled   bool
}

// NewMachine builds the axes from the configuration. Call Init before
// polling to claim the hardware pins.
func NewMachine(cfg Config) *Machine {
	m := &Machine{
		enablePin: cfg.EnablePin,
		limitPins: cfg.LimitPins,
		useLimits: cfg.UseLimits,
	}
	for i := 0; i < NumAxes; i++ {
		m.axes[i] = NewAxis(cfg.Axes[i])
	}
	return m
}

// Init configures all shield pins through the registered GPIO driver:
// step/dir/enable as outputs, limits as pulled-up inputs.
func (m *Machine) Init() error {
	gpio := MustGPIO()
	for _, a := range m.axes {
		if err := gpio.ConfigureOutput(a.Stepper.stepPin); err != nil {
			return err
		}
		if err := gpio.ConfigureOutput(a.Stepper.dirPin); err != nil {
			return err
		}
	}
	if err := gpio.ConfigureOutput(m.enablePin); err != nil {
		return err
	}
	// Drivers off until Enable(true); the enable input is active-low.
	if err := gpio.SetPin(m.enablePin, true); err != nil {
		return err
	}
	if m.useLimits {
		for _, pin := range m.limitPins {
			if err := gpio.ConfigureInputPullUp(pin); err != nil {
				return err
			}
		}
	}
	return nil
}

// Axis returns the channel at the given index (0..NumAxes-1).
func (m *Machine) Axis(i int) *Axis {
	return m.axes[i]
}

// PollPaths integrates every path generator over the given interval and
// transfers the fresh setpoints to the step generators. Main loop cadence,
// typically 100 Hz to 1 kHz.
func (m *Machine) PollPaths(intervalUS uint32) {
	for _, a := range m.axes {
		a.Path.Poll(intervalUS)
		a.Transfer()
	}
}

// PollSteppers advances every step generator. This is the interrupt entry
// point: it allocates nothing and emits at most one pulse per axis.
func (m *Machine) PollSteppers(intervalUS uint32) {
	for _, a := range m.axes {
		a.Stepper.Poll(intervalUS)
	}
}

// SetTargets applies absolute path targets to the leading axes. Fewer
// values than axes leaves the remaining axes unchanged.
func (m *Machine) SetTargets(vals []int64) {
	for i, v := range vals {
		if i >= NumAxes {
			break
		}
		m.axes[i].Path.SetTarget(v)
		recordTimingEvent(EvtTargetSet, uint8(m.axes[i].Stepper.stepPin), uint32(v), 0)
	}
}

// IncrementTargets applies signed target offsets to the leading axes.
func (m *Machine) IncrementTargets(vals []int64) {
	for i, v := range vals {
		if i >= NumAxes {
			break
		}
		m.axes[i].Path.IncrementTarget(v)
	}
}

// IncrementReferences applies reference impulses to the leading axes.
func (m *Machine) IncrementReferences(vals []int64) {
	for i, v := range vals {
		if i >= NumAxes {
			break
		}
		m.axes[i].Path.IncrementReference(v)
	}
}

// SetSpeeds applies ramp speeds to the leading axes.
func (m *Machine) SetSpeeds(vals []int64) {
	for i, v := range vals {
		if i >= NumAxes {
			break
		}
		m.axes[i].Path.SetSpeed(v)
	}
}

// SetVelocities puts the leading axes into perpetual motion at the given
// signed rates.
func (m *Machine) SetVelocities(vals []int64) {
	for i, v := range vals {
		if i >= NumAxes {
			break
		}
		m.axes[i].Path.SetVelocity(v)
	}
}

// SetPDGains applies raw second-order gains to every axis.
func (m *Machine) SetPDGains(k, b float64) {
	for _, a := range m.axes {
		a.Path.SetPDGains(k, b)
	}
}

// SetFreqDamping applies derived second-order gains to every axis.
func (m *Machine) SetFreqDamping(freq, damping float64) {
	for _, a := range m.axes {
		a.Path.SetFreqDamping(freq, damping)
	}
}

// SetPathLimits applies velocity and acceleration clamps to every axis.
func (m *Machine) SetPathLimits(qdMax, qddMax float64) {
	for _, a := range m.axes {
		a.Path.SetLimits(qdMax, qddMax)
	}
}

// PathPositions reports the integer path positions of all axes.
func (m *Machine) PathPositions() [NumAxes]int64 {
	var out [NumAxes]int64
	for i, a := range m.axes {
		out[i] = a.Path.CurrentPosition()
	}
	return out
}

// PathVelocities reports the integer path velocities of all axes.
func (m *Machine) PathVelocities() [NumAxes]int64 {
	var out [NumAxes]int64
	for i, a := range m.axes {
		out[i] = a.Path.CurrentVelocity()
	}
	return out
}

// StepperPositions reports the physical step counts of all axes.
func (m *Machine) StepperPositions() [NumAxes]int64 {
	var out [NumAxes]int64
	for i, a := range m.axes {
		out[i] = a.Stepper.CurrentPosition()
	}
	return out
}

// Enable switches the A4988 drivers on or off. The shield enable input is
// active-low.
func (m *Machine) Enable(on bool) error {
	m.enabled = on
	recordTimingEvent(EvtEnable, 0, boolToU32(on), 0)
	return MustGPIO().SetPin(m.enablePin, !on)
}

// Enabled reports whether the drivers are switched on.
func (m *Machine) Enabled() bool {
	return m.enabled
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
