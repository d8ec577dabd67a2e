package core

// Hardware I/O definitions for the Arduino CNC Shield, using the standard
// Arduino pin numbering scheme.
//
// The step inputs of the A4988 drivers trigger on a rising edge, with a
// minimum 1 microsecond HIGH and LOW pulse width. If the fourth A-axis
// driver is used, jumpers connect A-STEP to D12 (also SpinEnable) and A-DIR
// to D13 (also SpinDir and usually the onboard LED).

const (
	XAxisStepPin Pin = 2
	YAxisStepPin Pin = 3
	ZAxisStepPin Pin = 4
	AAxisStepPin Pin = 12 // requires an optional jumper

	XAxisDirPin Pin = 5
	YAxisDirPin Pin = 6
	ZAxisDirPin Pin = 7
	AAxisDirPin Pin = 13 // requires an optional jumper

	StepperEnablePin Pin = 8 // active-low (LOW turns on the drivers)

	// Active-low input pins designated for limit stops.
	XLimitPin Pin = 9
	YLimitPin Pin = 10
	ZLimitPin Pin = 11
)

// DefaultConfig returns the machine configuration for the stock CNC shield
// pinout with default path dynamics on every axis.
func DefaultConfig() Config {
	cfg := Config{
		EnablePin: StepperEnablePin,
		LimitPins: [NumLimits]Pin{XLimitPin, YLimitPin, ZLimitPin},
	}
	stepPins := [NumAxes]Pin{XAxisStepPin, YAxisStepPin, ZAxisStepPin, AAxisStepPin}
	dirPins := [NumAxes]Pin{XAxisDirPin, YAxisDirPin, ZAxisDirPin, AAxisDirPin}
	for i := 0; i < NumAxes; i++ {
		cfg.Axes[i] = AxisConfig{
			StepPin: stepPins[i],
			DirPin:  dirPins[i],
			Freq:    DefaultFreq,
			Damping: DefaultDamping,
			QdMax:   DefaultQdMax,
			QddMax:  DefaultQddMax,
		}
	}
	return cfg
}
