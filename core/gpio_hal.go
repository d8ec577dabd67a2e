package core

// Pin identifies a hardware GPIO pin using the Arduino numbering the CNC
// shield is documented with. Targets map these to their own pin spaces.
type Pin uint8

// GPIODriver is the abstract GPIO interface the core uses for step, dir,
// enable and limit pins. Platform-specific implementations handle actual
// hardware control. SetPin must be safe to call from an interrupt context.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output.
	// Returns an error if the pin is invalid or already in use.
	ConfigureOutput(pin Pin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up
	// resistor. Used for the active-low limit switch inputs.
	ConfigureInputPullUp(pin Pin) error

	// SetPin sets the pin high (true) or low (false).
	SetPin(pin Pin, value bool) error

	// GetPin reads the current pin state.
	GetPin(pin Pin) (bool, error)

	// ReadPin reads the current pin state (alias for GetPin for convenience).
	ReadPin(pin Pin) bool
}

// Global singleton used by core code. Set once at startup before any poll
// runs; never swapped afterwards, so the interrupt path reads it without
// synchronization.
var gpioDriver GPIODriver

// SetGPIODriver is called by target-specific code to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the configured driver or panics if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}
