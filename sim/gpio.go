package sim

import (
	"fmt"

	"winch/core"
)

// MockGPIO is a GPIO driver backed by plain maps. It counts rising edges
// per pin so a simulation can verify exactly how many step pulses reached
// the virtual drivers. Single-goroutine use only, like the real HAL.
type MockGPIO struct {
	levels  map[core.Pin]bool
	outputs map[core.Pin]bool
	inputs  map[core.Pin]bool
	rises   map[core.Pin]uint64
}

// NewMockGPIO returns an empty virtual pin space.
func NewMockGPIO() *MockGPIO {
	return &MockGPIO{
		levels:  make(map[core.Pin]bool),
		outputs: make(map[core.Pin]bool),
		inputs:  make(map[core.Pin]bool),
		rises:   make(map[core.Pin]uint64),
	}
}

// ConfigureOutput marks a pin as an output.
func (m *MockGPIO) ConfigureOutput(pin core.Pin) error {
	if m.inputs[pin] {
		return fmt.Errorf("pin %d already configured as input", pin)
	}
	m.outputs[pin] = true
	return nil
}

// ConfigureInputPullUp marks a pin as a pulled-up input (idle high).
func (m *MockGPIO) ConfigureInputPullUp(pin core.Pin) error {
	if m.outputs[pin] {
		return fmt.Errorf("pin %d already configured as output", pin)
	}
	m.inputs[pin] = true
	m.levels[pin] = true
	return nil
}

// SetPin drives an output level, counting rising edges.
func (m *MockGPIO) SetPin(pin core.Pin, value bool) error {
	if value && !m.levels[pin] {
		m.rises[pin]++
	}
	m.levels[pin] = value
	return nil
}

// GetPin reads the current pin level.
func (m *MockGPIO) GetPin(pin core.Pin) (bool, error) {
	return m.levels[pin], nil
}

// ReadPin reads the current pin level.
func (m *MockGPIO) ReadPin(pin core.Pin) bool {
	return m.levels[pin]
}

// RisingEdges returns the number of rising edges seen on a pin.
func (m *MockGPIO) RisingEdges(pin core.Pin) uint64 {
	return m.rises[pin]
}

// SetInput forces an input pin level, simulating a switch.
func (m *MockGPIO) SetInput(pin core.Pin, level bool) {
	m.levels[pin] = level
}
