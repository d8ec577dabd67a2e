//go:build rp2040

package main

import (
	"errors"
	"machine"

	"winch/core"
)

// picoPins maps the shield's Arduino pin numbers onto Pico GPIO. The CNC
// hat for the Pico wires D2..D13 straight through to GP2..GP13.
var picoPins = map[core.Pin]machine.Pin{
	core.XAxisStepPin: machine.GP2,
	core.YAxisStepPin: machine.GP3,
	core.ZAxisStepPin: machine.GP4,
	core.AAxisStepPin: machine.GP12,

	core.XAxisDirPin: machine.GP5,
	core.YAxisDirPin: machine.GP6,
	core.ZAxisDirPin: machine.GP7,
	core.AAxisDirPin: machine.GP13,

	core.StepperEnablePin: machine.GP8,

	core.XLimitPin: machine.GP9,
	core.YLimitPin: machine.GP10,
	core.ZLimitPin: machine.GP11,
}

var errUnknownPin = errors.New("pin not on shield")

// RPGPIODriver drives shield pins through the machine package. Step
// pulses get a short busy-wait stretch so the A4988 minimum HIGH width
// holds even at full loop speed.
type RPGPIODriver struct {
	isStep map[core.Pin]bool
}

func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		isStep: map[core.Pin]bool{
			core.XAxisStepPin: true,
			core.YAxisStepPin: true,
			core.ZAxisStepPin: true,
			core.AAxisStepPin: true,
		},
	}
}

func (d *RPGPIODriver) ConfigureOutput(pin core.Pin) error {
	mp, ok := picoPins[pin]
	if !ok {
		return errUnknownPin
	}
	mp.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

func (d *RPGPIODriver) ConfigureInputPullUp(pin core.Pin) error {
	mp, ok := picoPins[pin]
	if !ok {
		return errUnknownPin
	}
	mp.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return nil
}

func (d *RPGPIODriver) SetPin(pin core.Pin, value bool) error {
	mp, ok := picoPins[pin]
	if !ok {
		return errUnknownPin
	}
	mp.Set(value)
	if value && d.isStep[pin] {
		stretchPulse()
	}
	return nil
}

func (d *RPGPIODriver) GetPin(pin core.Pin) (bool, error) {
	mp, ok := picoPins[pin]
	if !ok {
		return false, errUnknownPin
	}
	return mp.Get(), nil
}

func (d *RPGPIODriver) ReadPin(pin core.Pin) bool {
	v, _ := d.GetPin(pin)
	return v
}

// stretchPulse holds for ~2µs at 125MHz. The A4988 wants at least 1µs of
// HIGH time on the step input.
func stretchPulse() {
	for i := 0; i < 250; i++ {
		// Empty loop for delay
	}
}
