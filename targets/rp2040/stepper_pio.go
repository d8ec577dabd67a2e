//go:build rp2040

package main

// PIO step pulse backend. Each axis gets one state machine that shapes the
// step pulse in hardware, so the HIGH width holds regardless of loop jitter.

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"winch/core"
)

// Command word format:
//
//	Bits 0-15:  pulse count (always 1 here)
//	Bits 16-23: delay cycles between pulses
//	Bit 31:     direction level
//
// Program flow: pull command, extract count into X and delay into Y, drive
// the direction pin, then emit X pulses with Y cycle gaps.
func buildPulseProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),   // 1: out x, 16 (pulse count)
		asm.Out(rp2pio.OutDestY, 8).Encode(),    // 2: out y, 8 (delay cycles)
		asm.Out(rp2pio.OutDestPins, 1).Encode(), // 3: out pins, 1 (direction)
		// pulse_loop:
		asm.Set(rp2pio.SetDestPins, 1).Delay(7).Encode(), // 4: set pins, 1 [7]
		asm.Set(rp2pio.SetDestPins, 0).Encode(),          // 5: set pins, 0
		// delay_loop:
		asm.Jmp(6, rp2pio.JmpYNZeroDec).Encode(), // 6: jmp y--, 6
		asm.Jmp(4, rp2pio.JmpXNZeroDec).Encode(), // 7: jmp x--, 4
		// .wrap
	}
}

const pulsePIOOrigin = 0 // jump targets are absolute, load at offset 0

// pulseUnit is one claimed state machine driving a step/dir pin pair.
type pulseUnit struct {
	sm       rp2pio.StateMachine
	stepPin  machine.Pin
	dirPin   machine.Pin
	dirLevel bool
}

func (u *pulseUnit) init(pio *rp2pio.PIO, offset uint8, programLen int) {
	u.stepPin.Configure(machine.PinConfig{Mode: pio.PinMode()})
	u.dirPin.Configure(machine.PinConfig{Mode: pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(u.stepPin, 1)
	cfg.SetOutPins(u.dirPin, 1)
	// Shift right, no autopull, 32-bit threshold.
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(programLen)-1, offset)
	// 1 MHz PIO clock: the set [7] instruction holds the step pin HIGH for
	// 8µs, well past the A4988 minimum.
	cfg.SetClkDivIntFrac(125, 0)

	u.sm.Init(offset, cfg)

	// Pin directions must be set after Init.
	u.sm.SetPindirsConsecutive(u.stepPin, 1, true)
	u.sm.SetPindirsConsecutive(u.dirPin, 1, true)
	u.sm.SetPinsConsecutive(u.stepPin, 1, false)
	u.sm.SetPinsConsecutive(u.dirPin, 1, false)

	u.sm.SetEnabled(true)
}

// pulse queues a single step with the unit's current direction level.
func (u *pulseUnit) pulse() {
	cmd := uint32(1) | (1 << 16) // count=1, delay=1
	if u.dirLevel {
		cmd |= 1 << 31
	}
	for u.sm.IsTxFIFOFull() {
		// brief: the FIFO drains at the PIO clock rate
	}
	u.sm.TxPut(cmd)
}

func (u *pulseUnit) stop() {
	u.sm.SetEnabled(false)
	u.sm.ClearFIFOs()
	u.sm.Restart()
	u.sm.SetEnabled(true)
}

// PIOPulseDriver implements core.GPIODriver with step/dir pairs routed
// through PIO state machines. All other pins fall through to the plain
// GPIO driver.
type PIOPulseDriver struct {
	base    *RPGPIODriver
	byStep  map[core.Pin]*pulseUnit
	byDir   map[core.Pin]*pulseUnit
	stepped map[core.Pin]bool // last level written per step pin, for GetPin
}

// NewPIOPulseDriver claims state machines on PIO0 for every step/dir pair
// and loads the shared pulse program once.
func NewPIOPulseDriver(base *RPGPIODriver, pairs map[core.Pin]core.Pin) (*PIOPulseDriver, error) {
	pio := rp2pio.PIO0
	program := buildPulseProgram()
	offset, err := pio.AddProgram(program, pulsePIOOrigin)
	if err != nil {
		return nil, err
	}

	d := &PIOPulseDriver{
		base:    base,
		byStep:  make(map[core.Pin]*pulseUnit, len(pairs)),
		byDir:   make(map[core.Pin]*pulseUnit, len(pairs)),
		stepped: make(map[core.Pin]bool, len(pairs)),
	}

	var smNum uint8
	for stepPin, dirPin := range pairs {
		u := &pulseUnit{
			sm:      pio.StateMachine(smNum),
			stepPin: picoPins[stepPin],
			dirPin:  picoPins[dirPin],
		}
		u.sm.TryClaim()
		u.init(pio, offset, len(program))
		d.byStep[stepPin] = u
		d.byDir[dirPin] = u
		smNum++
	}
	return d, nil
}

func (d *PIOPulseDriver) ConfigureOutput(pin core.Pin) error {
	// PIO owns its pins; configuring them again would steal them back.
	if d.byStep[pin] != nil || d.byDir[pin] != nil {
		return nil
	}
	return d.base.ConfigureOutput(pin)
}

func (d *PIOPulseDriver) ConfigureInputPullUp(pin core.Pin) error {
	return d.base.ConfigureInputPullUp(pin)
}

func (d *PIOPulseDriver) SetPin(pin core.Pin, value bool) error {
	if u := d.byDir[pin]; u != nil {
		u.dirLevel = value
		return nil
	}
	if u := d.byStep[pin]; u != nil {
		// The rising edge queues one hardware-shaped pulse; the falling
		// write is absorbed because the PIO already dropped the pin.
		if value && !d.stepped[pin] {
			u.pulse()
		}
		d.stepped[pin] = value
		return nil
	}
	return d.base.SetPin(pin, value)
}

func (d *PIOPulseDriver) GetPin(pin core.Pin) (bool, error) {
	if u := d.byDir[pin]; u != nil {
		return u.dirLevel, nil
	}
	if _, ok := d.byStep[pin]; ok {
		return d.stepped[pin], nil
	}
	return d.base.GetPin(pin)
}

func (d *PIOPulseDriver) ReadPin(pin core.Pin) bool {
	v, _ := d.GetPin(pin)
	return v
}

// Stop flushes and restarts every pulse unit, dropping queued steps.
func (d *PIOPulseDriver) Stop() {
	for _, u := range d.byStep {
		u.stop()
	}
}
