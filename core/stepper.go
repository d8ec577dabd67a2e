package core

// Step generator for a single stepper motor.
// Emits step and direction signals so that the position count tracks the
// target at a bounded rate. Poll runs from a fast timer interrupt; all other
// methods are foreground-only.

import "sync/atomic"

// DefaultStepInterval is the power-on step interval: 200 us = 5000 steps/sec.
const DefaultStepInterval = 200

// Stepper manages step/dir signal generation for one motor channel.
//
// target and position are the only state shared between the foreground and
// the interrupt context. Both are held in atomic words so each side always
// sees whole values; a racing target update is tolerated because the poll
// simply converges on a later tick.
type Stepper struct {
	// Pin assignments, fixed at construction.
	stepPin Pin
	dirPin  Pin

	// target is written by the foreground and read by Poll.
	target atomic.Int64

	// position is written by Poll and read by the foreground. It changes
	// only in +/-1 increments.
	position atomic.Int64

	// elapsed and stepInterval are in microseconds. stepInterval is written
	// from the foreground as a single word; elapsed is interrupt-only.
	elapsed      uint32
	stepInterval uint32
}

// NewStepper returns a step generator for the given step and direction
// output pins. It does not touch the underlying hardware; the pins must be
// configured as outputs before the first Poll.
func NewStepper(stepPin, dirPin Pin) *Stepper {
	return &Stepper{
		stepPin:      stepPin,
		dirPin:       dirPin,
		stepInterval: DefaultStepInterval,
	}
}

// SetTarget sets the absolute target position in dimensionless steps.
func (s *Stepper) SetTarget(position int64) {
	s.target.Store(position)
}

// IncrementTarget adds a signed offset to the target position.
func (s *Stepper) IncrementTarget(offset int64) {
	s.target.Add(offset)
}

// CurrentPosition returns the current position in dimensionless steps.
func (s *Stepper) CurrentPosition() int64 {
	return s.position.Load()
}

// Target returns the commanded target position.
func (s *Stepper) Target() int64 {
	return s.target.Load()
}

// SetSpeed sets a constant step rate in steps/second. Zero and negative
// rates are ignored. The interval never drops below one microsecond; the
// rate actually achieved is also bounded by the polling rate.
func (s *Stepper) SetSpeed(speed int64) {
	if speed <= 0 {
		return
	}
	// (1000000 microseconds/second) / (steps/second) = (microseconds/step)
	interval := uint32(1000000 / speed)
	if interval == 0 {
		interval = 1
	}
	s.stepInterval = interval
}

// Poll advances the step generator by the given interval in microseconds.
// It is called from the fast timer interrupt and emits at most one step
// pulse per call: if the interrupt arrives late by several step intervals
// the average rate slips rather than violating the driver's minimum pulse
// width.
//
// The A4988-class driver latches direction on the rising step edge and
// needs >=1 us HIGH and LOW pulse widths. The position update between the
// two step writes covers that on a slow MCU; GPIO drivers on faster
// hardware must stretch the pulse themselves.
func (s *Stepper) Poll(intervalUS uint32) {
	s.elapsed += intervalUS

	if s.elapsed < s.stepInterval {
		return
	}
	// Carry the remainder so the average rate stays correct even when extra
	// time has passed.
	s.elapsed -= s.stepInterval

	pos := s.position.Load()
	target := s.target.Load()
	if pos == target {
		return
	}

	// Pin write errors are ignored here: the interrupt context has no
	// recovery path, and a failed write is a configuration bug caught at
	// init time.
	forward := pos < target
	gpioDriver.SetPin(s.dirPin, forward)

	gpioDriver.SetPin(s.stepPin, true)
	if forward {
		s.position.Store(pos + 1)
	} else {
		s.position.Store(pos - 1)
	}
	gpioDriver.SetPin(s.stepPin, false)

	recordTimingEvent(EvtStepPulse, uint8(s.stepPin), uint32(pos), uint32(target))
}
