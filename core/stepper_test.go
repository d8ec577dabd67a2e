package core

import (
	"math/rand"
	"testing"
)

// mockGPIO records pin configuration and every level change so tests can
// count pulses and inspect edge ordering.
type mockGPIO struct {
	levels  map[Pin]bool
	outputs map[Pin]bool
	inputs  map[Pin]bool
	writes  []pinWrite
}

type pinWrite struct {
	pin   Pin
	level bool
	rise  bool
}

func newMockGPIO() *mockGPIO {
	return &mockGPIO{
		levels:  make(map[Pin]bool),
		outputs: make(map[Pin]bool),
		inputs:  make(map[Pin]bool),
	}
}

func (m *mockGPIO) ConfigureOutput(pin Pin) error {
	m.outputs[pin] = true
	return nil
}

func (m *mockGPIO) ConfigureInputPullUp(pin Pin) error {
	m.inputs[pin] = true
	m.levels[pin] = true // pulled up
	return nil
}

func (m *mockGPIO) SetPin(pin Pin, value bool) error {
	rise := value && !m.levels[pin]
	m.levels[pin] = value
	m.writes = append(m.writes, pinWrite{pin: pin, level: value, rise: rise})
	return nil
}

func (m *mockGPIO) GetPin(pin Pin) (bool, error) {
	return m.levels[pin], nil
}

func (m *mockGPIO) ReadPin(pin Pin) bool {
	return m.levels[pin]
}

// rises counts rising edges recorded on a pin.
func (m *mockGPIO) rises(pin Pin) int {
	n := 0
	for _, w := range m.writes {
		if w.pin == pin && w.rise {
			n++
		}
	}
	return n
}

// dirAtRises returns the dir pin level latched at each rising step edge.
func (m *mockGPIO) dirAtRises(stepPin, dirPin Pin) []bool {
	var out []bool
	dir := false
	for _, w := range m.writes {
		if w.pin == dirPin {
			dir = w.level
		}
		if w.pin == stepPin && w.rise {
			out = append(out, dir)
		}
	}
	return out
}

// Exactly 5000 pulses in one simulated second at 200 us/step, polled at
// 50 us granularity.
func TestStepperRate(t *testing.T) {
	gpio := newMockGPIO()
	SetGPIODriver(gpio)

	s := NewStepper(XAxisStepPin, XAxisDirPin)
	s.SetTarget(1000000)

	for i := 0; i < 20000; i++ {
		s.Poll(50)
	}

	if got := s.CurrentPosition(); got != 5000 {
		t.Errorf("position = %d, want 5000", got)
	}
	if got := gpio.rises(XAxisStepPin); got != 5000 {
		t.Errorf("pulses = %d, want 5000", got)
	}
}

// A late poll emits at most one pulse; the slipped time is not made up with
// extra pulses.
func TestStepperAtMostOnePulsePerPoll(t *testing.T) {
	gpio := newMockGPIO()
	SetGPIODriver(gpio)

	s := NewStepper(XAxisStepPin, XAxisDirPin)
	s.SetTarget(1000)

	for i := 0; i < 100; i++ {
		before := s.CurrentPosition()
		s.Poll(10000) // 50 step intervals late
		delta := s.CurrentPosition() - before
		if delta < 0 || delta > 1 {
			t.Fatalf("poll %d: position moved by %d, want 0 or 1", i, delta)
		}
	}
	if got := gpio.rises(XAxisStepPin); got != 100 {
		t.Errorf("pulses = %d, want 100 (one per poll)", got)
	}
}

// Direction output flips on the first pulse after the target moves behind
// the current position.
func TestStepperReversal(t *testing.T) {
	gpio := newMockGPIO()
	SetGPIODriver(gpio)

	s := NewStepper(XAxisStepPin, XAxisDirPin)
	s.SetTarget(100)
	for s.CurrentPosition() != 100 {
		s.Poll(200)
	}

	dirs := gpio.dirAtRises(XAxisStepPin, XAxisDirPin)
	for i, d := range dirs {
		if !d {
			t.Fatalf("pulse %d during forward move had dir LOW", i)
		}
	}

	s.SetTarget(-100)
	s.Poll(200)
	if got := s.CurrentPosition(); got != 99 {
		t.Errorf("position after reversal pulse = %d, want 99", got)
	}

	dirs = gpio.dirAtRises(XAxisStepPin, XAxisDirPin)
	if last := dirs[len(dirs)-1]; last {
		t.Errorf("first reversed pulse had dir HIGH, want LOW")
	}
}

// Between target updates the position only walks toward the target.
func TestStepperMonotonicConvergence(t *testing.T) {
	gpio := newMockGPIO()
	SetGPIODriver(gpio)
	rng := rand.New(rand.NewSource(2))

	s := NewStepper(XAxisStepPin, XAxisDirPin)
	s.SetTarget(-300)

	prev := s.CurrentPosition()
	for i := 0; i < 100000 && s.CurrentPosition() != -300; i++ {
		s.Poll(uint32(20 + rng.Intn(400)))
		pos := s.CurrentPosition()
		if pos > prev || prev-pos > 1 {
			t.Fatalf("position %d -> %d, want monotonic -1 steps", prev, pos)
		}
		prev = pos
	}
	if s.CurrentPosition() != -300 {
		t.Fatalf("never reached target, stuck at %d", s.CurrentPosition())
	}

	// Holding at target emits nothing.
	before := gpio.rises(XAxisStepPin)
	for i := 0; i < 1000; i++ {
		s.Poll(200)
	}
	if got := gpio.rises(XAxisStepPin); got != before {
		t.Errorf("pulses emitted while at target: %d", got-before)
	}
}

// Long-run average pulse rate never exceeds 1e6/stepInterval.
func TestStepperAverageRateBound(t *testing.T) {
	gpio := newMockGPIO()
	SetGPIODriver(gpio)
	rng := rand.New(rand.NewSource(3))

	s := NewStepper(XAxisStepPin, XAxisDirPin)
	s.SetSpeed(2500) // 400 us interval
	s.SetTarget(1 << 40)

	var totalUS uint64
	for i := 0; i < 50000; i++ {
		interval := uint32(10 + rng.Intn(1000))
		totalUS += uint64(interval)
		s.Poll(interval)
	}

	pulses := uint64(gpio.rises(XAxisStepPin))
	// pulses/total <= 1/400, i.e. 400*pulses <= total.
	if 400*pulses > totalUS {
		t.Errorf("average rate too high: %d pulses in %d us", pulses, totalUS)
	}
}

func TestStepperSetSpeed(t *testing.T) {
	s := NewStepper(XAxisStepPin, XAxisDirPin)

	s.SetSpeed(0)
	if s.stepInterval != DefaultStepInterval {
		t.Errorf("SetSpeed(0) changed interval to %d", s.stepInterval)
	}
	s.SetSpeed(-100)
	if s.stepInterval != DefaultStepInterval {
		t.Errorf("SetSpeed(-100) changed interval to %d", s.stepInterval)
	}

	s.SetSpeed(5000)
	if s.stepInterval != 200 {
		t.Errorf("SetSpeed(5000): interval = %d, want 200", s.stepInterval)
	}

	// Faster than 1 MHz clamps to the 1 us floor.
	s.SetSpeed(2000000)
	if s.stepInterval != 1 {
		t.Errorf("SetSpeed(2000000): interval = %d, want 1", s.stepInterval)
	}
}

func TestStepperIncrementTarget(t *testing.T) {
	gpio := newMockGPIO()
	SetGPIODriver(gpio)

	s := NewStepper(XAxisStepPin, XAxisDirPin)
	s.IncrementTarget(10)
	s.IncrementTarget(-3)
	if got := s.Target(); got != 7 {
		t.Errorf("target = %d, want 7", got)
	}
}
