//go:build linux && !tinygo

package main

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"winch/core"
)

// defaultOffsets maps the shield's Arduino pin numbers onto the Pi header
// GPIO offsets for the stock wiring. Override per pin with --map.
var defaultOffsets = map[core.Pin]int{
	core.XAxisStepPin: 17,
	core.YAxisStepPin: 27,
	core.ZAxisStepPin: 22,
	core.AAxisStepPin: 23,

	core.XAxisDirPin: 5,
	core.YAxisDirPin: 6,
	core.ZAxisDirPin: 13,
	core.AAxisDirPin: 19,

	core.StepperEnablePin: 26,

	core.XLimitPin: 20,
	core.YLimitPin: 21,
	core.ZLimitPin: 16,
}

// ChipDriver implements core.GPIODriver over the Linux GPIO character
// device. Lines are requested lazily as the core configures them.
type ChipDriver struct {
	chip    string
	offsets map[core.Pin]int
	lines   map[core.Pin]*gpiocdev.Line
}

func NewChipDriver(chip string, overrides map[core.Pin]int) *ChipDriver {
	return &ChipDriver{
		chip:    chip,
		offsets: resolveOffsets(overrides),
		lines:   make(map[core.Pin]*gpiocdev.Line),
	}
}

// resolveOffsets merges per-pin overrides over the stock wiring table.
func resolveOffsets(overrides map[core.Pin]int) map[core.Pin]int {
	offsets := make(map[core.Pin]int, len(defaultOffsets))
	for pin, off := range defaultOffsets {
		offsets[pin] = off
	}
	for pin, off := range overrides {
		offsets[pin] = off
	}
	return offsets
}

func (d *ChipDriver) offset(pin core.Pin) (int, error) {
	off, ok := d.offsets[pin]
	if !ok {
		return 0, fmt.Errorf("pin %d has no gpio mapping", pin)
	}
	return off, nil
}

func (d *ChipDriver) ConfigureOutput(pin core.Pin) error {
	off, err := d.offset(pin)
	if err != nil {
		return err
	}
	line, err := gpiocdev.RequestLine(d.chip, off, gpiocdev.AsOutput(0))
	if err != nil {
		return fmt.Errorf("request output %s:%d: %w", d.chip, off, err)
	}
	d.lines[pin] = line
	return nil
}

func (d *ChipDriver) ConfigureInputPullUp(pin core.Pin) error {
	off, err := d.offset(pin)
	if err != nil {
		return err
	}
	line, err := gpiocdev.RequestLine(d.chip, off,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
	)
	if err != nil {
		return fmt.Errorf("request input %s:%d: %w", d.chip, off, err)
	}
	d.lines[pin] = line
	return nil
}

func (d *ChipDriver) SetPin(pin core.Pin, value bool) error {
	line, ok := d.lines[pin]
	if !ok {
		return fmt.Errorf("pin %d not configured", pin)
	}
	v := 0
	if value {
		v = 1
	}
	return line.SetValue(v)
}

func (d *ChipDriver) GetPin(pin core.Pin) (bool, error) {
	line, ok := d.lines[pin]
	if !ok {
		return false, fmt.Errorf("pin %d not configured", pin)
	}
	v, err := line.Value()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (d *ChipDriver) ReadPin(pin core.Pin) bool {
	v, _ := d.GetPin(pin)
	return v
}

// Close releases every requested line.
func (d *ChipDriver) Close() {
	for pin, line := range d.lines {
		line.Close()
		delete(d.lines, pin)
	}
}
