//go:build rp2040

// Winch controller firmware for a Raspberry Pi Pico wired to a CNC shield.
// The step generators run from the fast main loop with measured intervals;
// the path generators and the serial command parser run at 1 kHz cadence.
package main

import (
	"machine"

	"winch/core"
)

// usePIOPulses routes step pulses through a PIO state machine, which
// guarantees the A4988 minimum pulse width in hardware. Set false to fall
// back to plain GPIO toggling with a busy-wait stretch.
const usePIOPulses = true

const pathIntervalUS = 1000 // 1 kHz main-loop cadence

func main() {
	// Clear any watchdog state left over from a previous reset.
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	machine.Serial.Configure(machine.UARTConfig{})

	InitClock()
	core.SetClockSource(GetHardwareTime)
	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte("# " + s + "\r\n"))
	})

	gpio := NewRPGPIODriver()
	if usePIOPulses {
		if pulsed, err := NewPIOPulseDriver(gpio, stepDirPairs()); err == nil {
			core.SetGPIODriver(pulsed)
		} else {
			core.SetGPIODriver(gpio)
			core.DebugPrintln("pio unavailable, using gpio pulses")
		}
	} else {
		core.SetGPIODriver(gpio)
	}

	cfg := core.DefaultConfig()
	cfg.UseLimits = true
	m := core.NewMachine(cfg)
	if err := m.Init(); err != nil {
		core.DebugPrintln("init failed: " + err.Error())
		return
	}
	m.Enable(true)

	d := core.NewDispatcher(m)

	var line [64]byte
	lineLen := 0
	lastStep := core.Micros()
	lastPath := lastStep

	for {
		now := core.Micros()

		// Fast poll: the step generators see the true elapsed interval, so
		// pulse rates stay correct even when the loop jitters.
		m.PollSteppers(now - lastStep)
		lastStep = now

		if now-lastPath >= pathIntervalUS {
			m.PollPaths(now - lastPath)
			m.PollLimits()
			lastPath = now
		}

		// Drain the serial input without blocking the polls.
		for machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err != nil {
				break
			}
			if b == '\n' || b == '\r' {
				if lineLen > 0 {
					reply := d.Dispatch(string(line[:lineLen]))
					if reply != "" {
						machine.Serial.Write([]byte(reply + "\r\n"))
					}
					lineLen = 0
				}
				continue
			}
			if lineLen < len(line) {
				line[lineLen] = b
				lineLen++
			}
		}
	}
}

// stepDirPairs maps each step pin to its direction pin for the PIO driver.
func stepDirPairs() map[core.Pin]core.Pin {
	return map[core.Pin]core.Pin{
		core.XAxisStepPin: core.XAxisDirPin,
		core.YAxisStepPin: core.YAxisDirPin,
		core.ZAxisStepPin: core.ZAxisDirPin,
		core.AAxisStepPin: core.AAxisDirPin,
	}
}
