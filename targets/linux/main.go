//go:build linux && !tinygo

// Winch controller running on a Pi or similar SBC with the shield wired to
// the GPIO header. The step generators poll from a pinned goroutine at a
// few kHz; the path generators, limit handling and the stdin console run
// in the foreground loop.
package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/edaniels/golog"
	"github.com/warthog618/go-gpiocdev"

	"winch/core"
)

var (
	chip         = kingpin.Flag("chip", "gpio character device").Default("gpiochip0").String()
	pinMaps      = kingpin.Flag("map", "shieldPin=gpioOffset override, repeatable").Strings()
	isrInterval  = kingpin.Flag("isr-interval", "step generator poll period").Default("250us").Duration()
	pathInterval = kingpin.Flag("path-interval", "path generator poll period").Default("1ms").Duration()
	noLimits     = kingpin.Flag("no-limits", "ignore limit switch inputs").Bool()
	verbose      = kingpin.Flag("verbose", "enable debug logging").Short('v').Bool()
)

func main() {
	kingpin.Parse()

	logger := golog.NewLogger("winch")
	if *verbose {
		logger = golog.NewDebugLogger("winch")
	}

	overrides, err := parsePinMaps(*pinMaps)
	if err != nil {
		logger.Fatalw("bad --map flag", "error", err)
	}

	start := time.Now()
	core.SetClockSource(func() uint32 {
		return uint32(time.Since(start).Microseconds())
	})
	core.SetDebugWriter(func(s string) {
		logger.Debugw("controller", "msg", s)
	})

	driver := NewChipDriver(*chip, overrides)
	defer driver.Close()
	core.SetGPIODriver(driver)

	cfg := core.DefaultConfig()
	// Limit pins are watched with edge events below, not polled.
	cfg.UseLimits = false
	m := core.NewMachine(cfg)
	if err := m.Init(); err != nil {
		logger.Fatalw("machine init failed", "error", err)
	}
	if err := m.Enable(true); err != nil {
		logger.Fatalw("cannot enable drivers", "error", err)
	}

	var tripFlags [core.NumLimits]atomic.Bool
	if !*noLimits {
		lines, err := watchLimits(*chip, overrides, &tripFlags, logger)
		if err != nil {
			logger.Fatalw("cannot watch limit switches", "error", err)
		}
		defer func() {
			for _, l := range lines {
				l.Close()
			}
		}()
	}

	// Step generator polls run on their own OS thread so scheduler noise
	// on the foreground side cannot stall pulses.
	go func() {
		runtime.LockOSThread()
		last := core.Micros()
		for {
			time.Sleep(*isrInterval)
			now := core.Micros()
			m.PollSteppers(now - last)
			last = now
		}
	}()

	logger.Infow("winch controller ready",
		"chip", *chip,
		"isr_interval", *isrInterval,
		"path_interval", *pathInterval,
	)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	d := core.NewDispatcher(m)
	ticker := time.NewTicker(*pathInterval)
	defer ticker.Stop()
	last := core.Micros()

	for {
		select {
		case <-ticker.C:
			now := core.Micros()
			m.PollPaths(now - last)
			last = now
			for i := range tripFlags {
				if tripFlags[i].Swap(false) {
					m.TripLimit(i)
				}
			}

		case line, ok := <-lines:
			if !ok {
				logger.Infow("console closed, stopping")
				return
			}
			reply := d.Dispatch(line)
			if reply != "" {
				fmt.Println(reply)
			}
		}
	}
}

// watchLimits requests each limit line with a falling edge handler that
// latches a flag. The foreground loop applies the trip, keeping the event
// goroutine free of machine state.
func watchLimits(chip string, overrides map[core.Pin]int, flags *[core.NumLimits]atomic.Bool, logger golog.Logger) ([]*gpiocdev.Line, error) {
	pins := [core.NumLimits]core.Pin{core.XLimitPin, core.YLimitPin, core.ZLimitPin}
	offsets := resolveOffsets(overrides)

	var lines []*gpiocdev.Line
	for i, pin := range pins {
		idx := i
		off, ok := offsets[pin]
		if !ok {
			continue
		}
		line, err := gpiocdev.RequestLine(chip, off,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithDebounce(time.Millisecond),
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				flags[idx].Store(true)
				logger.Debugw("limit edge", "limit", idx, "offset", evt.Offset)
			}),
		)
		if err != nil {
			for _, l := range lines {
				l.Close()
			}
			return nil, fmt.Errorf("limit %d on %s:%d: %w", idx, chip, off, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// parsePinMaps parses repeated "shieldPin=gpioOffset" flags.
func parsePinMaps(entries []string) (map[core.Pin]int, error) {
	overrides := make(map[core.Pin]int, len(entries))
	for _, entry := range entries {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%q is not shieldPin=gpioOffset", entry)
		}
		pin, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("shield pin in %q: %w", entry, err)
		}
		off, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("gpio offset in %q: %w", entry, err)
		}
		overrides[core.Pin(pin)] = off
	}
	return overrides, nil
}
