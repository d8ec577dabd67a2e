// winch-host is an interactive serial console for the stepper-winch
// controller. It forwards protocol lines, prints replies, and offers a few
// local conveniences (help, watch) on top.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/edaniels/golog"
	"github.com/google/shlex"

	"winch/host/link"
)

var (
	device  = kingpin.Flag("device", "serial device path").Default("/dev/ttyACM0").String()
	baud    = kingpin.Flag("baud", "baud rate (ignored for USB CDC)").Default("115200").Int()
	verbose = kingpin.Flag("verbose", "enable debug logging").Short('v').Bool()
)

func main() {
	kingpin.Parse()

	logger := golog.NewLogger("winch-host")
	if *verbose {
		logger = golog.NewDebugLogger("winch-host")
	}

	cfg := link.DefaultConfig(*device)
	cfg.Baud = *baud

	port, err := link.Open(cfg)
	if err != nil {
		logger.Fatalw("cannot open controller port", "error", err)
	}
	conn := link.NewConn(port)
	defer conn.Close()

	logger.Infow("connected", "device", *device, "baud", *baud)

	if err := console(conn, logger); err != nil && err != io.EOF {
		logger.Fatalw("console failed", "error", err)
	}
}

func console(conn *link.Conn, logger golog.Logger) error {
	// Replies arrive asynchronously; print them as they come.
	go func() {
		for {
			line, err := conn.Recv()
			if err != nil {
				return
			}
			fmt.Println("< " + line)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("winch-host console; 'help' for local commands, 'quit' to exit")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		fields, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Println("! " + err.Error())
			continue
		}
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit", "q":
			return nil

		case "help":
			printHelp()

		case "watch":
			// Poll path telemetry until enter is pressed elsewhere; a
			// fixed count keeps this simple.
			if err := watch(conn, logger); err != nil {
				return err
			}

		default:
			if err := conn.Send(strings.Join(fields, " ")); err != nil {
				return err
			}
		}
	}
}

func watch(conn *link.Conn, logger golog.Logger) error {
	logger.Debugw("watching telemetry")
	for i := 0; i < 20; i++ {
		if err := conn.Send("p"); err != nil {
			return err
		}
		time.Sleep(250 * time.Millisecond)
	}
	return nil
}

func printHelp() {
	fmt.Print(`local commands:
  help          this text
  watch         poll path telemetry for five seconds
  quit          exit

controller commands (forwarded verbatim):
  a x y z a     absolute targets, steps
  d dx dy dz da relative targets
  r dx dy dz da reference impulses
  s v...        ramp speeds, steps/sec (<=0 jumps)
  v v...        signed perpetual velocities
  f freq damp   response tuning, milli-Hz / milli-ratio
  g k b         raw gains, milli-units
  l qd qdd      path velocity/accel clamps
  p / q / w     path positions / velocities / step counts
  e 0|1         driver enable
  ping, version
`)
}
