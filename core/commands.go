package core

// Serial command dispatch. The registry maps protocol verbs onto machine
// operations, mirroring the serial command set of the original winch
// sketch: one-letter motion verbs with one integer argument per axis.

import (
	"sync"

	"winch/protocol"
)

// Version identifies the firmware on the wire.
const Version = "winch 1.0"

// CommandHandler executes one parsed command against the machine and
// returns the reply line, or "" for silent success.
type CommandHandler func(m *Machine, args []int64) (string, error)

// Command describes one registered verb.
type Command struct {
	Verb    string
	Help    string
	Handler CommandHandler
}

// Dispatcher routes protocol lines to command handlers. Handlers run in the
// foreground context only.
type Dispatcher struct {
	mu       sync.RWMutex
	machine  *Machine
	commands map[string]*Command
}

// NewDispatcher builds a dispatcher with the built-in command set.
func NewDispatcher(m *Machine) *Dispatcher {
	d := &Dispatcher{
		machine:  m,
		commands: make(map[string]*Command),
	}
	d.registerBuiltins()
	return d
}

// Register adds a verb to the dispatcher. Re-registering a verb replaces
// its handler.
func (d *Dispatcher) Register(verb, help string, handler CommandHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands[verb] = &Command{Verb: verb, Help: help, Handler: handler}
}

// Dispatch parses one line and executes it, returning the reply line ("" if
// the command is silent).
func (d *Dispatcher) Dispatch(line string) string {
	cmd, err := protocol.Parse(line)
	if err != nil {
		return protocol.FormatError(err.Error())
	}
	if cmd.Empty() {
		return ""
	}

	d.mu.RLock()
	entry, ok := d.commands[cmd.Verb]
	d.mu.RUnlock()
	if !ok {
		return protocol.FormatError("unknown command " + cmd.Verb)
	}

	reply, err := entry.Handler(d.machine, cmd.Args)
	if err != nil {
		return protocol.FormatError(err.Error())
	}
	return reply
}

// Help returns one line per registered verb.
func (d *Dispatcher) Help() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.commands))
	for _, c := range d.commands {
		out = append(out, c.Verb+" "+c.Help)
	}
	return out
}

func (d *Dispatcher) registerBuiltins() {
	d.Register("a", "x y z a : absolute target positions in steps",
		func(m *Machine, args []int64) (string, error) {
			m.SetTargets(args)
			return "", nil
		})
	d.Register("d", "dx dy dz da : relative target offsets in steps",
		func(m *Machine, args []int64) (string, error) {
			m.IncrementTargets(args)
			return "", nil
		})
	d.Register("r", "dx dy dz da : reference impulses in steps",
		func(m *Machine, args []int64) (string, error) {
			m.IncrementReferences(args)
			return "", nil
		})
	d.Register("s", "v1 v2 v3 v4 : ramp speeds in steps/sec (<=0 means jump)",
		func(m *Machine, args []int64) (string, error) {
			m.SetSpeeds(args)
			return "", nil
		})
	d.Register("v", "v1 v2 v3 v4 : signed perpetual velocities in steps/sec",
		func(m *Machine, args []int64) (string, error) {
			m.SetVelocities(args)
			return "", nil
		})
	d.Register("g", "k b : raw second-order gains, milli-units",
		func(m *Machine, args []int64) (string, error) {
			if len(args) < 2 {
				return "", errTwoArgs
			}
			m.SetPDGains(float64(args[0])/1000, float64(args[1])/1000)
			return "", nil
		})
	d.Register("f", "freq damping : derived gains, milli-Hz and milli-ratio",
		func(m *Machine, args []int64) (string, error) {
			if len(args) < 2 {
				return "", errTwoArgs
			}
			m.SetFreqDamping(float64(args[0])/1000, float64(args[1])/1000)
			return "", nil
		})
	d.Register("l", "qdmax qddmax : path velocity/acceleration clamps",
		func(m *Machine, args []int64) (string, error) {
			if len(args) < 2 {
				return "", errTwoArgs
			}
			m.SetPathLimits(float64(args[0]), float64(args[1]))
			return "", nil
		})
	d.Register("p", ": report path positions",
		func(m *Machine, args []int64) (string, error) {
			pos := m.PathPositions()
			return protocol.FormatInts("p", pos[:]...), nil
		})
	d.Register("q", ": report path velocities",
		func(m *Machine, args []int64) (string, error) {
			vel := m.PathVelocities()
			return protocol.FormatInts("q", vel[:]...), nil
		})
	d.Register("w", ": report physical stepper positions",
		func(m *Machine, args []int64) (string, error) {
			pos := m.StepperPositions()
			return protocol.FormatInts("w", pos[:]...), nil
		})
	d.Register("e", "0|1 : driver enable",
		func(m *Machine, args []int64) (string, error) {
			if len(args) < 1 {
				return "", errOneArg
			}
			if err := m.Enable(args[0] != 0); err != nil {
				return "", err
			}
			return "", nil
		})
	d.Register("ping", ": liveness check",
		func(m *Machine, args []int64) (string, error) {
			return "pong", nil
		})
	d.Register("version", ": firmware identification",
		func(m *Machine, args []int64) (string, error) {
			return Version, nil
		})
}

type commandError string

func (e commandError) Error() string { return string(e) }

const (
	errOneArg  = commandError("missing argument")
	errTwoArgs = commandError("need two arguments")
)
