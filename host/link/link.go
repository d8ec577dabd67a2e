// Package link connects a host to the winch controller's serial port and
// frames the line-oriented protocol on top of it.
package link

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tarm/serial"

	"winch/protocol"
)

// Port is the transport under a Conn. The concrete implementation is a
// tarm/serial port; tests substitute an in-memory pipe.
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g. "/dev/ttyACM0", "COM3").
	Device string

	// Baud rate. USB CDC devices ignore this.
	Baud int

	// Read timeout for replies.
	ReadTimeout time.Duration
}

// DefaultConfig returns the conventional settings for the controller.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 500 * time.Millisecond,
	}
}

// Open opens the native serial port for the configuration.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("link: config cannot be nil")
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("link: open %s: %w", cfg.Device, err)
	}
	return port, nil
}

// Conn wraps a port with line framing.
type Conn struct {
	port Port
	r    *bufio.Reader
}

// NewConn frames an open port.
func NewConn(port Port) *Conn {
	return &Conn{
		port: port,
		r:    bufio.NewReader(port),
	}
}

// Send writes one command line to the controller.
func (c *Conn) Send(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if _, err := io.WriteString(c.port, line+"\n"); err != nil {
		return fmt.Errorf("link: send: %w", err)
	}
	return nil
}

// Recv reads one reply line. It returns io.EOF when the port closes.
func (c *Conn) Recv() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// RecvCommand reads and parses one reply line.
func (c *Conn) RecvCommand() (protocol.Command, error) {
	line, err := c.Recv()
	if err != nil {
		return protocol.Command{}, err
	}
	return protocol.Parse(line)
}

// Close closes the underlying port.
func (c *Conn) Close() error {
	return c.port.Close()
}
