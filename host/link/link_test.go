package link

import (
	"io"
	"testing"
)

// pipePort loops writes back as reads, standing in for a controller that
// echoes telemetry.
type pipePort struct {
	io.Reader
	io.Writer
	closed bool
}

func (p *pipePort) Close() error {
	p.closed = true
	return nil
}

func newPipePort() (*pipePort, *pipePort) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()
	return &pipePort{Reader: ar, Writer: aw}, &pipePort{Reader: br, Writer: bw}
}

func TestConnSendRecv(t *testing.T) {
	local, remote := newPipePort()
	conn := NewConn(local)
	peer := NewConn(remote)

	go func() {
		line, err := peer.Recv()
		if err != nil {
			return
		}
		if line == "ping" {
			peer.Send("pong")
		}
	}()

	if err := conn.Send("ping"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	reply, err := conn.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if reply != "pong" {
		t.Errorf("reply = %q, want pong", reply)
	}
}

func TestConnRecvCommand(t *testing.T) {
	local, remote := newPipePort()
	conn := NewConn(local)
	peer := NewConn(remote)

	go peer.Send("p 1 2 3 4")

	cmd, err := conn.RecvCommand()
	if err != nil {
		t.Fatalf("RecvCommand: %v", err)
	}
	if cmd.Verb != "p" || len(cmd.Args) != 4 || cmd.Args[3] != 4 {
		t.Errorf("parsed = %+v", cmd)
	}
}

func TestConnSendSkipsBlank(t *testing.T) {
	local, _ := newPipePort()
	conn := NewConn(local)
	// A blank line must not hit the writer (which would block with no
	// reader on the pipe).
	if err := conn.Send("   "); err != nil {
		t.Fatalf("Send blank: %v", err)
	}
}
