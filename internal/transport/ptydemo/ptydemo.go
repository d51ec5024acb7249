// Package ptydemo is a reference HostIO wiring (spec §6.2) backed by a
// real PTY, grounded on dcosson-h2's internal/virtualterminal.VT PTY
// lifecycle (Ptm/Cmd/mutex-guarded access, a background goroutine
// draining PTY output). It exists so the abstract collaborator
// interfaces have at least one concrete, testable implementation
// outside the core; it is not part of the dispatch engine itself.
package ptydemo

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/condrv-project/condrv/internal/transport"
)

// Session bridges transport.HostIO to a PTY-backed child process: bytes
// the child writes become the pending input stream a ReadConsole/
// GetConsoleInput path would decode; WriteOutputBytes sends rendered
// console output to the PTY master.
type Session struct {
	cmd *exec.Cmd
	ptm *os.File

	mu      sync.Mutex
	pending bytes.Buffer
	closed  bool

	log zerolog.Logger
}

// Start spawns command under a PTY of the given size and begins
// draining its output into the session's pending input queue.
func Start(command string, args []string, rows, cols uint16, log zerolog.Logger) (*Session, error) {
	s := &Session{log: log}
	s.cmd = exec.Command(command, args...)
	ptm, err := pty.StartWithSize(s.cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, fmt.Errorf("start pty: %w", err)
	}
	s.ptm = ptm
	go s.drain()
	return s, nil
}

// IsTerminal reports whether the PTY master behaves like a real
// terminal device.
func (s *Session) IsTerminal() bool {
	return isatty.IsTerminal(s.ptm.Fd())
}

func (s *Session) drain() {
	buf := make([]byte, 4096)
	for {
		n, err := s.ptm.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.pending.Write(buf[:n])
			s.mu.Unlock()
		}
		if err != nil {
			s.mu.Lock()
			s.closed = true
			s.mu.Unlock()
			return
		}
	}
}

// WriteOutputBytes sends rendered console output to the PTY master.
func (s *Session) WriteOutputBytes(b []byte) (int, error) {
	return s.ptm.Write(b)
}

// ReadInputBytes drains up to len(dest) bytes from the pending queue.
func (s *Session) ReadInputBytes(dest []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Read(dest)
}

// PeekInputBytes copies without consuming.
func (s *Session) PeekInputBytes(dest []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := copy(dest, s.pending.Bytes())
	return n, nil
}

// InputBytesAvailable reports the pending queue's length.
func (s *Session) InputBytesAvailable() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Len()
}

// InputDisconnected reports whether the child exited and every
// buffered byte has been drained.
func (s *Session) InputDisconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed && s.pending.Len() == 0
}

// InjectInputBytes appends a VT query response to the pending queue.
// Appending rather than prepending is adequate here since query
// responses are short and rare relative to real typed input; a
// production transport would splice them to the front.
func (s *Session) InjectInputBytes(b []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.Write(b)
	return true
}

// FlushInputBuffer discards all pending bytes.
func (s *Session) FlushInputBuffer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.Reset()
	return nil
}

// ShouldAnswerQueries is always true for this demo wiring.
func (s *Session) ShouldAnswerQueries() bool { return true }

// SendEndTask logs the signal; a real transport would deliver it to
// the owning process's control handler.
func (s *Session) SendEndTask(pid uint32, eventType, ctrlFlags uint32) error {
	s.log.Info().Uint32("pid", pid).Uint32("event", eventType).Uint32("flags", ctrlFlags).Msg("send_end_task")
	return nil
}

// Resize adjusts the PTY window size.
func (s *Session) Resize(rows, cols uint16) error {
	return pty.Setsize(s.ptm, &pty.Winsize{Rows: rows, Cols: cols})
}

// Close terminates the child process and releases the PTY master.
func (s *Session) Close() error {
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	return s.ptm.Close()
}

var _ transport.HostIO = (*Session)(nil)
