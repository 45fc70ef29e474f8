package stdio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/ggoodman/acp-go/transport"
)

// Process is a transport.Stream connected to a child process's stdin and
// stdout. The child's stderr is forwarded to this process's stderr unless
// cmd.Stderr was already set.
type Process struct {
	*Stream

	cmd *exec.Cmd
	l   *slog.Logger

	waitOnce sync.Once
	waitErr  error
	exited   chan struct{}
}

var _ transport.Stream = (*Process)(nil)

// Spawn starts cmd and wires its stdio to a Stream. WithIO is ignored since
// the pipes are owned by the child.
func Spawn(ctx context.Context, cmd *exec.Cmd, opts ...Option) (*Process, error) {
	if cmd == nil {
		return nil, errors.New("stdio: nil command")
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdio: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdio: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("stdio: start %s: %w", cmd.Path, err)
	}

	all := append(append([]Option(nil), opts...), WithIO(stdout, stdin))
	s := NewStream(all...)

	p := &Process{
		Stream: s,
		cmd:    cmd,
		l:      s.l,
		exited: make(chan struct{}),
	}

	p.l.DebugContext(ctx, "stdio.spawn.ok", slog.String("path", cmd.Path), slog.Int("pid", cmd.Process.Pid))

	go func() {
		select {
		case <-ctx.Done():
			_ = p.Close()
		case <-p.exited:
		}
	}()

	return p, nil
}

// Pid returns the child's process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Wait blocks until the child exits and returns its exit error. It is safe to
// call more than once.
func (p *Process) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
		close(p.exited)
		if p.waitErr != nil {
			p.l.Debug("stdio.process.exit", slog.String("err", p.waitErr.Error()))
		}
	})
	return p.waitErr
}

// Close closes the child's stdin, which a well-behaved agent treats as
// end-of-session, then waits for it to exit.
func (p *Process) Close() error {
	err := p.Stream.Close()
	werr := p.Wait()
	var exitErr *exec.ExitError
	if errors.As(werr, &exitErr) {
		// A non-zero exit after we hung up is not a close failure.
		werr = nil
	}
	return errors.Join(err, werr)
}
