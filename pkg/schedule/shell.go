package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// stderrTailSize is how much of a failed command's stderr is kept for the log
const stderrTailSize = 4 << 10

const waitDelay = time.Second

// ShellRunner runs a shell command, writing its output to stdout and stderr
type ShellRunner interface {
	Run(ctx context.Context, command string, stdout, stderr io.Writer) error
}

// ShellError reports a command that could not start or exited non-zero.
// ExitCode is -1 when the process never ran to completion.
type ShellError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ShellError) Error() string {
	return fmt.Sprintf("shell command failed (exit code %d): %v", e.ExitCode, e.Err)
}

func (e *ShellError) Unwrap() []error {
	return []error{ErrShellFailed, e.Err}
}

// Shell runs commands through "<Path> -c" with the scheduler's environment
type Shell struct {
	Path string // defaults to "sh"
}

// Run implements ShellRunner. Nil writers discard the output. Cancelling ctx kills the shell.
func (s Shell) Run(ctx context.Context, command string, stdout, stderr io.Writer) error {
	path := s.Path
	if path == "" {
		path = "sh"
	}

	tail := &tailBuffer{max: stderrTailSize}

	cmd := exec.CommandContext(ctx, path, "-c", command)
	cmd.Env = os.Environ()
	// Bounds Wait when a killed shell leaves children holding the pipes
	cmd.WaitDelay = waitDelay
	if stdout != nil {
		cmd.Stdout = stdout
	}
	cmd.Stderr = tail
	if stderr != nil {
		cmd.Stderr = io.MultiWriter(stderr, tail)
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}

	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}

	return &ShellError{
		Command:  command,
		ExitCode: code,
		Stderr:   strings.TrimSpace(tail.String()),
		Err:      err,
	}
}

// tailBuffer keeps the last max bytes written to it
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return string(b.buf)
}
