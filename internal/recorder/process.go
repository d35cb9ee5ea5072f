package recorder

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Process abstracts the running encoder so tests can stand in for ffmpeg.
type Process interface {
	// Quit asks the encoder to finalize and exit (ffmpeg reads "q" on stdin).
	Quit() error
	// Kill terminates the encoder immediately.
	Kill() error
	// Wait blocks until the encoder exits.
	Wait() error
}

// StartFunc spawns the encoder subprocess with its error stream attached to
// the session log.
type StartFunc func(ctx context.Context, binary string, args []string, stderr io.Writer) (Process, error)

type execProcess struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

func startExecProcess(ctx context.Context, binary string, args []string, stderr io.Writer) (Process, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("encoder stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}
	return &execProcess{cmd: cmd, stdin: stdin}, nil
}

func (p *execProcess) Quit() error {
	if _, err := io.WriteString(p.stdin, "q"); err != nil {
		return err
	}
	return p.stdin.Close()
}

func (p *execProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}
