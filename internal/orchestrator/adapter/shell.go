package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

const shellDescription = "Run a command inside the conversation's sandboxed workspace. " +
	"The command is executed directly (no shell interpretation); pass the program and " +
	"its arguments as a list."

const shellPrompt = `The sandbox_shell tool runs commands inside your private workspace.
Pass the program and its arguments as the "command" list, for example ["go", "test", "./..."].
Long-running commands are killed after the timeout; output is truncated past a fixed cap.`

const (
	defaultShellTimeout = 60 * time.Second
	maxShellOutput      = 64 * 1024
)

// ShellRequest is the argument shape of the sandbox_shell tool.
type ShellRequest struct {
	Command        []string          `json:"command" jsonschema:"description=Program and arguments to execute"`
	WorkingDir     string            `json:"workingDir,omitempty" jsonschema:"description=Working directory relative to the workspace root"`
	TimeoutSeconds int               `json:"timeoutSeconds,omitempty" jsonschema:"description=Timeout in seconds (default 60)"`
	Env            map[string]string `json:"env,omitempty" jsonschema:"description=Extra environment variables"`
}

// Validate implements Validator.
func (r ShellRequest) Validate() error {
	if len(r.Command) == 0 {
		return fmt.Errorf("command is required")
	}
	if r.TimeoutSeconds < 0 {
		return fmt.Errorf("timeoutSeconds must be >= 0")
	}
	return nil
}

// ShellResponse is the result shape of the sandbox_shell tool.
type ShellResponse struct {
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
	ExitCode  int    `json:"exitCode"`
	Truncated bool   `json:"truncated,omitempty"`
}

type shell struct {
	root string
}

// NewShellTool returns the built-in sandbox_shell tool rooted at the given
// workspace directory. Calls require approval; the tool runs arbitrary
// commands and no operation of it is read-only.
func NewShellTool(root string) Tool {
	s := &shell{root: root}
	return NewBaseAdapter[ShellRequest, ShellResponse](
		"sandbox_shell",
		shellDescription,
		shellPrompt,
		true,
		s.run,
	)
}

func (s *shell) run(ctx context.Context, req ShellRequest) (ShellResponse, error) {
	workingDir := req.WorkingDir
	if workingDir == "" {
		workingDir = "."
	}
	dir, err := confine(s.root, workingDir)
	if err != nil {
		return ShellResponse{}, err
	}

	timeout := defaultShellTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	env := os.Environ()
	for k, v := range req.Env {
		env = append(env, k+"="+v)
	}

	stdout := &limitBuffer{limit: maxShellOutput}
	stderr := &limitBuffer{limit: maxShellOutput}

	cmd := exec.CommandContext(ctx, req.Command[0], req.Command[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()

	resp := ShellResponse{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.truncated || stderr.truncated,
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShellResponse{}, fmt.Errorf("command timed out after %s", timeout)
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			resp.ExitCode = exitErr.ExitCode()
			return resp, nil
		}
		return ShellResponse{}, fmt.Errorf("run %s: %w", req.Command[0], runErr)
	}
	return resp, nil
}

// limitBuffer captures up to limit bytes and drops the rest, recording
// that truncation happened. Writes never fail so the command keeps running.
type limitBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *limitBuffer) Write(p []byte) (int, error) {
	if remaining := b.limit - b.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			b.buf.Write(p[:remaining])
			b.truncated = true
		} else {
			b.buf.Write(p)
		}
	} else if len(p) > 0 {
		b.truncated = true
	}
	return len(p), nil
}

func (b *limitBuffer) String() string { return b.buf.String() }
