package doccrop

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/alnah/go-doccrop/internal/process"
)

// maxDiagnosticLen bounds tool output carried in error messages.
const maxDiagnosticLen = 2000

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// ExecRunner implements CommandRunner using os/exec. Each command runs in its
// own process group, and the whole group is killed when ctx is done.
type ExecRunner struct {
	// WaitDelay bounds how long Run waits for output pipes after a kill.
	WaitDelay time.Duration
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- tool paths come from detection or config
	process.Isolate(cmd)
	cmd.Cancel = func() error {
		return process.KillGroup(cmd.Process.Pid)
	}
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = 5 * time.Second
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		err = fmt.Errorf("%w (%v)", ctxErr, err)
	}
	return stdout.String(), stderr.String(), err
}

// diagnostic joins and truncates tool output for error messages.
func diagnostic(stdout, stderr string) string {
	out := strings.TrimSpace(strings.TrimSpace(stderr) + "\n" + strings.TrimSpace(stdout))
	if len(out) > maxDiagnosticLen {
		out = out[:maxDiagnosticLen] + "..."
	}
	return out
}
