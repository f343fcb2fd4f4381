package process

// Notes:
// - KillGroup is only exercised with invalid PIDs. Killing a real group is
//   covered by the runner timeout test in the root package, which starts a
//   sleeping child in its own group.
// - PID 0 would target the caller's own group, so it must be rejected.

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// TestIsolate - SysProcAttr setup
// ---------------------------------------------------------------------------

func TestIsolate_SetsSysProcAttr(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("true")
	Isolate(cmd)

	require.NotNil(t, cmd.SysProcAttr)
}

func TestIsolate_KeepsExistingAttr(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("true")
	Isolate(cmd)
	first := cmd.SysProcAttr
	Isolate(cmd)

	assert.Same(t, first, cmd.SysProcAttr)
}

// ---------------------------------------------------------------------------
// TestKillGroup - Invalid PID Handling
// ---------------------------------------------------------------------------

func TestKillGroup_RejectsNonPositivePID(t *testing.T) {
	t.Parallel()

	assert.Error(t, KillGroup(0))
	assert.Error(t, KillGroup(-1))
}

func TestKillGroup_UnknownPID(t *testing.T) {
	t.Parallel()

	// Must not panic; the error is expected since no such group exists.
	_ = KillGroup(999999999)
}
