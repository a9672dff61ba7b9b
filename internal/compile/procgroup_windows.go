//go:build windows

package compile

import (
	"os/exec"
	"time"
)

// setProcGroup is a no-op on Windows beyond the WaitDelay grace period;
// exec.CommandContext already sends os.Kill on context cancellation and
// Windows has no equivalent of a Unix process group to fan that out to.
func setProcGroup(cmd *exec.Cmd) {
	cmd.WaitDelay = 3 * time.Second
}
