//go:build windows

package oracle

import (
	"os/exec"
	"time"
)

func setProcGroup(cmd *exec.Cmd) {
	cmd.WaitDelay = 3 * time.Second
}
