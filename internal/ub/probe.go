package ub

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// ubsanProbeTimeout bounds how long the UBSan-instrumented binary may run;
// it is intentionally short since this probe never drives bisection search,
// only a single clean/dirty signal.
const ubsanProbeTimeout = 10 * time.Second

// runProbe runs binaryPath to completion and returns its captured output.
// Unlike the oracle package's runBinary, callers here only care about
// stderr content, not a pass/fail verdict.
func runProbe(binaryPath string) (stdout, stderr string, exitCode int, duration time.Duration, timedOut bool, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), ubsanProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	start := time.Now()
	runErr := cmd.Run()
	duration = time.Since(start)
	stdout, stderr = outBuf.String(), errBuf.String()

	if ctx.Err() != nil {
		return stdout, stderr, -1, duration, true, nil
	}
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return stdout, stderr, exitErr.ExitCode(), duration, false, nil
		}
		return stdout, stderr, -1, duration, false, runErr
	}
	return stdout, stderr, 0, duration, false, nil
}
