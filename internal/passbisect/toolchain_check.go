package passbisect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
)

// ErrMismatchedToolchain is returned when CompilerBin and OptBin report
// different version strings. Bisecting a pipeline extracted by one
// version's opt against binaries produced by a different version's clang
// would attribute the culprit to a pass name that may not mean the same
// thing in both compilers, so this refuses outright rather than guessing.
var ErrMismatchedToolchain = errors.New("mismatched_toolchain")

var reVersionLine = regexp.MustCompile(`version (\d+\.\d+\.\d+)`)

// checkMatchedToolchain runs `<bin> --version` for both CompilerBin and
// OptBin and compares the reported version strings.
func (b *Bisector) checkMatchedToolchain(ctx context.Context) error {
	compilerVersion, err := toolVersion(ctx, b.CompilerBin)
	if err != nil {
		return fmt.Errorf("passbisect: checking compiler version: %w", err)
	}
	optVersion, err := toolVersion(ctx, b.OptBin)
	if err != nil {
		return fmt.Errorf("passbisect: checking opt version: %w", err)
	}
	if compilerVersion != optVersion {
		return fmt.Errorf("%w: compiler reports %q, opt reports %q", ErrMismatchedToolchain, compilerVersion, optVersion)
	}
	return nil
}

func toolVersion(ctx context.Context, bin string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, "--version")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	m := reVersionLine.FindStringSubmatch(out.String())
	if m == nil {
		return "", fmt.Errorf("could not parse version from %q", bin)
	}
	return m[1], nil
}
