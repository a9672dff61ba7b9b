package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// LocalProvider resolves compiler versions to versioned executables already
// installed on the host, e.g. clang-18 for version "18.1.0". It never falls
// back to an unversioned "clang" binary: a version that isn't installed as
// its own executable is unavailable, not silently substituted.
type LocalProvider struct {
	// CompilerFamily is the executable prefix, e.g. "clang" or "clang++".
	CompilerFamily string
	// BinDirs are additional directories searched before PATH, in order.
	BinDirs []string
	lookPath func(string) (string, error)
}

// NewLocalProvider returns a LocalProvider for the given compiler family and
// extra search directories.
func NewLocalProvider(compilerFamily string, binDirs []string) *LocalProvider {
	return &LocalProvider{
		CompilerFamily: compilerFamily,
		BinDirs:        binDirs,
		lookPath:       exec.LookPath,
	}
}

// Name returns "local".
func (p *LocalProvider) Name() string { return "local" }

// majorVersion extracts the leading dotted component, e.g. "18.1.0" -> "18".
func majorVersion(version string) string {
	if i := strings.IndexByte(version, '.'); i >= 0 {
		return version[:i]
	}
	return version
}

// candidateNames returns the versioned executable names to try, most
// specific first: clang-18.1.0, then clang-18. Plain "clang" is deliberately
// never a candidate.
func (p *LocalProvider) candidateNames(version string) []string {
	major := majorVersion(version)
	names := []string{fmt.Sprintf("%s-%s", p.CompilerFamily, version)}
	if major != version {
		names = append(names, fmt.Sprintf("%s-%s", p.CompilerFamily, major))
	}
	return names
}

// findInBinDirs globs each configured BinDir for a matching versioned
// executable name, supporting patterns like "/opt/llvm-*/bin".
func (p *LocalProvider) findInBinDirs(name string) (string, bool) {
	for _, dir := range p.BinDirs {
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, name))
		if err != nil || len(matches) == 0 {
			continue
		}
		return matches[0], true
	}
	return "", false
}

// resolvePath implements the shared lookup used by both Available and
// Resolve: bin-dir glob first, then PATH, trying each candidate name in turn.
func (p *LocalProvider) resolvePath(version string) (string, bool) {
	for _, name := range p.candidateNames(version) {
		if path, ok := p.findInBinDirs(name); ok {
			return path, true
		}
		if path, err := p.lookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

// Available reports whether version resolves to an executable without error.
func (p *LocalProvider) Available(_ context.Context, version string) bool {
	_, ok := p.resolvePath(version)
	return ok
}

// Resolve returns a Handle for the versioned executable, or
// ErrVersionUnavailable if none of the versioned candidate names exist.
func (p *LocalProvider) Resolve(_ context.Context, version string) (Handle, error) {
	path, ok := p.resolvePath(version)
	if !ok {
		return Handle{}, fmt.Errorf("%w: no %s-%s (or -%s) executable on PATH or in configured bin dirs", ErrVersionUnavailable, p.CompilerFamily, version, majorVersion(version))
	}
	return Handle{Version: version, Executable: path}, nil
}
