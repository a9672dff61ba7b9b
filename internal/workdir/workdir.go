// Package workdir manages the scoped temporary directories each compile
// attempt and bisection run works inside of: create under the system temp
// root with a recognizable prefix, lock down permissions, and
// guarantee cleanup via the returned Dir's Close method.
package workdir

import (
	"fmt"
	"os"
)

// Dir is a scoped temporary directory. Callers must call Close when done;
// it is safe to call Close more than once.
type Dir struct {
	Path   string
	closed bool
}

// New creates a fresh temporary directory under the system temp root with
// the given prefix (e.g. "cldiag-compile-") and restricts its permissions to
// owner-only.
func New(prefix string) (*Dir, error) {
	path, err := os.MkdirTemp("", prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("workdir: creating temp dir: %w", err)
	}
	if err := os.Chmod(path, 0o700); err != nil {
		// Non-fatal: the directory is still usable, just less locked down
		// than intended. Callers may log this themselves.
		_ = err
	}
	return &Dir{Path: path}, nil
}

// Close removes the directory and everything beneath it.
func (d *Dir) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if err := os.RemoveAll(d.Path); err != nil {
		return fmt.Errorf("workdir: removing %s: %w", d.Path, err)
	}
	return nil
}
