package toolchain

import (
	"path/filepath"
	"regexp"
)

var reClangSuffix = regexp.MustCompile(`^clang(\+\+)?-?(.*)$`)

// DeriveOptBinary maps a resolved clang/clang++ executable path to the `opt`
// binary from the same toolchain installation, e.g.
// "/usr/bin/clang-18" -> "/usr/bin/opt-18", so pass extraction always uses
// the pass-printer that matches the compiler actually invoking the passes.
func DeriveOptBinary(clangPath string) string {
	dir := filepath.Dir(clangPath)
	base := filepath.Base(clangPath)
	m := reClangSuffix.FindStringSubmatch(base)
	if m == nil {
		return filepath.Join(dir, "opt")
	}
	suffix := m[2]
	if suffix == "" {
		return filepath.Join(dir, "opt")
	}
	return filepath.Join(dir, "opt-"+suffix)
}
