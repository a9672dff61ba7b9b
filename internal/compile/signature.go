package compile

import (
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// BuildSignature hashes a source file's contents together with the compiler
// version and flags that would be used to compile it. Step.Run uses this to
// detect "noop" probes — a candidate identical in every input that affects
// codegen to one already compiled — so a bisector re-probing the same
// (source, version, flags) triple is served from a cache instead of
// re-invoking the compiler.
func BuildSignature(sourcePath, version string, flags []string) (uint64, error) {
	contents, err := os.ReadFile(sourcePath)
	if err != nil {
		return 0, err
	}
	h := xxhash.New()
	h.Write(contents)
	h.WriteString("\x00")
	h.WriteString(version)
	h.WriteString("\x00")
	h.WriteString(strings.Join(flags, "\x1f"))
	return h.Sum64(), nil
}
