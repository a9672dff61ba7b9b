package diagnose

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trace2pass/cldiag/internal/compile"
	"github.com/trace2pass/cldiag/internal/engine"
	"github.com/trace2pass/cldiag/internal/oracle"
	"github.com/trace2pass/cldiag/internal/reproducer"
	"github.com/trace2pass/cldiag/internal/stage"
	"github.com/trace2pass/cldiag/internal/toolchain"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script fake toolchains are not portable to windows")
	}
}

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
}

// multiProvider resolves a version string to whichever Handle was registered
// for it, standing in for a host with several clang versions installed.
type multiProvider struct{ handles map[string]toolchain.Handle }

func (p *multiProvider) Name() string { return "multi" }
func (p *multiProvider) Resolve(_ context.Context, version string) (toolchain.Handle, error) {
	h, ok := p.handles[version]
	if !ok {
		return toolchain.Handle{}, toolchain.ErrVersionUnavailable
	}
	return h, nil
}
func (p *multiProvider) Available(_ context.Context, version string) bool {
	_, ok := p.handles[version]
	return ok
}

func writeReproSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repro.c")
	require.NoError(t, os.WriteFile(path, []byte("int main(void){return 0;}"), 0o644))
	return path
}

func TestOrchestrator_Run_FullCascadeFindsCulprit(t *testing.T) {
	skipOnWindows(t)
	toolDir := t.TempDir()

	goodCompiler := filepath.Join(toolDir, "clang-14")
	write(t, goodCompiler, `#!/bin/sh
case "$1" in --version) echo "clang version 14.0.0"; exit 0 ;; esac
for arg in "$@"; do out="$arg"; done
cat > "$out" <<'EOF'
#!/bin/sh
exit 0
EOF
chmod +x "$out"
exit 0
`)

	badCompiler := filepath.Join(toolDir, "clang-18")
	write(t, badCompiler, `#!/bin/sh
case "$1" in --version) echo "clang version 18.1.0"; exit 0 ;; esac
case "$*" in
  *-emit-llvm*)
    for arg in "$@"; do last="$arg"; done
    echo "BASE_IR" > "$last"
    exit 0
    ;;
esac
case "$*" in
  *.ll*)
    ir="$1"
    for arg in "$@"; do out="$arg"; done
    passes=$(grep '^PASSES:' "$ir" | sed 's/^PASSES:-passes=//')
    if [ -z "$passes" ]; then
      cat > "$out" <<'EOF'
#!/bin/sh
exit 0
EOF
    else
      cat > "$out" <<'EOF'
#!/bin/sh
exit 1
EOF
    fi
    chmod +x "$out"
    exit 0
    ;;
esac
for arg in "$@"; do out="$arg"; done
cat > "$out" <<'EOF'
#!/bin/sh
exit 1
EOF
chmod +x "$out"
exit 0
`)

	optTool := filepath.Join(toolDir, "opt-18")
	write(t, optTool, `#!/bin/sh
case "$1" in --version) echo "opt version 18.1.0"; exit 0 ;; esac
case "$*" in *-print-pipeline-passes*) echo "p1,p2"; exit 0 ;; esac
cat "$3" > "$5" 2>/dev/null || touch "$5"
echo "PASSES:$1" >> "$5"
exit 0
`)
	_ = optTool

	provider := &multiProvider{handles: map[string]toolchain.Handle{
		"14.0.0": {Version: "14.0.0", Executable: goodCompiler},
		"18.1.0": {Version: "18.1.0", Executable: badCompiler},
	}}

	cfg := engine.NewDefaults()
	cfg.Versions.Seed = []string{"14.0.0", "18.1.0"}
	cfg.Budgets.CompileTimeoutSeconds = 5

	step := compile.NewStep(cfg.ICESignatures.Substrings, 2*time.Second, t.TempDir(), nil)
	orch := New(provider, step, cfg)

	repro := reproducer.Reproducer{SourcePath: writeReproSource(t), Language: "c"}
	judge := oracle.NewExitCodeOracle("", 0)

	diag, err := orch.Run(context.Background(), repro, judge, 2*time.Second, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "compiler_regression", diag.FinalVerdict)
	assert.Equal(t, "p1", diag.CulpritPass)
	assert.True(t, diag.RanVersionBisection())
	assert.True(t, diag.RanPassBisection())
	assert.Equal(t, "18.1.0", diag.Version.FirstBadVersion)
	assert.Equal(t, "14.0.0", diag.Version.LastGoodVersion)
	assert.False(t, diag.FinishedAt.IsZero())
}

func TestOrchestrator_Run_StopsEarlyOnUserUB(t *testing.T) {
	skipOnWindows(t)
	toolDir := t.TempDir()

	dirty := filepath.Join(toolDir, "clang-18")
	write(t, dirty, `#!/bin/sh
case "$1" in --version) echo "clang version 18.1.0"; exit 0 ;; esac
flags="$*"
for arg in "$@"; do out="$arg"; done
case "$flags" in
  *-fsanitize=undefined*)
    cat > "$out" <<'EOF'
#!/bin/sh
echo "runtime error: dirty" >&2
exit 1
EOF
    ;;
  *)
    cat > "$out" <<'EOF'
#!/bin/sh
exit 0
EOF
    ;;
esac
chmod +x "$out"
exit 0
`)

	provider := &multiProvider{handles: map[string]toolchain.Handle{
		"18.1.0": {Version: "18.1.0", Executable: dirty},
	}}

	cfg := engine.NewDefaults()
	cfg.Versions.Seed = []string{"18.1.0"}

	step := compile.NewStep(cfg.ICESignatures.Substrings, 2*time.Second, t.TempDir(), nil)
	orch := New(provider, step, cfg)

	repro := reproducer.Reproducer{SourcePath: writeReproSource(t), Language: "c"}
	judge := oracle.NewExitCodeOracle("", 0)

	diag, err := orch.Run(context.Background(), repro, judge, 2*time.Second, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "user_ub", diag.FinalVerdict)
	assert.False(t, diag.RanVersionBisection(), "cascade must stop at UB classification once it concludes user UB")
	assert.False(t, diag.RanPassBisection())
}

func TestOrchestrator_Run_StopsEarlyOnInconclusiveUB(t *testing.T) {
	skipOnWindows(t)
	toolDir := t.TempDir()

	// UBSan builds always fail to compile (so ubsanRan never fires), but a
	// plain build always succeeds identically at -O0 and -O2 (so
	// optSensitive never fires either): the only active signal is the
	// scoring baseline itself, landing squarely between both thresholds.
	neutral := filepath.Join(toolDir, "clang-18")
	write(t, neutral, `#!/bin/sh
case "$1" in --version) echo "clang version 18.1.0"; exit 0 ;; esac
case "$*" in
  *-fsanitize=undefined*)
    echo "error: sanitizer unsupported by this fake toolchain" >&2
    exit 1
    ;;
esac
for arg in "$@"; do out="$arg"; done
cat > "$out" <<'EOF'
#!/bin/sh
exit 0
EOF
chmod +x "$out"
exit 0
`)

	provider := &multiProvider{handles: map[string]toolchain.Handle{
		"18.1.0": {Version: "18.1.0", Executable: neutral},
	}}

	cfg := engine.NewDefaults()
	cfg.Versions.Seed = []string{"18.1.0"}

	step := compile.NewStep(cfg.ICESignatures.Substrings, 2*time.Second, t.TempDir(), nil)
	orch := New(provider, step, cfg)

	repro := reproducer.Reproducer{SourcePath: writeReproSource(t), Language: "c"}
	judge := oracle.NewExitCodeOracle("", 0)

	diag, err := orch.Run(context.Background(), repro, judge, 2*time.Second, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "inconclusive", diag.FinalVerdict)
	assert.False(t, diag.RanVersionBisection(), "cascade must stop at UB classification when the verdict is inconclusive, not just on user_ub")
	assert.False(t, diag.RanPassBisection())
}

func TestOrchestrator_Run_RespectsStopAfter(t *testing.T) {
	skipOnWindows(t)
	toolDir := t.TempDir()
	clang := filepath.Join(toolDir, "clang-18")
	write(t, clang, `#!/bin/sh
for arg in "$@"; do out="$arg"; done
cat > "$out" <<'EOF'
#!/bin/sh
exit 1
EOF
chmod +x "$out"
exit 0
`)

	provider := &multiProvider{handles: map[string]toolchain.Handle{"18.1.0": {Version: "18.1.0", Executable: clang}}}
	cfg := engine.NewDefaults()
	cfg.Versions.Seed = []string{"18.1.0"}

	step := compile.NewStep(cfg.ICESignatures.Substrings, 2*time.Second, t.TempDir(), nil)
	orch := New(provider, step, cfg, WithStopAfter(StateUB))

	repro := reproducer.Reproducer{SourcePath: writeReproSource(t), Language: "c"}
	diag, err := orch.Run(context.Background(), repro, oracle.NewExitCodeOracle("", 0), 2*time.Second, t.TempDir())
	require.NoError(t, err)

	assert.False(t, diag.RanVersionBisection(), "WithStopAfter(StateUB) must not run version bisection even if UB was inconclusive")
}

func TestOrchestrator_Run_InvalidReproducer(t *testing.T) {
	cfg := engine.NewDefaults()
	step := compile.NewStep(nil, time.Second, t.TempDir(), nil)
	orch := New(&multiProvider{handles: map[string]toolchain.Handle{}}, step, cfg)

	_, err := orch.Run(context.Background(), reproducer.Reproducer{}, oracle.NewExitCodeOracle("", 0), time.Second, t.TempDir())
	assert.Error(t, err)
}

func TestOrchestrator_Emit_NonBlockingWithoutConsumer(t *testing.T) {
	cfg := engine.NewDefaults()
	step := compile.NewStep(nil, time.Second, t.TempDir(), nil)
	ch := make(chan Event) // unbuffered, nobody reads it
	orch := New(&multiProvider{handles: map[string]toolchain.Handle{}}, step, cfg, WithEventChannel(ch))

	done := make(chan struct{})
	go func() {
		orch.emit(StateUB, &stage.Finding{Stage: stage.NameUB})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit must not block when there is no consumer draining the event channel")
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "UB", StateUB.String())
	assert.Equal(t, "VERSION", StateVersion.String())
	assert.Equal(t, "PASS", StatePass.String())
	assert.Equal(t, "DONE", StateDone.String())
	assert.Equal(t, "UNKNOWN", State(99).String())
}

func TestDiagnosis_Duration(t *testing.T) {
	d := Diagnosis{}
	assert.Zero(t, d.Duration())

	start := time.Now()
	d.StartedAt = start
	d.FinishedAt = start.Add(5 * time.Second)
	assert.Equal(t, 5*time.Second, d.Duration())
}
