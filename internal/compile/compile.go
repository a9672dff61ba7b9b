package compile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/trace2pass/cldiag/internal/toolchain"
)

// compileLogger is the minimal logging interface CompileStep needs; it is
// satisfied by *log.Logger from internal/logging without importing it
// directly, keeping this package testable with a stub.
type compileLogger interface {
	Debug(msg string, keyvals ...interface{})
}

// Step runs a single compiler invocation against a resolved toolchain
// Handle and reports a typed Outcome. It never falls back to a different
// compiler version than the Handle it was given.
type Step struct {
	// ICESignatures are the stderr substrings used to distinguish an
	// OutcomeInternalError from an OutcomeDiagnostic.
	ICESignatures []string
	// Timeout bounds how long the compiler subprocess may run before it is
	// killed and the outcome becomes OutcomeTimeout.
	Timeout time.Duration
	// WorkDir is the directory compiler invocations run in; output binaries
	// are written beneath it.
	WorkDir string

	Logger compileLogger

	// Gate, when set, bounds how many compiler subprocesses this Step may
	// have in flight at once, letting the bisection stages' concurrent
	// endpoint/cross-version probes fan out without overrunning the host.
	Gate *ConcurrencyGate

	// cacheMu guards cache, which memoizes outcomes by content signature
	// (BuildSignature) so a bisector re-probing the same source/version/flags
	// triple -- a noop search step -- is served without re-invoking the
	// compiler.
	cacheMu sync.Mutex
	cache   map[uint64]Outcome
}

// NewStep returns a Step with the given configuration.
func NewStep(iceSignatures []string, timeout time.Duration, workDir string, logger compileLogger) *Step {
	return &Step{ICESignatures: iceSignatures, Timeout: timeout, WorkDir: workDir, Logger: logger}
}

// Request describes one compile attempt: the source to compile, the flags to
// pass, and the toolchain handle to compile it with.
type Request struct {
	Handle       toolchain.Handle
	SourcePath   string
	Flags        []string
	OutputName   string // base name for the produced binary, e.g. "a.out"
}

// Run invokes the compiler described by req.Handle and returns a typed
// Outcome. The subprocess runs in its own process group so that ctx
// cancellation (including the internal timeout this method enforces) kills
// the whole subtree, matching the signal-handling discipline used elsewhere
// in this codebase for long-running external tools.
func (s *Step) Run(ctx context.Context, req Request) (Outcome, error) {
	sig, sigErr := BuildSignature(req.SourcePath, req.Handle.Version, req.Flags)
	if sigErr == nil {
		if out, ok := s.cached(sig); ok {
			if s.Logger != nil {
				s.Logger.Debug("noop probe, serving from signature cache", "version", req.Handle.Version)
			}
			return out, nil
		}
	}

	out, err := s.run(ctx, req)
	if err == nil && sigErr == nil {
		s.remember(sig, out)
	}
	return out, err
}

// cached returns the outcome previously recorded under sig, if any.
func (s *Step) cached(sig uint64) (Outcome, bool) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	out, ok := s.cache[sig]
	return out, ok
}

// remember records out under sig for future noop-probe lookups.
func (s *Step) remember(sig uint64, out Outcome) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cache == nil {
		s.cache = make(map[uint64]Outcome)
	}
	s.cache[sig] = out
}

// run performs the actual compiler invocation described by req, uncached.
func (s *Step) run(ctx context.Context, req Request) (Outcome, error) {
	if s.Gate != nil {
		s.Gate.Acquire()
		defer s.Gate.Release()
	}

	runCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	outPath := filepath.Join(s.WorkDir, req.OutputName)
	args := append(append([]string{}, req.Flags...), req.SourcePath, "-o", outPath)

	cmd, err := s.buildCommand(runCtx, req.Handle, args)
	if err != nil {
		return Outcome{}, err
	}

	if s.Logger != nil {
		s.Logger.Debug("compiling", "version", req.Handle.Version, "args", args)
	}

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf
	cmd.Stdout = nil

	start := time.Now()
	setProcGroup(cmd)
	runErr := cmd.Run()
	duration := time.Since(start)

	if runCtx.Err() != nil {
		return Outcome{Kind: OutcomeTimeout, Stderr: stderrBuf.String(), ExitCode: -1, Duration: duration}, nil
	}

	if runErr != nil {
		kind := ClassifyFailure(stderrBuf.String(), s.ICESignatures)
		exitCode := -1
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return Outcome{Kind: kind, Stderr: stderrBuf.String(), ExitCode: exitCode, Duration: duration}, nil
	}

	if _, statErr := os.Stat(outPath); statErr != nil {
		// Compiler exited 0 but produced no binary; treat as a diagnostic
		// rather than claiming success with a binary that doesn't exist.
		return Outcome{Kind: OutcomeDiagnostic, Stderr: stderrBuf.String(), ExitCode: 0, Duration: duration}, nil
	}

	return Outcome{Kind: OutcomeBinary, BinaryPath: outPath, Stderr: stderrBuf.String(), ExitCode: 0, Duration: duration}, nil
}

// buildCommand constructs the *exec.Cmd for req, routing through docker run
// when the handle is container-backed and invoking the executable directly
// otherwise. This is the only place compile ever branches on
// Handle.IsContainer(): every other component treats a Handle opaquely.
func (s *Step) buildCommand(ctx context.Context, h toolchain.Handle, args []string) (*exec.Cmd, error) {
	if !h.IsContainer() {
		return exec.CommandContext(ctx, h.Executable, args...), nil
	}

	mountDir := s.WorkDir
	dockerArgs := []string{
		"run", "--rm",
		"-v", fmt.Sprintf("%s:%s", mountDir, mountDir),
		"-w", mountDir,
		h.Container, h.Executable,
	}
	dockerArgs = append(dockerArgs, args...)
	return exec.CommandContext(ctx, "docker", dockerArgs...), nil
}

// ConcurrencyGate bounds how many Step.Run calls may be in flight at once,
// used by bisection stages that fan work out across a semaphore rather than
// serializing every compile.
type ConcurrencyGate struct {
	sem chan struct{}
}

// NewConcurrencyGate returns a gate allowing at most n concurrent holders.
func NewConcurrencyGate(n int) *ConcurrencyGate {
	if n <= 0 {
		n = 1
	}
	return &ConcurrencyGate{sem: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free.
func (g *ConcurrencyGate) Acquire() { g.sem <- struct{}{} }

// Release frees the slot taken by a prior Acquire.
func (g *ConcurrencyGate) Release() { <-g.sem }
