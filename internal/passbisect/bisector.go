// Package passbisect implements the third cascade stage: given a reproducer
// that is known to fail under a specific compiler version and optimization
// level, narrow the blame down to the single LLVM optimization pass whose
// application first changes the binary's behavior from correct to incorrect.
package passbisect

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/trace2pass/cldiag/internal/oracle"
	"github.com/trace2pass/cldiag/internal/reproducer"
	"github.com/trace2pass/cldiag/internal/stage"
	"github.com/trace2pass/cldiag/internal/toolchain"
)

// Bisector narrows a miscompilation to a single optimization pass within the
// pipeline a specific compiler version/level would run.
type Bisector struct {
	Handle      toolchain.Handle
	CompilerBin string // clang or clang++ matching Handle's version
	OptBin      string // opt matching Handle's version
	WorkDir     string
	Timeout     time.Duration
}

// NewBisector returns a Bisector that compiles and runs passes using the
// given matched clang/opt pair. CompilerBin and OptBin must come from the
// same toolchain installation as Handle; a mismatched pass-printer and
// compiler refuses to run rather than produce a misleading culprit.
func NewBisector(handle toolchain.Handle, compilerBin, optBin, workDir string, timeout time.Duration) *Bisector {
	return &Bisector{Handle: handle, CompilerBin: compilerBin, OptBin: optBin, WorkDir: workDir, Timeout: timeout}
}

// Result is the outcome of a pass-bisection run.
type Result struct {
	Pipeline    []string
	CulpritPass string
	CulpritIdx  int
	Attempts    int
}

// Bisect emits repro to LLVM IR, extracts the optimization pipeline for
// optLevel, and binary searches the prefix of that pipeline for the shortest
// prefix whose application causes judge to report failure. It refuses to run
// if CompilerBin and OptBin report mismatched versions, per
// mismatched_toolchain handling.
func (b *Bisector) Bisect(ctx context.Context, repro reproducer.Reproducer, optLevel string, judge oracle.Oracle, testTimeout time.Duration) (Result, stage.Finding, error) {
	if err := b.checkMatchedToolchain(ctx); err != nil {
		return Result{}, stage.Finding{}, err
	}

	irPath := filepath.Join(b.WorkDir, "repro.ll")
	if err := b.emitIR(ctx, repro, irPath); err != nil {
		return Result{}, stage.Finding{}, fmt.Errorf("passbisect: emitting IR: %w", err)
	}

	pipeline, err := ExtractPipeline(ctx, b.OptBin, irPath, optLevel, b.Timeout)
	if err != nil {
		return Result{}, stage.Finding{}, err
	}
	if len(pipeline) == 0 {
		return Result{}, stage.Finding{}, fmt.Errorf("passbisect: empty optimization pipeline for -O%s", optLevel)
	}

	result := Result{Pipeline: pipeline}

	// Baseline bookend: zero passes applied must pass (repro is known-bad
	// only once the full pipeline runs).
	baselineVerdict, err := b.runWithPrefix(ctx, repro, irPath, pipeline[:0], judge, testTimeout)
	result.Attempts++
	if err != nil {
		return result, stage.Finding{}, err
	}
	if baselineVerdict == oracle.VerdictFailed {
		return result, b.finding(result, []string{"reproducer already fails with zero optimization passes applied; culprit is not in the pass pipeline"}), nil
	}

	// Full-pipeline bookend: every pass applied must reproduce the failure,
	// or there is nothing to bisect.
	fullVerdict, err := b.runWithPrefix(ctx, repro, irPath, pipeline, judge, testTimeout)
	result.Attempts++
	if err != nil {
		return result, stage.Finding{}, err
	}
	if fullVerdict != oracle.VerdictFailed {
		return result, b.finding(result, []string{"reproducer does not fail even with the full optimization pipeline applied"}), nil
	}

	left, right := 0, len(pipeline)
	for right-left > 1 {
		mid := left + (right-left)/2
		verdict, err := b.runWithPrefix(ctx, repro, irPath, pipeline[:mid], judge, testTimeout)
		result.Attempts++
		if err != nil {
			return result, stage.Finding{}, err
		}
		if verdict == oracle.VerdictFailed {
			right = mid
		} else {
			left = mid
		}
	}

	result.CulpritIdx = right - 1
	result.CulpritPass = pipeline[result.CulpritIdx]
	evidence := []string{fmt.Sprintf("prefix of %d/%d passes reproduces the failure; prefix of %d does not", right, len(pipeline), left)}
	return result, b.finding(result, evidence), nil
}

// runWithPrefix recompiles irPath applying only pipeline[:len(prefix)] via
// `opt -passes=...`, links the result, and judges the binary.
func (b *Bisector) runWithPrefix(ctx context.Context, repro reproducer.Reproducer, irPath string, prefix []string, judge oracle.Oracle, testTimeout time.Duration) (oracle.VerdictKind, error) {
	optimizedIR := filepath.Join(b.WorkDir, fmt.Sprintf("repro.%d.ll", len(prefix)))
	if err := b.applyPasses(ctx, irPath, optimizedIR, prefix); err != nil {
		return oracle.VerdictFailed, err
	}

	binPath := filepath.Join(b.WorkDir, fmt.Sprintf("repro.%d.out", len(prefix)))
	if err := b.compileIR(ctx, optimizedIR, binPath); err != nil {
		return oracle.VerdictFailed, err
	}

	verdict, err := judge.Judge(ctx, binPath, testTimeout)
	if err != nil {
		return oracle.VerdictFailed, err
	}
	return verdict.Kind, nil
}

// applyPasses runs `opt -passes=p1,p2,...` on irPath, producing optimizedIR.
// An empty prefix still runs opt with an empty -passes string so later
// stages see a consistently-formatted (if unoptimized) IR file.
func (b *Bisector) applyPasses(ctx context.Context, irPath, outPath string, prefix []string) error {
	runCtx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	passesArg := "-passes=" + joinPasses(prefix)
	cmd := exec.CommandContext(runCtx, b.OptBin, passesArg, "-S", irPath, "-o", outPath)
	return cmd.Run()
}

func joinPasses(passes []string) string {
	out := ""
	for i, p := range passes {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}

// compileIR invokes clang to turn IR into an executable binary.
func (b *Bisector) compileIR(ctx context.Context, irPath, outPath string) error {
	runCtx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, b.CompilerBin, irPath, "-o", outPath)
	return cmd.Run()
}

// emitIR compiles repro's source down to unoptimized LLVM IR (-S -emit-llvm
// -O0), the starting point pass bisection then re-optimizes in controlled
// steps.
func (b *Bisector) emitIR(ctx context.Context, repro reproducer.Reproducer, irPath string) error {
	runCtx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()
	args := append(append([]string(nil), repro.Flags...), "-S", "-emit-llvm", "-O0", repro.SourcePath, "-o", irPath)
	cmd := exec.CommandContext(runCtx, b.CompilerBin, args...)
	return cmd.Run()
}

func (b *Bisector) finding(result Result, evidence []string) stage.Finding {
	verdict := "inconclusive"
	confidence := 0.5
	if result.CulpritPass != "" {
		verdict = "pass_bisected"
		confidence = 0.95
	}
	window := contextWindow(result.Pipeline, result.CulpritIdx, 2)
	return stage.Finding{
		Stage:           stage.NamePass,
		Verdict:         verdict,
		Confidence:      confidence,
		CulpritPass:     result.CulpritPass,
		PipelineContext: window,
		Evidence:        evidence,
		AttemptsMade:    result.Attempts,
	}
}

// contextWindow returns up to radius passes on either side of idx, used by
// the report renderer to show the culprit in its surrounding pipeline.
func contextWindow(pipeline []string, idx, radius int) []string {
	if idx < 0 || idx >= len(pipeline) {
		return nil
	}
	lo := idx - radius
	if lo < 0 {
		lo = 0
	}
	hi := idx + radius + 1
	if hi > len(pipeline) {
		hi = len(pipeline)
	}
	return append([]string(nil), pipeline[lo:hi]...)
}
