// Package ub implements the first cascade stage: deciding whether a
// reproducer's failure is more likely undefined behavior in the user's
// source or a genuine compiler bug, expressed as a confidence score rather
// than a hard boolean.
package ub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trace2pass/cldiag/internal/compile"
	"github.com/trace2pass/cldiag/internal/engine"
	"github.com/trace2pass/cldiag/internal/oracle"
	"github.com/trace2pass/cldiag/internal/reproducer"
	"github.com/trace2pass/cldiag/internal/stage"
	"github.com/trace2pass/cldiag/internal/toolchain"
)

// errO0Undetermined signals that the mandatory -O0 baseline could not be
// established: the compile didn't produce a binary, or running it timed out.
// Every other signal becomes meaningless without this baseline, so Classify
// must short-circuit on it rather than feed a partial signal set to score.
var errO0Undetermined = errors.New("ub: O0 baseline undetermined")

// ubsanTrigger is the stderr substring UndefinedBehaviorSanitizer prints when
// it catches a genuine UB violation at runtime.
const ubsanTrigger = "runtime error:"

// Classifier runs a reproducer under a handful of signals and combines them
// into a single confidence score: how likely the failure is a compiler bug
// rather than UB in the user's own code.
type Classifier struct {
	Step      *compile.Step
	Provider  toolchain.Provider
	Weights   engine.ConfidenceWeightsConfig
	Versions  []string // at least two distinct versions for cross-compiler comparison
}

// NewClassifier returns a Classifier wired to the given compile step,
// toolchain provider, and scoring weights.
func NewClassifier(step *compile.Step, provider toolchain.Provider, weights engine.ConfidenceWeightsConfig, versions []string) *Classifier {
	return &Classifier{Step: step, Provider: provider, Weights: weights, Versions: versions}
}

// signals holds the intermediate observations Classify folds into a score.
type signals struct {
	ubsanRan        bool
	ubsanClean      bool
	optSensitive    bool
	crossCompilerDiffers bool
	crashAsymmetry  bool
	notes           []string
}

// Classify compiles and runs repro under UBSan, across optimization levels,
// and (when Versions has more than one entry) across compiler versions,
// folding the observations into a single StageFinding.
func (c *Classifier) Classify(ctx context.Context, repro reproducer.Reproducer, judge oracle.Oracle, testTimeout time.Duration) (stage.Finding, error) {
	sig := signals{}

	if len(c.Versions) == 0 {
		return stage.Finding{}, fmt.Errorf("ub: no compiler versions configured")
	}
	primary := repro.FirstKnownBadVersion
	if primary == "" {
		primary = c.Versions[len(c.Versions)-1]
	}

	handle, err := c.Provider.Resolve(ctx, primary)
	if err != nil {
		return stage.Finding{}, fmt.Errorf("ub: resolving %s: %w", primary, err)
	}

	if err := c.runUBSan(ctx, repro, handle, &sig); err != nil {
		sig.notes = append(sig.notes, fmt.Sprintf("ubsan probe failed to compile: %v", err))
	}

	if err := c.runOptSensitivity(ctx, repro, handle, judge, testTimeout, &sig); err != nil {
		if errors.Is(err, errO0Undetermined) {
			sig.notes = append(sig.notes, "O0 baseline could not be established; classification is inconclusive")
			return stage.Finding{
				Stage:      stage.NameUB,
				Verdict:    "inconclusive",
				Confidence: 0.5,
				Evidence:   sig.notes,
			}, nil
		}
		sig.notes = append(sig.notes, fmt.Sprintf("optimization-sensitivity probe failed: %v", err))
	}

	if len(c.Versions) > 1 {
		if err := c.runCrossCompiler(ctx, repro, judge, testTimeout, &sig); err != nil {
			sig.notes = append(sig.notes, fmt.Sprintf("cross-compiler probe failed: %v", err))
		}
	}

	confidence := c.score(sig)
	verdict := "inconclusive"
	switch {
	case confidence >= c.Weights.CompilerBugThreshold:
		verdict = "compiler_bug"
	case confidence <= c.Weights.UserUBThreshold:
		verdict = "user_ub"
	}

	return stage.Finding{
		Stage:      stage.NameUB,
		Verdict:    verdict,
		Confidence: confidence,
		Evidence:   sig.notes,
	}, nil
}

// score applies the configured weights to the observed signals, clamped to
// [0, 1].
func (c *Classifier) score(sig signals) float64 {
	score := c.Weights.Baseline
	if sig.ubsanRan {
		if sig.ubsanClean {
			score += c.Weights.UBSanCleanBonus
		} else {
			score -= c.Weights.UBSanDirtyPenalty
		}
	}
	if sig.optSensitive {
		score += c.Weights.OptSensitivityBonus
	}
	if sig.crossCompilerDiffers {
		score += c.Weights.CrossCompilerBonus
	}
	if sig.crashAsymmetry {
		score += c.Weights.CrashAsymmetryBonus
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// runUBSan recompiles repro with -fsanitize=undefined and records whether
// the sanitizer fires at runtime. A "runtime error:" line in stderr means
// UBSan caught a real UB violation, pointing away from a compiler bug.
func (c *Classifier) runUBSan(ctx context.Context, repro reproducer.Reproducer, handle toolchain.Handle, sig *signals) error {
	flags := append(append([]string(nil), repro.Flags...), "-fsanitize=undefined", "-O"+optOrDefault(repro.OptLevel))
	out, err := c.Step.Run(ctx, compile.Request{Handle: handle, SourcePath: repro.SourcePath, Flags: flags, OutputName: "ubsan." + repro.OutputName()})
	if err != nil {
		return err
	}
	if out.Kind != compile.OutcomeBinary {
		return fmt.Errorf("ubsan build did not produce a binary (%s)", out.Kind)
	}

	stdout, stderr, exitCode, _, _, runErr := runProbe(out.BinaryPath)
	if runErr != nil {
		return runErr
	}
	sig.ubsanRan = true
	sig.ubsanClean = !strings.Contains(stderr, ubsanTrigger)
	if !sig.ubsanClean {
		sig.notes = append(sig.notes, "UndefinedBehaviorSanitizer reported a runtime error")
	} else {
		sig.notes = append(sig.notes, "UndefinedBehaviorSanitizer ran clean")
		if exitCode != 0 {
			snippet := stderr
			if len(snippet) > 200 {
				snippet = snippet[:200]
			}
			sig.notes = append(sig.notes, fmt.Sprintf("UBSan binary exited with code %d without a runtime error report; stderr: %q", exitCode, snippet))
		}
	}
	_ = stdout
	return nil
}

// runOptSensitivity compiles repro at -O0 and at its reported optimization
// level and checks whether the test verdict differs between them. A bug that
// only reproduces under optimization is a classic compiler-bug signature;
// one that reproduces identically at -O0 usually indicates UB that
// optimization merely exposes more aggressively.
func (c *Classifier) runOptSensitivity(ctx context.Context, repro reproducer.Reproducer, handle toolchain.Handle, judge oracle.Oracle, testTimeout time.Duration, sig *signals) error {
	o0Verdict, err := c.buildAndJudge(ctx, repro, handle, "0", judge, testTimeout)
	if err != nil {
		return err
	}
	if !isDeterminedVerdict(o0Verdict) {
		return errO0Undetermined
	}
	optVerdict, err := c.buildAndJudge(ctx, repro, handle, optOrDefault(repro.OptLevel), judge, testTimeout)
	if err != nil {
		return err
	}
	sig.optSensitive = o0Verdict != optVerdict
	if sig.optSensitive {
		sig.notes = append(sig.notes, fmt.Sprintf("verdict differs between -O0 (%s) and -O%s (%s)", o0Verdict, optOrDefault(repro.OptLevel), optVerdict))
	}
	return nil
}

// runCrossCompiler compiles repro at its reported optimization level under
// two distinct compiler versions and compares verdicts and crash behavior.
func (c *Classifier) runCrossCompiler(ctx context.Context, repro reproducer.Reproducer, judge oracle.Oracle, testTimeout time.Duration, sig *signals) error {
	vA, vB := c.Versions[0], c.Versions[len(c.Versions)-1]
	if vA == vB {
		return nil
	}
	handleA, err := c.Provider.Resolve(ctx, vA)
	if err != nil {
		return err
	}
	handleB, err := c.Provider.Resolve(ctx, vB)
	if err != nil {
		return err
	}
	verdictA, err := c.buildAndJudge(ctx, repro, handleA, optOrDefault(repro.OptLevel), judge, testTimeout)
	if err != nil {
		return err
	}
	verdictB, err := c.buildAndJudge(ctx, repro, handleB, optOrDefault(repro.OptLevel), judge, testTimeout)
	if err != nil {
		return err
	}
	sig.crossCompilerDiffers = verdictA != verdictB
	sig.crashAsymmetry = (verdictA == oracle.VerdictTimeout.String()) != (verdictB == oracle.VerdictTimeout.String())
	if sig.crossCompilerDiffers {
		sig.notes = append(sig.notes, fmt.Sprintf("verdict differs between %s (%s) and %s (%s)", vA, verdictA, vB, verdictB))
	}
	return nil
}

// buildAndJudge compiles repro at optLevel under handle and runs the oracle
// against the result, returning the verdict kind's string form, or
// "unavailable"/"diagnostic" for non-binary outcomes.
func (c *Classifier) buildAndJudge(ctx context.Context, repro reproducer.Reproducer, handle toolchain.Handle, optLevel string, judge oracle.Oracle, testTimeout time.Duration) (string, error) {
	flags := append(append([]string(nil), repro.Flags...), "-O"+optLevel)
	out, err := c.Step.Run(ctx, compile.Request{Handle: handle, SourcePath: repro.SourcePath, Flags: flags, OutputName: fmt.Sprintf("o%s.%s", optLevel, repro.OutputName())})
	if err != nil {
		return "", err
	}
	if out.Kind != compile.OutcomeBinary {
		return out.Kind.String(), nil
	}
	verdict, err := judge.Judge(ctx, out.BinaryPath, testTimeout)
	if err != nil {
		return "", err
	}
	return verdict.Kind.String(), nil
}

// isDeterminedVerdict reports whether a buildAndJudge result reflects an
// actual pass/fail observation rather than a failure to establish one: a
// non-binary compile outcome (diagnostic, ICE, unavailable toolchain, compile
// timeout) or a test timeout all mean the baseline never ran to completion.
func isDeterminedVerdict(verdict string) bool {
	switch verdict {
	case oracle.VerdictPassed.String(), oracle.VerdictFailed.String():
		return true
	default:
		return false
	}
}

func optOrDefault(level string) string {
	if level == "" {
		return "2"
	}
	return strings.TrimPrefix(level, "O")
}
