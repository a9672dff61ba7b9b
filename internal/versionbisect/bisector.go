// Package versionbisect implements the second cascade stage: given a
// reproducer that fails under some known-bad compiler version, binary
// search a version ladder to find the first version at which the failure
// starts, skipping versions whose toolchain can't be resolved or whose
// compile is rejected with an ordinary diagnostic rather than a crash.
package versionbisect

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trace2pass/cldiag/internal/compile"
	"github.com/trace2pass/cldiag/internal/oracle"
	"github.com/trace2pass/cldiag/internal/reproducer"
	"github.com/trace2pass/cldiag/internal/stage"
	"github.com/trace2pass/cldiag/internal/toolchain"
)

// attemptVerdict is the outcome of testing a single version: whether the
// reproducer's expected failure reproduced ("bad"), the binary behaved
// correctly ("good"), or the version must be skipped entirely without
// moving the search boundary.
type attemptVerdict int

const (
	verdictGood attemptVerdict = iota
	verdictBad
	verdictSkip
)

// Bisector walks an ordered version ladder to find the first version at
// which a reproducer starts failing.
type Bisector struct {
	Step     *compile.Step
	Provider toolchain.Provider
	Versions []string // oldest first
}

// NewBisector returns a Bisector over the given ordered version ladder.
func NewBisector(step *compile.Step, provider toolchain.Provider, versions []string) *Bisector {
	return &Bisector{Step: step, Provider: provider, Versions: versions}
}

// Result is the outcome of a bisection run.
type Result struct {
	FirstBadVersion string
	LastGoodVersion string
	// TestedVersions lists versions that produced a genuine attempt: a
	// judged binary, an internal compiler error, or a timeout. Skipped
	// versions never appear here.
	TestedVersions []string
	// SkippedVersions lists versions that were skip-neutral (toolchain
	// unavailable, or rejected with an ordinary diagnostic) and therefore
	// never moved a search boundary or counted as an attempt.
	SkippedVersions []string
	Attempts        int
}

// record files v under the appropriate list on result: a genuine attempt
// counts toward Attempts and TestedVersions, a skip-neutral outcome only
// ever appears in SkippedVersions.
func (r *Result) record(version string, v attemptVerdict) {
	if v == verdictSkip {
		r.SkippedVersions = append(r.SkippedVersions, version)
		return
	}
	r.TestedVersions = append(r.TestedVersions, version)
	r.Attempts++
}

// Bisect finds the first version in b.Versions at which repro fails. It
// assumes (and does
// not re-verify beyond the endpoint check) that the oldest version is good
// and the newest is bad; if that assumption doesn't hold the search still
// terminates but FirstBadVersion may be empty.
func (b *Bisector) Bisect(ctx context.Context, repro reproducer.Reproducer, judge oracle.Oracle, testTimeout time.Duration) (Result, stage.Finding, error) {
	if len(b.Versions) < 2 {
		return Result{}, stage.Finding{}, fmt.Errorf("versionbisect: need at least two versions, got %d", len(b.Versions))
	}

	result := Result{}
	evidence := []string{}

	left, right := 0, len(b.Versions)-1

	// Probe both ladder endpoints concurrently: in the common case (oldest
	// version good, newest bad) this halves the wall-clock cost of endpoint
	// discovery below without changing the deterministic order in which the
	// search boundaries are updated -- the probed verdicts are simply
	// consumed as the first iteration of each marching loop instead of
	// re-attempting them sequentially.
	leftVerdict, rightVerdict, err := b.probeEndpoints(ctx, repro, judge, testTimeout)
	if err != nil {
		return result, stage.Finding{}, err
	}
	result.record(b.Versions[left], leftVerdict)
	result.record(b.Versions[right], rightVerdict)

	firstLeft := true

	// Endpoint discovery: march inward from both ends past any versions
	// that must be skipped, establishing known-good and known-bad anchors
	// before binary search begins.
	for left <= right {
		v := leftVerdict
		if !firstLeft {
			var err error
			v, err = b.attempt(ctx, repro, b.Versions[left], judge, testTimeout)
			if err != nil {
				return result, stage.Finding{}, err
			}
			result.record(b.Versions[left], v)
		}
		firstLeft = false
		if v == verdictGood {
			break
		}
		if v == verdictBad {
			// The very first version already fails; there is no good
			// anchor in the ladder to bisect against.
			result.FirstBadVersion = b.Versions[left]
			evidence = append(evidence, fmt.Sprintf("%s already fails; no known-good anchor in the configured ladder", b.Versions[left]))
			return result, b.finding(result, evidence), nil
		}
		evidence = append(evidence, fmt.Sprintf("skipped %s (toolchain unavailable or rejected by compiler)", b.Versions[left]))
		left++
	}
	if left > right {
		evidence = append(evidence, "no configured version could be tested (all unavailable or rejected)")
		return result, b.finding(result, evidence), nil
	}
	result.LastGoodVersion = b.Versions[left]

	firstRight := true
	for right >= left {
		v := rightVerdict
		if !firstRight {
			var err error
			v, err = b.attempt(ctx, repro, b.Versions[right], judge, testTimeout)
			if err != nil {
				return result, stage.Finding{}, err
			}
			result.record(b.Versions[right], v)
		}
		firstRight = false
		if v == verdictBad {
			break
		}
		if v == verdictGood {
			evidence = append(evidence, fmt.Sprintf("newest configured version %s still passes; cannot bisect a regression", b.Versions[right]))
			return result, b.finding(result, evidence), nil
		}
		evidence = append(evidence, fmt.Sprintf("skipped %s (toolchain unavailable or rejected by compiler)", b.Versions[right]))
		right--
	}
	if right < left {
		return result, b.finding(result, evidence), nil
	}

	// Binary search in [left, right]: b.Versions[left] is known good,
	// b.Versions[right] is known bad. Each iteration probes the nearest
	// unprobed index to the midpoint, scanning outward toward both
	// boundaries in increasing offsets, so a skip-neutral outcome is never
	// re-probed and the loop always makes progress or proves the range
	// can't be narrowed further.
	probed := map[int]bool{}
	for right-left > 1 {
		mid := left + (right-left)/2
		idx, ok := nearestUnprobed(mid, left, right, probed)
		if !ok {
			// Every version strictly between left and right is
			// skip-neutral; the boundary can't be narrowed further.
			break
		}
		v, err := b.attempt(ctx, repro, b.Versions[idx], judge, testTimeout)
		if err != nil {
			return result, stage.Finding{}, err
		}
		result.record(b.Versions[idx], v)
		switch v {
		case verdictGood:
			left = idx
		case verdictBad:
			right = idx
		case verdictSkip:
			evidence = append(evidence, fmt.Sprintf("skipped %s (toolchain unavailable or rejected by compiler)", b.Versions[idx]))
			probed[idx] = true
		}
	}

	result.LastGoodVersion = b.Versions[left]
	result.FirstBadVersion = b.Versions[right]
	evidence = append(evidence, fmt.Sprintf("bisected to %s (last good) / %s (first bad)", result.LastGoodVersion, result.FirstBadVersion))
	return result, b.finding(result, evidence), nil
}

// attempt resolves and compiles repro under version and judges the result,
// returning a skip-neutral verdict when the version is unavailable or the
// compiler rejects the input as invalid rather than crashing on it.
func (b *Bisector) attempt(ctx context.Context, repro reproducer.Reproducer, version string, judge oracle.Oracle, testTimeout time.Duration) (attemptVerdict, error) {
	handle, err := b.Provider.Resolve(ctx, version)
	if err != nil {
		return verdictSkip, nil
	}

	flags := append(append([]string(nil), repro.Flags...), "-O"+optOrDefault(repro.OptLevel))
	out, err := b.Step.Run(ctx, compile.Request{Handle: handle, SourcePath: repro.SourcePath, Flags: flags, OutputName: version + "." + repro.OutputName()})
	if err != nil {
		return verdictSkip, err
	}

	switch out.Kind {
	case compile.OutcomeDiagnostic, compile.OutcomeUnavailable:
		return verdictSkip, nil
	case compile.OutcomeInternalError, compile.OutcomeTimeout:
		return verdictBad, nil
	case compile.OutcomeBinary:
		verdict, err := judge.Judge(ctx, out.BinaryPath, testTimeout)
		if err != nil {
			return verdictSkip, err
		}
		switch verdict.Kind {
		case oracle.VerdictPassed:
			return verdictGood, nil
		default:
			return verdictBad, nil
		}
	default:
		return verdictSkip, nil
	}
}

// probeEndpoints attempts the oldest and newest configured versions
// concurrently and returns their verdicts in (oldest, newest) order. The two
// compiles run against independent work-directory output names, so they
// share b.Step safely.
func (b *Bisector) probeEndpoints(ctx context.Context, repro reproducer.Reproducer, judge oracle.Oracle, testTimeout time.Duration) (attemptVerdict, attemptVerdict, error) {
	var left, right attemptVerdict
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := b.attempt(gctx, repro, b.Versions[0], judge, testTimeout)
		left = v
		return err
	})
	g.Go(func() error {
		v, err := b.attempt(gctx, repro, b.Versions[len(b.Versions)-1], judge, testTimeout)
		right = v
		return err
	})
	if err := g.Wait(); err != nil {
		return verdictSkip, verdictSkip, err
	}
	return left, right, nil
}

// nearestUnprobed finds the index closest to mid, strictly between left and
// right, that is not already marked probed, scanning outward toward both
// boundaries in increasing offsets. It returns false once every index in
// (left, right) has been probed.
func nearestUnprobed(mid, left, right int, probed map[int]bool) (int, bool) {
	if mid > left && mid < right && !probed[mid] {
		return mid, true
	}
	for offset := 1; offset <= right-left; offset++ {
		lo, hi := mid-offset, mid+offset
		if lo > left && lo < right && !probed[lo] {
			return lo, true
		}
		if hi > left && hi < right && !probed[hi] {
			return hi, true
		}
	}
	return 0, false
}

func (b *Bisector) finding(result Result, evidence []string) stage.Finding {
	verdict := "inconclusive"
	confidence := 0.5
	if result.FirstBadVersion != "" && result.LastGoodVersion != "" {
		verdict = "regression_bisected"
		confidence = 0.9
	}
	return stage.Finding{
		Stage:           stage.NameVersion,
		Verdict:         verdict,
		Confidence:      confidence,
		FirstBadVersion: result.FirstBadVersion,
		LastGoodVersion: result.LastGoodVersion,
		Evidence:        evidence,
		AttemptsMade:    result.Attempts,
	}
}

func optOrDefault(level string) string {
	if level == "" {
		return "2"
	}
	if level[0] == 'O' {
		return level[1:]
	}
	return level
}
