package eval

import (
	"context"
	"fmt"
	"time"

	"github.com/trace2pass/cldiag/internal/compile"
	"github.com/trace2pass/cldiag/internal/diagnose"
	"github.com/trace2pass/cldiag/internal/engine"
	"github.com/trace2pass/cldiag/internal/oracle"
	"github.com/trace2pass/cldiag/internal/reproducer"
	"github.com/trace2pass/cldiag/internal/toolchain"
)

// CaseResult is one fixture's outcome against the cascade.
type CaseResult struct {
	Fixture  string
	Passed   bool
	Got      string
	Want     string
	GotPass  string
	WantPass string
	Err      error
}

// Matrix is the aggregate result of running every fixture.
type Matrix struct {
	Cases []CaseResult
}

// Passed returns how many cases reached their expected verdict.
func (m Matrix) Passed() int {
	n := 0
	for _, c := range m.Cases {
		if c.Passed {
			n++
		}
	}
	return n
}

// RunMatrix replays every fixture in fixtures through a fresh Orchestrator
// built from provider/step/cfg, comparing the cascade's FinalVerdict (and,
// when the fixture names one, CulpritPass) against what the fixture expects.
func RunMatrix(ctx context.Context, fixtures []Fixture, provider toolchain.Provider, step *compile.Step, cfg *engine.Config, workDir string) Matrix {
	var m Matrix
	for _, f := range fixtures {
		m.Cases = append(m.Cases, runOne(ctx, f, provider, step, cfg, workDir))
	}
	return m
}

func runOne(ctx context.Context, f Fixture, provider toolchain.Provider, step *compile.Step, cfg *engine.Config, workDir string) CaseResult {
	repro := reproducer.Reproducer{
		SourcePath:           f.SourcePath(),
		Language:             f.Lang,
		Flags:                f.Flags,
		OptLevel:             f.OptLevel,
		Stdin:                f.Stdin,
		ExpectedStdout:       f.ExpectedStdout,
		ExpectedExitCode:     f.ExpectedExitCode,
		FirstKnownBadVersion: f.KnownBadVersion,
	}
	if err := repro.Validate(); err != nil {
		return CaseResult{Fixture: f.Name, Want: f.ExpectedVerdict, Err: fmt.Errorf("invalid fixture: %w", err)}
	}

	var judge oracle.Oracle
	if f.ExpectedStdout != "" {
		judge = oracle.NewExpectedOutputOracle(f.Stdin, f.ExpectedStdout)
	} else {
		judge = oracle.NewExitCodeOracle(f.Stdin, f.ExpectedExitCode)
	}

	orch := diagnose.New(provider, step, cfg)
	testTimeout := time.Duration(cfg.Budgets.TestTimeoutSeconds) * time.Second
	diag, err := orch.Run(ctx, repro, judge, testTimeout, workDir)
	if err != nil {
		return CaseResult{Fixture: f.Name, Want: f.ExpectedVerdict, Err: err}
	}

	result := CaseResult{
		Fixture:  f.Name,
		Got:      diag.FinalVerdict,
		Want:     f.ExpectedVerdict,
		GotPass:  diag.CulpritPass,
		WantPass: f.ExpectedPass,
	}
	result.Passed = result.Got == result.Want
	if f.ExpectedPass != "" {
		result.Passed = result.Passed && result.GotPass == result.WantPass
	}
	return result
}
