// Package diagnose sequences the three cascade stages (UB classification,
// version bisection, pass bisection) behind a monotonic state machine and
// assembles their StageFindings into a single Diagnosis, following the same
// functional-options-plus-event-channel shape this codebase's workflow
// engine uses to drive its own step sequencing.
package diagnose

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/trace2pass/cldiag/internal/compile"
	"github.com/trace2pass/cldiag/internal/engine"
	"github.com/trace2pass/cldiag/internal/oracle"
	"github.com/trace2pass/cldiag/internal/passbisect"
	"github.com/trace2pass/cldiag/internal/reproducer"
	"github.com/trace2pass/cldiag/internal/stage"
	"github.com/trace2pass/cldiag/internal/toolchain"
	"github.com/trace2pass/cldiag/internal/ub"
	"github.com/trace2pass/cldiag/internal/versionbisect"
)

// State names the orchestrator's position in its monotonic sequence. The
// cascade only ever moves forward: UB -> VERSION -> PASS -> DONE.
type State int

const (
	StateUB State = iota
	StateVersion
	StatePass
	StateDone
)

func (s State) String() string {
	switch s {
	case StateUB:
		return "UB"
	case StateVersion:
		return "VERSION"
	case StatePass:
		return "PASS"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Event is broadcast on the orchestrator's event channel as each stage
// starts and finishes, for the optional live dashboard and for
// --watch-mode CLI output.
type Event struct {
	State   State
	Finding *stage.Finding // nil for a "started" event
}

// Orchestrator runs the cascade and assembles a Diagnosis.
type Orchestrator struct {
	provider toolchain.Provider
	step     *compile.Step
	cfg      *engine.Config
	events   chan<- Event
	logger   *log.Logger

	// stopAfter restricts a run to a prefix of the cascade: StateUB stops
	// after UB classification (ub-detect), StateVersion stops after version
	// bisection (version-bisect), and StateDone runs every stage.
	stopAfter State
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEventChannel sets the channel the orchestrator broadcasts Events on
// using a non-blocking send, so a slow consumer never stalls a diagnosis.
func WithEventChannel(ch chan<- Event) Option {
	return func(o *Orchestrator) { o.events = ch }
}

// WithLogger attaches a logger; nil keeps the orchestrator silent.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithStopAfter restricts the cascade to run only through the given state,
// inclusive. The default, StateDone, runs the full cascade.
func WithStopAfter(state State) Option {
	return func(o *Orchestrator) { o.stopAfter = state }
}

// New returns an Orchestrator wired to a toolchain provider, compile step,
// and engine configuration.
func New(provider toolchain.Provider, step *compile.Step, cfg *engine.Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{provider: provider, step: step, cfg: cfg, stopAfter: StateDone}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the cascade against repro and returns the assembled
// Diagnosis. The cascade stops early, with UBClassifier's or
// VersionBisector's verdict standing as the final one, whenever
// o.stopAfter names an earlier state than StateDone.
func (o *Orchestrator) Run(ctx context.Context, repro reproducer.Reproducer, judge oracle.Oracle, testTimeout time.Duration, workDir string) (Diagnosis, error) {
	if err := repro.Validate(); err != nil {
		return Diagnosis{}, err
	}

	diag := Diagnosis{Reproducer: repro, StartedAt: o.now()}

	ubFinding, err := o.runUB(ctx, repro, judge, testTimeout)
	if err != nil {
		return Diagnosis{}, fmt.Errorf("diagnose: UB stage: %w", err)
	}
	diag.UB = ubFinding
	diag.FinalVerdict = ubFinding.Verdict
	diag.FinalConfidence = ubFinding.Confidence

	if o.stopAfter == StateUB || ubFinding.Verdict != "compiler_bug" {
		diag.FinishedAt = o.now()
		o.emit(StateDone, nil)
		return diag, nil
	}

	versionResult, versionFinding, err := o.runVersion(ctx, repro, judge, testTimeout)
	if err != nil {
		return diag, fmt.Errorf("diagnose: version-bisection stage: %w", err)
	}
	diag.Version = versionFinding
	if versionFinding.Verdict == "regression_bisected" {
		diag.FinalVerdict = "compiler_regression"
		diag.FinalConfidence = versionFinding.Confidence
	}

	if o.stopAfter == StateVersion || versionFinding.Verdict != "regression_bisected" {
		diag.FinishedAt = o.now()
		o.emit(StateDone, nil)
		return diag, nil
	}

	passFinding, err := o.runPass(ctx, repro, versionResult.FirstBadVersion, judge, testTimeout, workDir)
	if err != nil {
		return diag, fmt.Errorf("diagnose: pass-bisection stage: %w", err)
	}
	diag.Pass = passFinding
	if passFinding.Verdict == "pass_bisected" {
		diag.FinalVerdict = "compiler_regression"
		diag.FinalConfidence = passFinding.Confidence
		diag.CulpritPass = passFinding.CulpritPass
	}

	diag.FinishedAt = o.now()
	o.emit(StateDone, nil)
	return diag, nil
}

func (o *Orchestrator) runUB(ctx context.Context, repro reproducer.Reproducer, judge oracle.Oracle, testTimeout time.Duration) (stage.Finding, error) {
	o.emit(StateUB, nil)
	classifier := ub.NewClassifier(o.step, o.provider, o.cfg.ConfidenceWeights, o.cfg.Versions.Seed)
	finding, err := classifier.Classify(ctx, repro, judge, testTimeout)
	if err != nil {
		return stage.Finding{}, err
	}
	o.log("UB classification complete", "verdict", finding.Verdict, "confidence", finding.Confidence)
	o.emit(StateUB, &finding)
	return finding, nil
}

func (o *Orchestrator) runVersion(ctx context.Context, repro reproducer.Reproducer, judge oracle.Oracle, testTimeout time.Duration) (versionbisect.Result, stage.Finding, error) {
	o.emit(StateVersion, nil)
	bisector := versionbisect.NewBisector(o.step, o.provider, o.cfg.Versions.Seed)
	result, finding, err := bisector.Bisect(ctx, repro, judge, testTimeout)
	if err != nil {
		return versionbisect.Result{}, stage.Finding{}, err
	}
	o.log("version bisection complete", "first_bad", result.FirstBadVersion, "last_good", result.LastGoodVersion)
	o.emit(StateVersion, &finding)
	return result, finding, nil
}

func (o *Orchestrator) runPass(ctx context.Context, repro reproducer.Reproducer, version string, judge oracle.Oracle, testTimeout time.Duration, workDir string) (stage.Finding, error) {
	o.emit(StatePass, nil)
	handle, err := o.provider.Resolve(ctx, version)
	if err != nil {
		return stage.Finding{}, err
	}
	optBin := toolchain.DeriveOptBinary(handle.Executable)
	bisector := passbisect.NewBisector(handle, handle.Executable, optBin, workDir, time.Duration(o.cfg.Budgets.CompileTimeoutSeconds)*time.Second)
	_, finding, err := bisector.Bisect(ctx, repro, optLevelOrDefault(repro.OptLevel), judge, testTimeout)
	if err != nil {
		return stage.Finding{}, err
	}
	o.log("pass bisection complete", "culprit", finding.CulpritPass)
	o.emit(StatePass, &finding)
	return finding, nil
}

func (o *Orchestrator) emit(state State, finding *stage.Finding) {
	if o.events == nil {
		return
	}
	select {
	case o.events <- Event{State: state, Finding: finding}:
	default:
	}
}

func (o *Orchestrator) log(msg string, keyvals ...interface{}) {
	if o.logger != nil {
		o.logger.Debug(msg, keyvals...)
	}
}

func (o *Orchestrator) now() time.Time { return time.Now() }

func optLevelOrDefault(level string) string {
	if level == "" {
		return "2"
	}
	if level[0] == 'O' {
		return level[1:]
	}
	return level
}
