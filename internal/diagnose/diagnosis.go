package diagnose

import (
	"time"

	"github.com/trace2pass/cldiag/internal/reproducer"
	"github.com/trace2pass/cldiag/internal/stage"
)

// Diagnosis is the final, assembled result of running some or all of the
// cascade against a Reproducer. Stage fields are zero-valued when the
// cascade stopped before reaching them.
type Diagnosis struct {
	Reproducer reproducer.Reproducer

	UB      stage.Finding
	Version stage.Finding
	Pass    stage.Finding

	// FinalVerdict is whichever stage's verdict the cascade ultimately
	// settled on: "compiler_regression" once bisection found a culprit
	// version or pass; otherwise the UB stage's own verdict ("user_ub",
	// "inconclusive" or "compiler_bug").
	FinalVerdict    string
	FinalConfidence float64
	// CulpritPass is populated only when pass bisection ran and found one.
	CulpritPass string

	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the cascade ran.
func (d Diagnosis) Duration() time.Duration {
	if d.FinishedAt.IsZero() {
		return 0
	}
	return d.FinishedAt.Sub(d.StartedAt)
}

// RanVersionBisection reports whether the cascade progressed past UB
// classification.
func (d Diagnosis) RanVersionBisection() bool {
	return d.Version.Stage != ""
}

// RanPassBisection reports whether the cascade progressed all the way to
// pass bisection.
func (d Diagnosis) RanPassBisection() bool {
	return d.Pass.Stage != ""
}
