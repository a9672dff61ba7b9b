// Package stage defines StageFinding, the common result record every
// cascade stage (UB classification, version bisection, pass bisection)
// produces. Keeping it in its own leaf package lets the stage
// implementations and the orchestrator that sequences them depend on a
// shared vocabulary without importing each other.
package stage

// Name identifies which cascade stage produced a StageFinding.
type Name string

const (
	NameUB      Name = "ub_classification"
	NameVersion Name = "version_bisection"
	NamePass    Name = "pass_bisection"
)

// Finding is the outcome of one cascade stage. Fields not relevant to a
// given stage are left zero; Evidence always carries a human-readable
// account of how Verdict/Confidence were reached.
type Finding struct {
	Stage      Name
	Verdict    string // e.g. "compiler_bug", "user_ub", "inconclusive"
	Confidence float64

	// FirstBadVersion and LastGoodVersion are populated by version
	// bisection.
	FirstBadVersion string
	LastGoodVersion string

	// CulpritPass and PipelineContext are populated by pass bisection.
	CulpritPass     string
	PipelineContext []string

	// Evidence is an ordered list of short human-readable notes explaining
	// how this finding was reached, rendered verbatim in reports.
	Evidence []string

	// AttemptsMade records how much work the stage did (compiles or runs
	// attempted), shown in each stage's section of the human report.
	AttemptsMade int
}
