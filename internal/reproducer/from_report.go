package reproducer

import (
	"fmt"
	"strings"

	"github.com/trace2pass/cldiag/internal/ingest"
)

// FromAnomalyReport builds the Reproducer the analyze-report command feeds
// into a full cascade from a stored AnomalyReport. The report's compiler
// version seeds bisection via FirstKnownBadVersion.
func FromAnomalyReport(r ingest.AnomalyReport) (Reproducer, error) {
	if r.SourcePath == "" {
		return Reproducer{}, fmt.Errorf("reproducer: anomaly report has no source_path; cannot reconstruct a reproducer")
	}
	lang := "c"
	if strings.HasSuffix(r.SourcePath, ".cc") || strings.HasSuffix(r.SourcePath, ".cpp") || strings.HasSuffix(r.SourcePath, ".cxx") {
		lang = "c++"
	}
	return Reproducer{
		SourcePath:           r.SourcePath,
		Flags:                append([]string(nil), r.Flags...),
		Language:             lang,
		Stdin:                r.Stdin,
		ExpectedStdout:       r.ExpectedStdout,
		FirstKnownBadVersion: r.CompilerVersion,
	}, nil
}
