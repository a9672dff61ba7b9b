// Package ingest stores and prioritizes AnomalyReport records — the raw
// signals a fuzzer or CI job emits when it suspects a miscompilation — ahead
// of a full diagnosis cascade being run against them.
package ingest

import "time"

// AnomalyReport is a single raw signal: a crash or divergence observed at a
// specific source location under a specific compiler version and flag set.
// Many reports can describe the same underlying bug; DedupKey identifies
// when two reports are the same observation seen twice.
type AnomalyReport struct {
	File            string
	Line            int
	Function        string
	CheckType       string // "compiler_bug", "user_ub", "ice", "unclassified"
	CompilerVersion string
	Flags           []string
	SourcePath      string
	Stdin           string
	ExpectedStdout  string
	FirstSeen       time.Time
	LastSeen        time.Time
	Frequency       int
}
