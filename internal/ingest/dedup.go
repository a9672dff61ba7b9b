package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/hashstructure/v2"
)

// dedupFields is the subset of an AnomalyReport that defines its identity:
// two reports with the same file, line, function, check type, compiler
// version, and flag set (order-independent) describe the same observation.
type dedupFields struct {
	File            string
	Line            int
	Function        string
	CheckType       string
	CompilerVersion string
	Flags           string
}

// DedupKey returns a stable identity hash for r, computed over (file, line,
// function, check_type, compiler_version, sorted_flags). Two reports that
// differ only in timestamp or frequency hash identically.
func DedupKey(r AnomalyReport) (uint64, error) {
	sorted := append([]string(nil), r.Flags...)
	sort.Strings(sorted)
	fields := dedupFields{
		File:            r.File,
		Line:            r.Line,
		Function:        r.Function,
		CheckType:       r.CheckType,
		CompilerVersion: r.CompilerVersion,
		Flags:           strings.Join(sorted, "\x1f"),
	}
	hash, err := hashstructure.Hash(fields, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("ingest: hashing dedup key: %w", err)
	}
	return hash, nil
}
