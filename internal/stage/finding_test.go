package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinding_ZeroValueIsUsable(t *testing.T) {
	var f Finding
	assert.Empty(t, f.Verdict)
	assert.Zero(t, f.Confidence)
	assert.Nil(t, f.Evidence)
}

func TestFinding_NamesAreDistinct(t *testing.T) {
	names := []Name{NameUB, NameVersion, NamePass}
	seen := make(map[Name]bool, len(names))
	for _, n := range names {
		assert.False(t, seen[n], "stage name %q must be unique", n)
		seen[n] = true
	}
}

func TestFinding_CarriesBisectionFields(t *testing.T) {
	f := Finding{
		Stage:           NameVersion,
		Verdict:         "compiler_bug",
		Confidence:      0.82,
		FirstBadVersion: "18.1.0",
		LastGoodVersion: "17.0.1",
		Evidence:        []string{"bisected across 8 versions"},
		AttemptsMade:    3,
	}

	assert.Equal(t, NameVersion, f.Stage)
	assert.Equal(t, "18.1.0", f.FirstBadVersion)
	assert.Equal(t, "17.0.1", f.LastGoodVersion)
	assert.Len(t, f.Evidence, 1)
	assert.Equal(t, 3, f.AttemptsMade)
}

func TestFinding_CarriesPassBisectionFields(t *testing.T) {
	f := Finding{
		Stage:           NamePass,
		Verdict:         "compiler_bug",
		CulpritPass:     "instcombine",
		PipelineContext: []string{"mem2reg", "instcombine", "gvn"},
	}

	assert.Equal(t, "instcombine", f.CulpritPass)
	assert.Equal(t, []string{"mem2reg", "instcombine", "gvn"}, f.PipelineContext)
}
