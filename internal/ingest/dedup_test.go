package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupKey_IgnoresFlagOrder(t *testing.T) {
	a := AnomalyReport{File: "a.c", Line: 10, Function: "f", CheckType: "compiler_bug", CompilerVersion: "18.1.0", Flags: []string{"-O2", "-Wall"}}
	b := a
	b.Flags = []string{"-Wall", "-O2"}

	keyA, err := DedupKey(a)
	require.NoError(t, err)
	keyB, err := DedupKey(b)
	require.NoError(t, err)

	assert.Equal(t, keyA, keyB)
}

func TestDedupKey_IgnoresTimestampAndFrequency(t *testing.T) {
	a := AnomalyReport{File: "a.c", Line: 10, CheckType: "ice", CompilerVersion: "18.1.0", Frequency: 1}
	b := a
	b.Frequency = 99

	keyA, err := DedupKey(a)
	require.NoError(t, err)
	keyB, err := DedupKey(b)
	require.NoError(t, err)

	assert.Equal(t, keyA, keyB)
}

func TestDedupKey_DiffersOnIdentityFields(t *testing.T) {
	base := AnomalyReport{File: "a.c", Line: 10, Function: "f", CheckType: "compiler_bug", CompilerVersion: "18.1.0"}
	baseKey, err := DedupKey(base)
	require.NoError(t, err)

	variants := []AnomalyReport{
		{File: "b.c", Line: 10, Function: "f", CheckType: "compiler_bug", CompilerVersion: "18.1.0"},
		{File: "a.c", Line: 11, Function: "f", CheckType: "compiler_bug", CompilerVersion: "18.1.0"},
		{File: "a.c", Line: 10, Function: "g", CheckType: "compiler_bug", CompilerVersion: "18.1.0"},
		{File: "a.c", Line: 10, Function: "f", CheckType: "user_ub", CompilerVersion: "18.1.0"},
		{File: "a.c", Line: 10, Function: "f", CheckType: "compiler_bug", CompilerVersion: "17.0.1"},
	}
	for _, v := range variants {
		key, err := DedupKey(v)
		require.NoError(t, err)
		assert.NotEqual(t, baseKey, key, "%+v should hash differently than base", v)
	}
}
