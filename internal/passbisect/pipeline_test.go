package passbisect

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePipeline_FlatList(t *testing.T) {
	got := parsePipeline("mem2reg,instcombine,gvn")
	assert.Equal(t, []string{"mem2reg", "instcombine", "gvn"}, got)
}

func TestParsePipeline_KeepsNestedGroupsIntact(t *testing.T) {
	got := parsePipeline("mem2reg,function(instcombine,simplifycfg),gvn")
	assert.Equal(t, []string{"mem2reg", "function(instcombine,simplifycfg)", "gvn"}, got)
}

func TestParsePipeline_MultipleBracketStyles(t *testing.T) {
	got := parsePipeline("require<profile-summary>,cgscc(inline),loop-mssa<rotate>")
	assert.Equal(t, []string{"require<profile-summary>", "cgscc(inline)", "loop-mssa<rotate>"}, got)
}

func TestParsePipeline_EmptyString(t *testing.T) {
	assert.Nil(t, parsePipeline(""))
}

func TestParsePipeline_TrimsWhitespace(t *testing.T) {
	got := parsePipeline(" mem2reg , instcombine ")
	assert.Equal(t, []string{"mem2reg", "instcombine"}, got)
}

func fakeOptPrintPipeline(t *testing.T, pipelineText string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script fake tools are not portable to windows")
	}
	path := filepath.Join(t.TempDir(), "fake-opt")
	script := "#!/bin/sh\necho '" + pipelineText + "'\nexit 0\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestExtractPipeline_ParsesToolOutput(t *testing.T) {
	opt := fakeOptPrintPipeline(t, "mem2reg,instcombine,gvn")
	ir := filepath.Join(t.TempDir(), "repro.ll")
	require.NoError(t, os.WriteFile(ir, []byte("; fake ir"), 0o644))

	passes, err := ExtractPipeline(context.Background(), opt, ir, "2", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"mem2reg", "instcombine", "gvn"}, passes)
}

func TestExtractPipeline_ToolFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake-opt")
	if runtime.GOOS == "windows" {
		t.Skip("shell-script fake tools are not portable to windows")
	}
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho 'bad pipeline' >&2\nexit 1\n"), 0o755))

	_, err := ExtractPipeline(context.Background(), path, "ir.ll", "2", time.Second)
	assert.Error(t, err)
}
