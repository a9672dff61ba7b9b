package workdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesDirectoryWithPrefix(t *testing.T) {
	d, err := New("cldiag-test-")
	require.NoError(t, err)
	defer d.Close()

	info, err := os.Stat(d.Path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Contains(t, filepath.Base(d.Path), "cldiag-test-")
}

func TestDir_Close_RemovesContents(t *testing.T) {
	d, err := New("cldiag-test-")
	require.NoError(t, err)

	nested := filepath.Join(d.Path, "nested.txt")
	require.NoError(t, os.WriteFile(nested, []byte("x"), 0o644))

	require.NoError(t, d.Close())

	_, err = os.Stat(d.Path)
	assert.True(t, os.IsNotExist(err), "Close must remove the directory and its contents")
}

func TestDir_Close_Idempotent(t *testing.T) {
	d, err := New("cldiag-test-")
	require.NoError(t, err)

	require.NoError(t, d.Close())
	assert.NoError(t, d.Close(), "a second Close call must be a no-op, not an error")
}
