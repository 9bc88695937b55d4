package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailLog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "backend.log"), []byte("one\n\ntwo\nthree\n"), 0644))

	lines, err := TailLog(dir, "backend", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "three"}, lines)

	lines, err = TailLog(dir, "backend", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, lines)

	lines, err = TailLog(dir, "frontend", 10)
	require.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = TailLog("", "backend", 10)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
