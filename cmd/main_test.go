package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeCommand(t *testing.T) {
	root := t.TempDir()
	state := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "z_DELETE_20230501123000.mov"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.mov"), nil, 0o644))

	err := newApp().Run([]string{
		"go-photofix",
		"--log-dir", filepath.Join(state, "logs"),
		"--journal", filepath.Join(state, "journal.db"),
		"purge", root,
	})
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(root, "z_DELETE_20230501123000.mov"))
	assert.FileExists(t, filepath.Join(root, "keep.mov"))

	logs, err := os.ReadDir(filepath.Join(state, "logs"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestPurgeCommandDryRun(t *testing.T) {
	root := t.TempDir()
	state := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "z_DELETE_20230501123000.mov"), nil, 0o644))

	err := newApp().Run([]string{
		"go-photofix",
		"--log-dir", filepath.Join(state, "logs"),
		"--no-journal",
		"--dry-run",
		"purge", root,
	})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, "z_DELETE_20230501123000.mov"))
}
