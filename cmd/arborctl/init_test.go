package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCmd(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "trees")

	out, err := runCtl(t, "init", "--dir", dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Contains(t, out, "0 existing tree(s)")

	seedTree(t, dir, "demo", []string{"1", "2"})

	out, err = runCtl(t, "init", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 existing tree(s)")
}

func TestInitCmd_ConfigFile(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "from-config")

	cfgPath := filepath.Join(base, "arbor.yaml")
	cfg := "directory: " + dir + "\nmax_memory_mb: 64\ncompression: zstd\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	out, err := runCtl(t, "init", "--config", cfgPath)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Contains(t, out, "initialized "+dir)
}

func TestInitCmd_FlagOverridesConfig(t *testing.T) {
	base := t.TempDir()
	cfgPath := filepath.Join(base, "arbor.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("directory: "+filepath.Join(base, "ignored")+"\n"), 0o644))

	dir := filepath.Join(base, "from-flag")
	out, err := runCtl(t, "init", "--config", cfgPath, "--dir", dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Contains(t, out, "initialized "+dir)
}

func TestInitCmd_BadConfig(t *testing.T) {
	base := t.TempDir()
	cfgPath := filepath.Join(base, "arbor.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{{not yaml"), 0o644))

	_, err := runCtl(t, "init", "--config", cfgPath)
	assert.ErrorContains(t, err, "parse config")
}

func TestInitCmd_NonPositiveMemory(t *testing.T) {
	_, err := runCtl(t, "init", "--dir", t.TempDir(), "--max-memory-mb", "0")
	assert.ErrorContains(t, err, "must be positive")
}
