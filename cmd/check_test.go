package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFixturePasses(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	ok, err := checkFixture(&out, filepath.Join("..", "frontend", "fixture", "testdata", "unreachable.yaml"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "warning (W0001)")
	assert.Contains(t, out.String(), "ok ")
}

func TestCheckFixtureWithoutExpect(t *testing.T) {
	color.NoColor = true
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	src := "items: [{kind: fn, name: main, output: i32}]\nbody: {owner: main, tail: true}\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	var out bytes.Buffer
	ok, err := checkFixture(&out, path)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, out.String(), "error (E0308)")
	assert.Contains(t, out.String(), "FAIL")
}

func TestCheckFixtureLoadError(t *testing.T) {
	_, err := checkFixture(&bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
