package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/config"
)

func TestWriteStarterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, writeStarterFile(path, "a: 1\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", string(data))
}

func TestWriteStarterFile_DoesNotOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("edited: true\n"), 0o644))

	require.NoError(t, writeStarterFile(path, "a: 1\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "edited: true\n", string(data))
}

func TestStarterCityFiles_Valid(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]struct {
		content    string
		name       string
		categories int
	}{
		"copenhagen.yaml": {starterCopenhagen, "copenhagen", 6},
		"berlin.yaml":     {starterBerlin, "berlin", 7},
	}

	for file, tc := range cases {
		path := filepath.Join(dir, file)
		require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

		city, err := config.LoadCity(path)
		require.NoError(t, err, file)
		assert.Equal(t, tc.name, city.Name)
		assert.Len(t, city.Categories, tc.categories)
	}
}
