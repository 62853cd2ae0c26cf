package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It returns the absolute path to the temp dir and the initialized repository.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// WriteFiles seeds dir with the given name -> content pairs.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Failed to write %s", name)
	}
}

// KnowledgeDir returns a temp directory holding a small set of destination guides.
func KnowledgeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	WriteFiles(t, dir, map[string]string{
		"kyoto.md": `---
id: kyoto
name: Kyoto
aliases: [京都, Kyoto City]
region: Kansai
---
Kyoto was the imperial capital for over a thousand years.

## Temples
Kiyomizu-dera, Fushimi Inari and Kinkaku-ji.

## Food
Yudofu, kaiseki and matcha sweets in Uji.`,
		"osaka.md": `---
id: osaka
name: Osaka
aliases: [大阪]
region: Kansai
---
Osaka is known as the kitchen of Japan.`,
	})
	return dir
}
