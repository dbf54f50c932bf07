package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAttachment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "avatar.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50, 0x4e, 0x47}, 0o600))

	a, err := LoadAttachment(path)
	require.NoError(t, err)
	require.Equal(t, "avatar.png", a.Name)
	require.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, a.Data)
}

func TestLoadAttachment_Missing(t *testing.T) {
	_, err := LoadAttachment(filepath.Join(t.TempDir(), "nope.bin"))
	require.Error(t, err)
}

func TestEnsureSubDir(t *testing.T) {
	orig, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(orig) })
	require.NoError(t, os.Chdir(t.TempDir()))

	dir, err := EnsureSubDir("uploads")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
