package trash

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/ark/pkg/ark/manifest"
	"github.com/jamesainslie/ark/pkg/ark/types"
)

func TestDelete(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "fallback_test.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("fallback test"), 0o644))

	require.NoError(t, Delete(context.Background(), tmpFile))

	_, err := os.Stat(tmpFile)
	assert.True(t, os.IsNotExist(err))
}

func TestDelete_Directory(t *testing.T) {
	testDir := filepath.Join(t.TempDir(), "fallback_dir")
	require.NoError(t, os.Mkdir(testDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(testDir, "file.txt"), []byte("content"), 0o644))

	require.NoError(t, Delete(context.Background(), testDir))

	_, err := os.Stat(testDir)
	assert.True(t, os.IsNotExist(err))
}

func TestMoveToTrash_NonexistentFile(t *testing.T) {
	err := MoveToTrash(context.Background(), filepath.Join(t.TempDir(), "nonexistent.txt"))
	assert.Error(t, err)
}

func TestMoveToTrash(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("system trash not available")
	}
	tmpFile := filepath.Join(t.TempDir(), "trash_test.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0o644))

	require.NoError(t, MoveToTrash(context.Background(), tmpFile))

	_, err := os.Stat(tmpFile)
	assert.True(t, os.IsNotExist(err))
}

// copiedRun lays out a destination the way a copy run leaves it.
func copiedRun(t *testing.T) (*manifest.Record, string) {
	t.Helper()
	dest := t.TempDir()
	rec := manifest.NewRecord(dest, 3, types.CopyOptions{EmbedOriginalPath: true}, []string{"Images", "Vector"})

	place := func(rel string) string {
		path := filepath.Join(dest, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		return path
	}

	a := place("Images/a.jpg")
	place("Images/a.jpg.origin.txt")
	rec.AddCopied(types.FileRecord{Path: "/src/a.jpg", Size: 1, Category: "Images"}, a)

	b := place("Vector/b.svg")
	rec.AddCopied(types.FileRecord{Path: "/src/b.svg", Size: 1, Category: "Vector"}, b)

	rec.AddFailed(types.FileRecord{Path: "/src/c.jpg"}, errors.New("permission denied"))

	_, err := manifest.Write(dest, rec)
	require.NoError(t, err)
	return rec, dest
}

func TestUndo(t *testing.T) {
	rec, dest := copiedRun(t)

	res, err := Undo(context.Background(), rec, UndoOptions{Remove: Delete})
	require.NoError(t, err)

	assert.Len(t, res.Removed, 2)
	assert.Empty(t, res.Missing)
	assert.Empty(t, res.Failed)
	assert.True(t, res.ManifestRemoved)

	assert.NoFileExists(t, filepath.Join(dest, "Images", "a.jpg"))
	assert.NoFileExists(t, filepath.Join(dest, "Images", "a.jpg.origin.txt"))
	assert.NoDirExists(t, filepath.Join(dest, "Images"))
	assert.NoDirExists(t, filepath.Join(dest, "Vector"))
	assert.NoFileExists(t, filepath.Join(dest, manifest.FileName))
	assert.DirExists(t, dest)
}

func TestUndo_KeepsLaterRunManifest(t *testing.T) {
	first, dest := copiedRun(t)

	later := manifest.NewRecord(dest, 1, types.CopyOptions{}, []string{"Images"})
	b := filepath.Join(dest, "Images", "b.jpg")
	require.NoError(t, os.WriteFile(b, []byte("later"), 0o644))
	later.AddCopied(types.FileRecord{Path: "/src/b.jpg", Size: 5, Category: "Images"}, b)
	_, err := manifest.Write(dest, later)
	require.NoError(t, err)

	res, err := Undo(context.Background(), first, UndoOptions{Remove: Delete})
	require.NoError(t, err)

	assert.False(t, res.ManifestRemoved)
	assert.NoFileExists(t, filepath.Join(dest, "Images", "a.jpg"))
	assert.FileExists(t, b)

	current, err := manifest.Read(dest)
	require.NoError(t, err)
	assert.Equal(t, later.ID, current.ID)
}

func TestUndo_KeepsForeignFiles(t *testing.T) {
	rec, dest := copiedRun(t)
	other := filepath.Join(dest, "Images", "mine.jpg")
	require.NoError(t, os.WriteFile(other, []byte("keep"), 0o644))

	_, err := Undo(context.Background(), rec, UndoOptions{Remove: Delete})
	require.NoError(t, err)

	assert.FileExists(t, other)
	assert.NoDirExists(t, filepath.Join(dest, "Vector"))
}

func TestUndo_DryRun(t *testing.T) {
	rec, dest := copiedRun(t)

	res, err := Undo(context.Background(), rec, UndoOptions{DryRun: true, Remove: Delete})
	require.NoError(t, err)

	assert.Len(t, res.Removed, 2)
	assert.FileExists(t, filepath.Join(dest, "Images", "a.jpg"))
	assert.FileExists(t, filepath.Join(dest, manifest.FileName))
}

func TestUndo_MissingAndFailed(t *testing.T) {
	rec, dest := copiedRun(t)
	require.NoError(t, os.Remove(filepath.Join(dest, "Vector", "b.svg")))

	failing := func(ctx context.Context, path string) error {
		if filepath.Base(path) == "a.jpg" {
			return errors.New("busy")
		}
		return Delete(ctx, path)
	}

	res, err := Undo(context.Background(), rec, UndoOptions{Remove: failing})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dest, "Vector", "b.svg")}, res.Missing)
	assert.Contains(t, res.Failed, filepath.Join(dest, "Images", "a.jpg"))
	assert.False(t, res.ManifestRemoved)
	assert.FileExists(t, filepath.Join(dest, manifest.FileName))
}

func TestUndo_RefusesOutsideDestination(t *testing.T) {
	dest := t.TempDir()
	outside := filepath.Join(t.TempDir(), "victim.jpg")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	rec := manifest.NewRecord(dest, 1, types.CopyOptions{}, []string{"Images"})
	rec.AddCopied(types.FileRecord{Path: "/src/victim.jpg", Category: "Images"}, outside)

	res, err := Undo(context.Background(), rec, UndoOptions{Remove: Delete})
	require.NoError(t, err)

	assert.Contains(t, res.Failed, outside)
	assert.FileExists(t, outside)
}

func TestWithin(t *testing.T) {
	assert.True(t, within("/dest", "/dest/Images/a.jpg"))
	assert.False(t, within("/dest", "/dest"))
	assert.False(t, within("/dest", "/other/a.jpg"))
	assert.False(t, within("/dest", "/dest/../etc/passwd"))
	assert.True(t, within("/dest", "/dest/..hidden/a.jpg"))
}
