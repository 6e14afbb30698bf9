package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/ark/pkg/ark/manifest"
	"github.com/jamesainslie/ark/pkg/ark/types"
)

// harvestFixture builds a source tree with one large photo, one small photo
// and one ignored file, and a config whose history lives under the temp home.
func harvestFixture(t *testing.T) (src, dest, history string) {
	t.Helper()
	home := isolateHome(t)
	history = filepath.Join(home, "history")
	writeConfigFile(t, home, "history:\n  path: "+history+"\nlogging:\n  path: "+filepath.Join(home, "ark.log")+"\n")

	src = filepath.Join(home, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "trip"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "trip", "beach.jpg"), bytes.Repeat([]byte("j"), 64*1024), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "thumb.jpg"), []byte("tiny"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.bin"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "node_modules", "logo.jpg"), bytes.Repeat([]byte("n"), 64*1024), 0o644))

	return src, filepath.Join(home, "backup"), history
}

func TestRunPlainCopiesMatches(t *testing.T) {
	src, dest, history := harvestFixture(t)
	setFlag(t, "quiet", true)

	job, err := newRunJob(currentConfig(), []string{src, dest})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, job.runPlain(context.Background(), &out))

	copied, err := os.ReadFile(filepath.Join(dest, "Images", "beach.jpg"))
	require.NoError(t, err)
	assert.Len(t, copied, 64*1024)

	_, err = os.Stat(filepath.Join(dest, "Images", "thumb.jpg"))
	assert.True(t, os.IsNotExist(err), "files under the size threshold stay behind")
	_, err = os.Stat(filepath.Join(dest, "Images", "logo.jpg"))
	assert.True(t, os.IsNotExist(err), "excluded directories are not scanned")

	rec, err := manifest.Read(dest)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CopiedFiles)
	assert.Equal(t, filepath.Join(src, "trip", "beach.jpg"), rec.Files[0].Original)

	records, err := manifest.NewHistory(history)
	require.NoError(t, err)
	list, err := records.List(0)
	require.NoError(t, err)
	assert.Len(t, list, 1, "run should be archived in history")
}

func TestRunPlainNothingMatched(t *testing.T) {
	src, dest, _ := harvestFixture(t)
	setFlag(t, "category", []string{"audio"})

	job, err := newRunJob(currentConfig(), []string{src, dest})
	require.NoError(t, err)
	require.NoError(t, job.runPlain(context.Background(), &bytes.Buffer{}))

	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err), "nothing to copy means the destination is left alone")
}

func TestRunPlainCancelled(t *testing.T) {
	src, dest, _ := harvestFixture(t)

	job, err := newRunJob(currentConfig(), []string{src, dest})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, job.runPlain(ctx, &bytes.Buffer{}), errRunCancelled)
}

func TestNewRunJobRejectsSameDirectory(t *testing.T) {
	src, _, _ := harvestFixture(t)

	_, err := newRunJob(currentConfig(), []string{src, src})
	assert.ErrorContains(t, err, "must differ")

	_, err = newRunJob(currentConfig(), []string{filepath.Join(src, "missing"), src})
	assert.ErrorContains(t, err, "does not exist")
}

func TestCopierOptions(t *testing.T) {
	home := t.TempDir()
	cfg := loadTestConfig(t, "copy:\n  batch_size: 7\nhistory:\n  path: "+filepath.Join(home, "h")+"\n")

	opts, err := copierOptions(cfg, "/dest", nil)
	require.NoError(t, err)
	assert.Equal(t, "/dest", opts.Destination)
	assert.Equal(t, 7, opts.BatchSize)
	assert.True(t, opts.Lock)
	assert.NotNil(t, opts.History)
	assert.False(t, opts.Copy.SubfolderByExt)

	setFlag(t, "no_lock", true)
	setFlag(t, "batch_size", 50)
	setFlag(t, "subfolder_by_ext", true)
	setFlag(t, "embed_origin", true)

	opts, err = copierOptions(cfg, "/dest", nil)
	require.NoError(t, err)
	assert.False(t, opts.Lock)
	assert.Equal(t, 50, opts.BatchSize)
	assert.True(t, opts.Copy.SubfolderByExt)
	assert.True(t, opts.Copy.EmbedOriginalPath)
}

func TestCopierOptionsHistoryDisabled(t *testing.T) {
	cfg := loadTestConfig(t, "history:\n  enabled: false\n")

	opts, err := copierOptions(cfg, "/dest", nil)
	require.NoError(t, err)
	assert.Nil(t, opts.History)
}

func TestCheckSpace(t *testing.T) {
	src, dest, _ := harvestFixture(t)
	job, err := newRunJob(currentConfig(), []string{src, dest})
	require.NoError(t, err)

	small := []types.FileRecord{{Size: 10}}
	assert.NoError(t, job.checkSpace(small))

	huge := []types.FileRecord{{Size: 1 << 62}}
	err = job.checkSpace(huge)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	setFlag(t, "force", true)
	assert.NoError(t, job.checkSpace(huge))
}

func TestOutcomeError(t *testing.T) {
	tests := []struct {
		name    string
		res     *types.CopyResult
		wantErr error
		want    string
	}{
		{name: "clean", res: &types.CopyResult{Success: true, Copied: 3, Total: 3}},
		{name: "cancelled", res: &types.CopyResult{Cancelled: true}, wantErr: errRunCancelled},
		{
			name: "errors",
			res:  &types.CopyResult{Success: true, Copied: 1, Errors: 2, Total: 3, ManifestPath: "/d/_manifest.json"},
			want: "2 of 3 files failed to copy (see /d/_manifest.json)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := outcomeError(tt.res)
			switch {
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			case tt.want != "":
				assert.EqualError(t, err, tt.want)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestRenderSummary(t *testing.T) {
	res := &types.CopyResult{
		Success:      true,
		Copied:       4,
		Total:        5,
		Errors:       1,
		BytesCopied:  3 * types.MiB,
		ManifestPath: "/backup/_manifest.json",
		Elapsed:      1500 * time.Millisecond,
	}

	got := renderSummary(res)
	for _, want := range []string{"Run finished with errors", "4 of 5", "3.0 MiB", "/backup/_manifest.json"} {
		assert.Contains(t, got, want)
	}

	res.Cancelled = true
	assert.Contains(t, renderSummary(res), "Run cancelled")

	clean := renderSummary(&types.CopyResult{Success: true, Copied: 1, Total: 1})
	assert.Contains(t, clean, "Run complete")
	assert.NotContains(t, clean, "Manifest")
}

func TestInsideDir(t *testing.T) {
	tests := []struct {
		dir, path string
		want      bool
	}{
		{"/src", "/src/backup", true},
		{"/src", "/src/a/b", true},
		{"/src", "/src", false},
		{"/src", "/srcx", false},
		{"/src", "/backup", false},
		{"/src/a", "/src", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, insideDir(tt.dir, tt.path), "insideDir(%q, %q)", tt.dir, tt.path)
	}
}

func TestRunQuietUsesPlainMode(t *testing.T) {
	src, dest, _ := harvestFixture(t)
	setFlag(t, "quiet", true)

	var out bytes.Buffer
	runCmd.SetOut(&out)
	t.Cleanup(func() { runCmd.SetOut(nil) })

	require.NoError(t, runRun(runCmd, []string{src, dest}))
	assert.False(t, strings.Contains(out.String(), "Run complete"), "quiet mode prints no summary")

	_, err := os.Stat(filepath.Join(dest, "Images", "beach.jpg"))
	assert.NoError(t, err)
}
