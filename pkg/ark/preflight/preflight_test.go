package preflight

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/ark/pkg/ark/types"
)

func stubSpace(t *testing.T, free int64) *string {
	t.Helper()
	var measured string
	orig := statfs
	statfs = func(dir string) (Space, error) {
		measured = dir
		return Space{Total: 2 * free, Free: free}, nil
	}
	t.Cleanup(func() { statfs = orig })
	return &measured
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		free    int64
		need    int64
		wantErr bool
	}{
		{name: "plenty", free: types.GiB, need: types.MiB},
		{name: "exact with headroom", free: types.MiB + Headroom, need: types.MiB},
		{name: "short by headroom", free: types.MiB, need: types.MiB, wantErr: true},
		{name: "nothing needed", free: Headroom, need: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubSpace(t, tt.free)
			err := Check(t.TempDir(), tt.need)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInsufficientSpace)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFreeSpace_MissingDestination(t *testing.T) {
	measured := stubSpace(t, types.GiB)
	parent := t.TempDir()

	_, err := FreeSpace(filepath.Join(parent, "not", "yet", "created"))
	require.NoError(t, err)
	assert.Equal(t, parent, *measured)
}

func TestFreeSpace_Real(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		_, err := FreeSpace(t.TempDir())
		assert.True(t, errors.Is(err, ErrUnsupported))
		return
	}
	space, err := FreeSpace(t.TempDir())
	require.NoError(t, err)
	assert.Positive(t, space.Total)
	assert.LessOrEqual(t, space.Free, space.Total)
}

func TestNeed(t *testing.T) {
	files := []types.FileRecord{{Size: 10}, {Size: 20}, {Size: 5}}
	assert.Equal(t, int64(35), Need(files))
	assert.Zero(t, Need(nil))
}
