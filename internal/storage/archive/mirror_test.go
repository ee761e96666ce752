package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/newthinker/fundwatch/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	writes atomic.Int32
}

func (f *failingStore) Name() string { return "failing" }

func (f *failingStore) Write(ctx context.Context, path string, data []byte) error {
	f.writes.Add(1)
	return errors.New("disk full")
}

func TestMirror_PublishesToEveryStore(t *testing.T) {
	dirs := []string{filepath.Join(t.TempDir(), "data"), filepath.Join(t.TempDir(), "public", "data")}
	var stores []Storage
	for _, dir := range dirs {
		fs, err := NewLocalFS(dir)
		require.NoError(t, err)
		stores = append(stores, fs)
	}

	m := NewMirror(nil, stores...)
	require.NoError(t, m.Publish(context.Background(), "global_assets.json", []byte(`{"ok":true}`)))

	for _, dir := range dirs {
		got, err := os.ReadFile(filepath.Join(dir, "global_assets.json"))
		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, string(got))
	}
}

func TestMirror_FailureStillWritesOtherStores(t *testing.T) {
	dir := t.TempDir()
	good, err := NewLocalFS(dir)
	require.NoError(t, err)
	bad := &failingStore{}

	err = NewMirror(nil, bad, good).Publish(context.Background(), "funds.json", []byte("{}"))
	assert.True(t, errors.Is(err, core.ErrStorageFailed))
	assert.Contains(t, err.Error(), "disk full")

	_, statErr := os.Stat(filepath.Join(dir, "funds.json"))
	assert.NoError(t, statErr)
	assert.Equal(t, int32(1), bad.writes.Load())
}

func TestMirror_NoStores(t *testing.T) {
	err := NewMirror(nil).Publish(context.Background(), "funds.json", []byte("{}"))
	assert.True(t, errors.Is(err, core.ErrConfigMissing))
}
