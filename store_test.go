package savannah

import (
	"context"
	"github.com/Andrei15193/Savannah-sub000/internal/filesystem"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var testClock = time.Date(2024, 5, 17, 8, 30, 0, 0, time.UTC)

type testOption func(cfg *Config)

func withHash(hash func(string) string) testOption {
	return func(cfg *Config) { cfg.Hash = hash }
}

func newTestStore(t *testing.T, opts ...testOption) *Store {
	t.Helper()
	cfg := &Config{
		RootDir: filepath.Join(t.TempDir(), "store"),
		Now:     func() time.Time { return testClock },
	}
	for _, opt := range opts {
		opt(cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(func() { require.NoError(t, s.Stop()) })
	return s
}

func TestNew(t *testing.T) {
	tests := map[string]struct {
		cfg      *Config
		expected string
	}{
		"no root": {
			cfg:      &Config{},
			expected: "root directory or file system is required",
		},
		"negative workers": {
			cfg:      &Config{RootDir: "x", ScanWorkers: -1},
			expected: "scan workers must not be negative",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(tc.cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.expected)
		})
	}
}

func TestStore_Start(t *testing.T) {
	req := require.New(t)
	root := filepath.Join(t.TempDir(), "store")
	reg := prometheus.NewRegistry()

	s, err := New(&Config{RootDir: root, Registerer: reg})
	req.NoError(err)
	req.NoDirExists(root)
	req.Equal("Savannah Store", s.Name())

	req.NoError(s.Start())
	req.DirExists(filepath.Join(root, filesystem.TempFolder))
	req.Error(s.Start())
	req.NoError(s.Stop())

	// leftovers of an interrupted merge
	for _, name := range []string{"a", "b"} {
		req.NoError(os.WriteFile(filepath.Join(root, filesystem.TempFolder, name), []byte("<Bucket>"), 0o644))
	}
	req.NoError(s.Start())
	entries, err := os.ReadDir(filepath.Join(root, filesystem.TempFolder))
	req.NoError(err)
	req.Empty(entries)
	req.Equal(float64(2), testutil.ToFloat64(s.Metrics().TempFilesSwept))
	req.NoError(s.Stop())
}

func TestStore_Collections(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	names, err := s.ListCollections(ctx)
	req.NoError(err)
	req.Empty(names)

	req.NoError(s.CreateCollection(ctx, "zebras"))
	req.ErrorIs(s.CreateCollection(ctx, "zebras"), ErrCollectionExists)
	req.True(IsConflict(s.CreateCollection(ctx, "zebras")))

	created, err := s.CreateCollectionIfNotExists(ctx, "lions")
	req.NoError(err)
	req.True(created)
	created, err = s.CreateCollectionIfNotExists(ctx, "lions")
	req.NoError(err)
	req.False(created)

	exists, err := s.CollectionExists(ctx, "lions")
	req.NoError(err)
	req.True(exists)
	exists, err = s.CollectionExists(ctx, "tigers")
	req.NoError(err)
	req.False(exists)

	names, err = s.ListCollections(ctx)
	req.NoError(err)
	req.Equal([]string{"lions", "zebras"}, names)

	req.NoError(s.DeleteCollection(ctx, "lions"))
	req.ErrorIs(s.DeleteCollection(ctx, "lions"), ErrCollectionNotFound)

	names, err = s.ListCollections(ctx)
	req.NoError(err)
	req.Equal([]string{"zebras"}, names)
}

func TestStore_InvalidCollectionName(t *testing.T) {
	ctrl := gomock.NewController(t)
	// no expectations: invalid names never reach the file system
	fsys := filesystem.NewMockFileSystem(ctrl)
	s, err := New(&Config{FS: fsys})
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"", "ab", "1abc", "has-dash", "a" + string(make([]byte, 63))} {
		require.ErrorIs(t, s.CreateCollection(ctx, name), ErrInvalidOperation)
		require.ErrorIs(t, s.DeleteCollection(ctx, name), ErrInvalidOperation)
		_, err := s.CollectionExists(ctx, name)
		require.ErrorIs(t, err, ErrInvalidOperation)
		_, err = Open[animal](s, name)
		require.ErrorIs(t, err, ErrInvalidOperation)
	}
}
