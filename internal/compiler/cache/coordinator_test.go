package cache

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/stencil/internal/compiler"
)

func createTestFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCoordinator_CompileCachesResult(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := NewCoordinator(store, compiler.DefaultOptions(), nil)

	m, cached, err := c.Compile(ctx, "a.html", `<p>{{ msg }}</p>`)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "a.html", m.Filename)
	assert.NotEmpty(t, m.SourceHash)
	assert.Equal(t, 1, store.Size())

	again, cached, err := c.Compile(ctx, "a.html", `<p>{{ msg }}</p>`)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, m.ID, again.ID)
	assert.Equal(t, m.Summary, again.Summary)

	metrics := c.Metrics()
	assert.Equal(t, 1, metrics.CacheHits)
	assert.Equal(t, 1, metrics.CacheMisses)
	assert.InDelta(t, 50.0, metrics.CacheHitRate(), 0.001)
}

func TestCoordinator_KeyDependsOnOptionsAndSource(t *testing.T) {
	c := NewCoordinator(nil, compiler.DefaultOptions(), nil)
	opts := compiler.DefaultOptions()
	opts.HoistStatic = false
	other := NewCoordinator(nil, opts, nil)

	assert.Equal(t, c.Key("a.html", "<p/>"), c.Key("a.html", "<p/>"))
	assert.NotEqual(t, c.Key("a.html", "<p/>"), c.Key("a.html", "<div/>"))
	assert.NotEqual(t, c.Key("a.html", "<p/>"), c.Key("b.html", "<p/>"))
	assert.NotEqual(t, c.Key("a.html", "<p/>"), other.Key("a.html", "<p/>"))
}

func TestCoordinator_CollectsDiagnostics(t *testing.T) {
	c := NewCoordinator(nil, compiler.DefaultOptions(), nil)
	m, _, err := c.Compile(context.Background(), "bad.html", `<div v-if></div><input v-model>`)
	require.NoError(t, err)
	assert.True(t, m.HasErrors())
	assert.Len(t, m.Diagnostics, 2)
	for _, d := range m.Diagnostics {
		assert.Equal(t, "bad.html", d.File)
	}
	assert.Equal(t, 1, c.Metrics().Failed)
}

func TestCoordinator_CorruptEntryIsRecompiled(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := NewCoordinator(store, compiler.DefaultOptions(), nil)

	key := c.Key("a.html", "<p/>")
	require.NoError(t, store.Set(ctx, key, &Entry{Payload: []byte("garbage")}))

	m, cached, err := c.Compile(ctx, "a.html", "<p/>")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.True(t, m.Summary.Transformed)
}

func TestCoordinator_StoreFailureDoesNotFail(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	store := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "stencil:", 0)
	mr.Close()

	c := NewCoordinator(store, compiler.DefaultOptions(), nil)
	m, cached, err := c.Compile(context.Background(), "a.html", "<p/>")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.NotNil(t, m)
}

func TestCoordinator_RedisBackend(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	newCoordinator := func() *Coordinator {
		store := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "stencil:", 0)
		return NewCoordinator(store, compiler.DefaultOptions(), nil)
	}
	ctx := context.Background()

	_, cached, err := newCoordinator().Compile(ctx, "a.html", "<p>{{ a }}</p>")
	require.NoError(t, err)
	assert.False(t, cached)

	// a second process shares the entry
	_, cached, err = newCoordinator().Compile(ctx, "a.html", "<p>{{ a }}</p>")
	require.NoError(t, err)
	assert.True(t, cached)
}

func TestCoordinator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewCoordinator(nil, compiler.DefaultOptions(), nil).Compile(ctx, "a.html", "<p/>")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCoordinator_CompileFiles(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		createTestFile(t, dir, "a.html", `<p>{{ a }}</p>`),
		createTestFile(t, dir, "b.html", `<ul><li v-for="x in xs">{{ x }}</li></ul>`),
		createTestFile(t, dir, "c.html", `<div v-else/>`),
		filepath.Join(dir, "missing.html"),
	}

	for _, parallel := range []bool{false, true} {
		c := NewCoordinator(nil, compiler.DefaultOptions(), nil)
		c.SetWorkers(2)

		results, metrics := c.CompileFiles(context.Background(), paths, parallel)
		require.Len(t, results, 4)
		for i, r := range results {
			assert.Equal(t, paths[i], r.Path)
		}
		assert.NoError(t, results[0].Err)
		assert.False(t, results[0].Metadata.HasErrors())
		assert.True(t, results[2].Metadata.HasErrors())
		assert.Error(t, results[3].Err)

		assert.Equal(t, 4, metrics.TotalFiles)
		assert.Equal(t, 3, metrics.CacheMisses)
		assert.Equal(t, 3, metrics.FilesCompiled)
		assert.Equal(t, 2, metrics.Failed)

		results, metrics = c.CompileFiles(context.Background(), paths[:3], parallel)
		for _, r := range results {
			assert.True(t, r.Cached)
			assert.NotEmpty(t, r.Hash)
		}
		assert.Equal(t, 3, metrics.CacheHits)
	}
}

func TestCoordinator_InvalidateAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := NewCoordinator(store, compiler.DefaultOptions(), nil)

	_, _, _ = c.Compile(ctx, "a.html", "<p/>")
	_, _, _ = c.Compile(ctx, "b.html", "<p/>")
	require.NoError(t, c.Invalidate(ctx, "a.html", "<p/>"))
	assert.Equal(t, 1, store.Size())

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, store.Size())
	assert.Equal(t, 0, c.Metrics().CacheMisses)
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "a.html", "")
	createTestFile(t, dir, "views/b.tpl", "")
	createTestFile(t, dir, "views/c.vue.html", "")
	createTestFile(t, dir, "notes.md", "")
	createTestFile(t, dir, ".stencil/cache.html", "")

	files, err := ScanDirectory(dir, nil)
	require.NoError(t, err)
	sort.Strings(files)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.html"),
		filepath.Join(dir, "views", "b.tpl"),
		filepath.Join(dir, "views", "c.vue.html"),
	}, files)

	files, err = ScanDirectory(dir, []string{".tpl"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "views", "b.tpl")}, files)

	_, err = ScanDirectory(filepath.Join(dir, "missing"), nil)
	assert.Error(t, err)
}
