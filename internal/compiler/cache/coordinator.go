package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/conduit-lang/stencil/internal/compiler"
	"github.com/conduit-lang/stencil/internal/compiler/metadata"
)

// DefaultExtensions are the template file extensions ScanDirectory picks up.
var DefaultExtensions = []string{".html", ".tpl", ".vue.html"}

// Metrics tracks compilation counts and durations
type Metrics struct {
	TotalFiles      int
	CacheHits       int
	CacheMisses     int
	FilesCompiled   int
	Failed          int
	TotalDuration   time.Duration
	CompileDuration time.Duration
	CachingDuration time.Duration
	StartTime       time.Time
	EndTime         time.Time
}

// CacheHitRate returns the cache hit rate as a percentage
func (m *Metrics) CacheHitRate() float64 {
	lookups := m.CacheHits + m.CacheMisses
	if lookups == 0 {
		return 0.0
	}
	return float64(m.CacheHits) / float64(lookups) * 100.0
}

// Result is the outcome of compiling one file
type Result struct {
	Path     string
	Metadata *metadata.Metadata
	Hash     string
	Cached   bool
	Err      error
}

// Coordinator compiles templates through a Store. Compilation runs in
// recovery mode, so a result carries every diagnostic rather than failing
// on the first one. Store failures are logged and never fail a compile.
type Coordinator struct {
	store   Store
	hasher  *Hasher
	opts    compiler.Options
	logger  *zap.Logger
	workers int

	metrics *Metrics
	mu      sync.Mutex
}

// NewCoordinator creates a coordinator. A nil store caches in memory and a
// nil logger discards logs.
func NewCoordinator(store Store, opts compiler.Options, logger *zap.Logger) *Coordinator {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:   store,
		hasher:  NewHasher(),
		opts:    opts,
		logger:  logger,
		workers: runtime.NumCPU(),
		metrics: &Metrics{StartTime: time.Now()},
	}
}

// SetWorkers bounds parallel compilation in CompileFiles
func (c *Coordinator) SetWorkers(n int) {
	if n > 0 {
		c.workers = n
	}
}

// Options returns the compiler options every compilation uses
func (c *Coordinator) Options() compiler.Options { return c.opts }

// Key returns the cache key for source compiled as name
func (c *Coordinator) Key(name, source string) string {
	opts := c.opts
	opts.Filename = name
	return c.hasher.Key(opts.Fingerprint(), source)
}

// Compile returns the handoff of source, from the store when possible.
// The boolean reports a cache hit.
func (c *Coordinator) Compile(ctx context.Context, name, source string) (*metadata.Metadata, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	key := c.Key(name, source)

	if m, ok := c.lookup(ctx, key); ok {
		c.record(func(m *Metrics) { m.CacheHits++ })
		return m, true, nil
	}

	compileStart := time.Now()
	opts := c.opts
	opts.Filename = name
	if opts.Logger == nil {
		opts.Logger = c.logger
	}
	m := metadata.FromResult(compiler.Check(source, opts))
	m.SourceHash = c.hasher.HashString(source)
	compileDuration := time.Since(compileStart)

	payload, err := metadata.Serialize(m)
	if err != nil {
		return nil, false, fmt.Errorf("failed to serialize %s: %w", name, err)
	}

	cacheStart := time.Now()
	if err := c.store.Set(ctx, key, &Entry{Filename: name, Payload: payload}); err != nil {
		c.logger.Warn("cache write failed", zap.String("file", name), zap.Error(err))
	}
	cacheDuration := time.Since(cacheStart)

	c.record(func(mt *Metrics) {
		mt.CacheMisses++
		mt.FilesCompiled++
		if m.HasErrors() {
			mt.Failed++
		}
		mt.CompileDuration += compileDuration
		mt.CachingDuration += cacheDuration
	})
	c.logger.Debug("compiled",
		zap.String("file", name),
		zap.String("key", key),
		zap.Int("diagnostics", len(m.Diagnostics)),
		zap.Duration("duration", compileDuration))
	return m, false, nil
}

func (c *Coordinator) lookup(ctx context.Context, key string) (*metadata.Metadata, bool) {
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	m, err := metadata.FromJSON(entry.Payload)
	if err != nil {
		c.logger.Warn("dropping corrupt cache entry", zap.String("key", key), zap.Error(err))
		_ = c.store.Delete(ctx, key)
		return nil, false
	}
	return m, true
}

// CompileFiles reads and compiles each path. With parallel set, files are
// compiled by a bounded pool of workers. Results keep the order of paths.
func (c *Coordinator) CompileFiles(ctx context.Context, paths []string, parallel bool) ([]*Result, *Metrics) {
	c.mu.Lock()
	c.metrics = &Metrics{
		TotalFiles: len(paths),
		StartTime:  time.Now(),
	}
	c.mu.Unlock()

	results := make([]*Result, len(paths))
	if parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.workers)
		for i, path := range paths {
			g.Go(func() error {
				results[i] = c.compileFile(gctx, path)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, path := range paths {
			results[i] = c.compileFile(ctx, path)
		}
	}

	c.mu.Lock()
	c.metrics.EndTime = time.Now()
	c.metrics.TotalDuration = c.metrics.EndTime.Sub(c.metrics.StartTime)
	metrics := *c.metrics
	c.mu.Unlock()

	return results, &metrics
}

func (c *Coordinator) compileFile(ctx context.Context, path string) *Result {
	content, err := os.ReadFile(path)
	if err != nil {
		c.record(func(m *Metrics) { m.Failed++ })
		return &Result{Path: path, Err: fmt.Errorf("failed to read file: %w", err)}
	}

	source := string(content)
	m, cached, err := c.Compile(ctx, path, source)
	if err != nil {
		return &Result{Path: path, Err: err}
	}
	return &Result{
		Path:     path,
		Metadata: m,
		Hash:     c.hasher.HashString(source),
		Cached:   cached,
	}
}

// Invalidate drops the entry of source compiled as name
func (c *Coordinator) Invalidate(ctx context.Context, name, source string) error {
	return c.store.Delete(ctx, c.Key(name, source))
}

// Metrics returns a copy of the current metrics
func (c *Coordinator) Metrics() *Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	metrics := *c.metrics
	return &metrics
}

// Clear empties the store and resets metrics
func (c *Coordinator) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.metrics = &Metrics{StartTime: time.Now()}
	c.mu.Unlock()
	return c.store.Clear(ctx)
}

// Close closes the store
func (c *Coordinator) Close() error {
	return c.store.Close()
}

func (c *Coordinator) record(update func(*Metrics)) {
	c.mu.Lock()
	update(c.metrics)
	c.mu.Unlock()
}

// HasTemplateExt reports whether path ends in one of exts.
func HasTemplateExt(path string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// ScanDirectory lists the template files under dir. Nil exts means
// DefaultExtensions.
func ScanDirectory(dir string, exts []string) ([]string, error) {
	if exts == nil {
		exts = DefaultExtensions
	}
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != dir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if HasTemplateExt(path, exts) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}
