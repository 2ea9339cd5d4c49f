package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/stencil/internal/compiler/cache"
	cerrors "github.com/conduit-lang/stencil/internal/compiler/errors"
	"github.com/conduit-lang/stencil/internal/compiler/metadata"
)

// IncrementalCompiler recompiles only the templates that changed and keeps
// the latest diagnostics of every template it has seen
type IncrementalCompiler struct {
	coordinator *cache.Coordinator
	outDir      string
	compress    bool
	logger      *zap.Logger

	mu          sync.Mutex
	diagnostics map[string]cerrors.ErrorList
	lastCompile time.Time
}

// CompileResult holds the result of one rebuild
type CompileResult struct {
	Success bool
	// Compiled maps each compiled path to its diagnostics
	Compiled map[string]cerrors.ErrorList
	// Removed lists templates that no longer exist
	Removed []string
	// Fixed lists templates whose previous errors are gone
	Fixed    []string
	Cached   int
	Failures map[string]error
	Duration time.Duration
}

// Diagnostics returns the diagnostics of every compiled file, sorted by path
func (r *CompileResult) Diagnostics() cerrors.ErrorList {
	var all cerrors.ErrorList
	for _, path := range sortedKeys(r.Compiled) {
		all = append(all, r.Compiled[path]...)
	}
	return all
}

// NewIncrementalCompiler creates a compiler writing handoff files to outDir.
// An empty outDir only compiles.
func NewIncrementalCompiler(coordinator *cache.Coordinator, outDir string, compress bool, logger *zap.Logger) *IncrementalCompiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncrementalCompiler{
		coordinator: coordinator,
		outDir:      outDir,
		compress:    compress,
		logger:      logger,
		diagnostics: make(map[string]cerrors.ErrorList),
	}
}

// IncrementalBuild compiles the changed files that still exist and forgets
// the ones that were removed
func (ic *IncrementalCompiler) IncrementalBuild(ctx context.Context, changedFiles []string) (*CompileResult, error) {
	start := time.Now()
	result := &CompileResult{
		Compiled: make(map[string]cerrors.ErrorList),
		Failures: make(map[string]error),
	}

	var existing []string
	for _, file := range changedFiles {
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			result.Removed = append(result.Removed, file)
			continue
		}
		existing = append(existing, file)
	}

	results, _ := ic.coordinator.CompileFiles(ctx, existing, true)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ic.mu.Lock()
	defer ic.mu.Unlock()

	for _, file := range result.Removed {
		delete(ic.diagnostics, file)
		ic.removeOutput(file)
	}

	for _, r := range results {
		if r.Err != nil {
			result.Failures[r.Path] = r.Err
			continue
		}
		if r.Cached {
			result.Cached++
		}
		diags := r.Metadata.Diagnostics
		result.Compiled[r.Path] = diags
		if ic.diagnostics[r.Path].HasErrors() && !diags.HasErrors() {
			result.Fixed = append(result.Fixed, r.Path)
		}
		ic.diagnostics[r.Path] = diags

		if err := ic.writeOutput(r.Path, r.Metadata); err != nil {
			result.Failures[r.Path] = err
		}
	}

	result.Success = len(result.Failures) == 0 && !result.Diagnostics().HasErrors()
	result.Duration = time.Since(start)
	ic.lastCompile = time.Now()

	ic.logger.Debug("incremental build",
		zap.Int("compiled", len(result.Compiled)),
		zap.Int("cached", result.Cached),
		zap.Int("removed", len(result.Removed)),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// FullBuild compiles every template under roots
func (ic *IncrementalCompiler) FullBuild(ctx context.Context, roots, exts []string) (*CompileResult, error) {
	var files []string
	for _, root := range roots {
		found, err := cache.ScanDirectory(root, exts)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", root, err)
		}
		files = append(files, found...)
	}
	return ic.IncrementalBuild(ctx, files)
}

// Errors returns the current error count over every known template
func (ic *IncrementalCompiler) Errors() int {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	n := 0
	for _, diags := range ic.diagnostics {
		errs, _ := diags.ErrorCount()
		n += errs
	}
	return n
}

// LastCompile is when the last build finished
func (ic *IncrementalCompiler) LastCompile() time.Time {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.lastCompile
}

func (ic *IncrementalCompiler) writeOutput(path string, m *metadata.Metadata) error {
	if ic.outDir == "" {
		return nil
	}
	out := metadata.OutputPath(ic.outDir, path)
	if ic.compress {
		return metadata.WriteCompressedToFile(m, out+".gz")
	}
	return metadata.WriteToFile(m, out)
}

func (ic *IncrementalCompiler) removeOutput(path string) {
	if ic.outDir == "" {
		return
	}
	out := metadata.OutputPath(ic.outDir, path)
	for _, p := range []string{out, out + ".gz"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			ic.logger.Warn("failed to remove output", zap.String("file", p), zap.Error(err))
		}
	}
}

func sortedKeys(m map[string]cerrors.ErrorList) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
