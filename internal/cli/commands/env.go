package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/stencil/internal/cli/config"
	"github.com/conduit-lang/stencil/internal/cli/ui"
	"github.com/conduit-lang/stencil/internal/compiler/cache"
)

// loadConfig loads the project config. Validation failures are printed
// with suggestions and reported as errReported.
func (g *globalFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(g.configFile)
	if err == nil {
		return cfg, nil
	}

	var verr *config.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(verr.Error(), ui.FindSimilar(verr.Value, verr.Allowed), g.noColor))
		return nil, errReported
	}
	return nil, err
}

// logger returns a development logger with --verbose and a warn-level
// console logger otherwise. Both write to stderr.
func (g *globalFlags) logger() (*zap.Logger, error) {
	if g.verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// setup loads the config and builds the logger and compile coordinator
func (g *globalFlags) setup(cmd *cobra.Command) (*config.Config, *zap.Logger, *cache.Coordinator, error) {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := g.logger()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := cache.Open(cfg.CacheConfig())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open %s cache: %w", cfg.Cache.Backend, err)
	}
	logger.Debug("configuration loaded",
		zap.String("file", cfg.File),
		zap.String("cache", cfg.Cache.Backend))

	return cfg, logger, cache.NewCoordinator(store, cfg.CompilerOptions(), logger), nil
}

// expandPaths replaces directories in args with the templates under them.
// No args means the working directory.
func expandPaths(args, exts []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}

	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := cache.ScanDirectory(arg, exts)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
		paths = append(paths, found...)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no templates found in %v", args)
	}
	return paths, nil
}
