package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/stencil/internal/compiler"
	"github.com/conduit-lang/stencil/internal/compiler/cache"
)

// chdir switches to a fresh temp dir for the test
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.File)
	assert.Equal(t, []string{"{{", "}}"}, cfg.Compiler.Delimiters)
	assert.Equal(t, "condense", cfg.Compiler.Whitespace)
	assert.Equal(t, "module", cfg.Compiler.Mode)
	assert.True(t, cfg.Compiler.HoistStatic)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "localhost:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 7878, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:7878", cfg.Address())
	assert.Equal(t, cache.DefaultExtensions, cfg.Watch.Patterns)
	assert.Equal(t, "build/templates", cfg.Output.Dir)
}

func TestLoad_ConfigFile(t *testing.T) {
	chdir(t)

	content := `
compiler:
  delimiters: ["[[", "]]"]
  whitespace: preserve
  mode: function
  custom_elements: ["ion-*"]
cache:
  backend: sqlite
  ttl: 1h
  sqlite:
    path: tmp/cache.db
server:
  port: 9000
watch:
  ignored: [vendor]
`
	require.NoError(t, os.WriteFile("stencil.yml", []byte(content), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "stencil.yml", filepath.Base(cfg.File))
	assert.Equal(t, []string{"[[", "]]"}, cfg.Compiler.Delimiters)
	assert.Equal(t, "preserve", cfg.Compiler.Whitespace)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "tmp/cache.db", cfg.Cache.SQLite.Path)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, []string{"vendor"}, cfg.Watch.Ignored)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := chdir(t)
	file := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  port: 1234\n"), 0644))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.Server.Port)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("STENCIL_SERVER_PORT", "9100")
	t.Setenv("STENCIL_CACHE_BACKEND", "redis")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Backend)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		key     string
		allowed []string
	}{
		{"whitespace", "compiler:\n  whitespace: condence\n", "compiler.whitespace", []string{"condense", "preserve"}},
		{"mode", "compiler:\n  mode: esm\n", "compiler.mode", []string{"function", "module"}},
		{"backend", "cache:\n  backend: memcached\n", "cache.backend", []string{"memory", "redis", "sqlite"}},
		{"delimiters", "compiler:\n  delimiters: [\"{{\"]\n", "compiler.delimiters", nil},
		{"port", "server:\n  port: 70000\n", "server.port", nil},
		{"rate limit", "server:\n  rate_limit: -1\n", "server.rate_limit", nil},
		{"patterns", "watch:\n  patterns: [html]\n", "watch.patterns", nil},
		{"custom elements", "compiler:\n  custom_elements: [\"[\"]\n", "compiler.custom_elements", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t)
			require.NoError(t, os.WriteFile("stencil.yaml", []byte(tt.content), 0644))

			_, err := Load("")
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.key, verr.Key)
			assert.Equal(t, tt.allowed, verr.Allowed)
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Key: "compiler.mode", Value: "esm", Allowed: modeValues}
	assert.Equal(t, `compiler.mode must be one of function, module (got "esm")`, err.Error())

	err = &ValidationError{Key: "server.port", Value: "-1", Reason: "must be between 0 and 65535"}
	assert.Equal(t, `server.port must be between 0 and 65535 (got "-1")`, err.Error())
}

func TestWrite_RoundTrip(t *testing.T) {
	dir := chdir(t)

	cfg := Default()
	cfg.Compiler.ScopeID = "data-v-1"
	cfg.Cache.Backend = cache.BackendRedis
	cfg.Cache.Redis.DB = 2
	cfg.Output.Compress = true

	file := filepath.Join(dir, "stencil.yml")
	require.NoError(t, cfg.Write(file))

	loaded, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "data-v-1", loaded.Compiler.ScopeID)
	assert.Equal(t, "redis", loaded.Cache.Backend)
	assert.Equal(t, 2, loaded.Cache.Redis.DB)
	assert.True(t, loaded.Output.Compress)
	assert.Equal(t, cfg.Cache.TTL, loaded.Cache.TTL)
}

func TestWrite_RejectsInvalid(t *testing.T) {
	dir := chdir(t)
	cfg := Default()
	cfg.Compiler.Mode = "esm"

	assert.Error(t, cfg.Write(filepath.Join(dir, "stencil.yml")))
	assert.NoFileExists(t, filepath.Join(dir, "stencil.yml"))
}

func TestCompilerOptions(t *testing.T) {
	cfg := Default()
	cfg.Compiler.Delimiters = []string{"${", "}"}
	cfg.Compiler.Mode = "function"
	cfg.Compiler.CustomElements = []string{"ion-*", "x-widget"}

	opts := cfg.CompilerOptions()
	assert.Equal(t, [2]string{"${", "}"}, opts.Delimiters)
	assert.Equal(t, compiler.ModeFunction, opts.Mode)
	require.NotNil(t, opts.IsCustomElement)
	assert.True(t, opts.IsCustomElement("ion-button"))
	assert.True(t, opts.IsCustomElement("x-widget"))
	assert.False(t, opts.IsCustomElement("x-widgets"))
	assert.False(t, opts.IsCustomElement("div"))

	assert.Nil(t, Default().CompilerOptions().IsCustomElement)
}

func TestCacheConfig(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = cache.BackendSQLite
	cfg.Cache.SQLite.Path = "x.db"
	cfg.Cache.TTL = time.Minute

	cc := cfg.CacheConfig()
	assert.Equal(t, cache.BackendSQLite, cc.Backend)
	assert.Equal(t, "x.db", cc.SQLite.Path)
	assert.Equal(t, time.Minute, cc.TTL)
	assert.Equal(t, "compile_cache", cc.SQLite.TableName)
}
