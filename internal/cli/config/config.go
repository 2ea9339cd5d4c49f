package config

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conduit-lang/stencil/internal/compiler"
	"github.com/conduit-lang/stencil/internal/compiler/cache"
	"github.com/conduit-lang/stencil/internal/compiler/parser"
)

// FileName is the config file name without extension
const FileName = "stencil"

// EnvPrefix prefixes environment overrides, e.g. STENCIL_SERVER_PORT
const EnvPrefix = "STENCIL"

// Config represents the stencil configuration
type Config struct {
	Compiler CompilerConfig `mapstructure:"compiler"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Server   ServerConfig   `mapstructure:"server"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Output   OutputConfig   `mapstructure:"output"`

	// File is the config file that was read, empty when defaults were used
	File string `mapstructure:"-"`
}

// CompilerConfig mirrors the compiler options a project can set
type CompilerConfig struct {
	Delimiters        []string `mapstructure:"delimiters"`
	Comments          bool     `mapstructure:"comments"`
	Whitespace        string   `mapstructure:"whitespace"`
	PrefixIdentifiers bool     `mapstructure:"prefix_identifiers"`
	HoistStatic       bool     `mapstructure:"hoist_static"`
	CacheHandlers     bool     `mapstructure:"cache_handlers"`
	Mode              string   `mapstructure:"mode"`
	ScopeID           string   `mapstructure:"scope_id"`
	// CustomElements are tag patterns such as "ion-*" treated as native
	// custom elements rather than components
	CustomElements []string `mapstructure:"custom_elements"`
}

// CacheConfig represents compile cache configuration
type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
	SQLite  SQLiteConfig  `mapstructure:"sqlite"`
}

// RedisConfig represents the redis cache backend
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// SQLiteConfig represents the sqlite cache backend
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig represents compile server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// RateLimit is the requests per minute allowed per client, 0 for no limit
	RateLimit int `mapstructure:"rate_limit"`
}

// WatchConfig represents watch mode configuration
type WatchConfig struct {
	// Patterns are the template file extensions to compile
	Patterns []string `mapstructure:"patterns"`
	// Ignored are glob patterns of files and directories to skip
	Ignored []string `mapstructure:"ignored"`
}

// OutputConfig controls where compiled metadata is written
type OutputConfig struct {
	Dir      string `mapstructure:"dir"`
	Compress bool   `mapstructure:"compress"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	opts := compiler.DefaultOptions()
	redis := cache.DefaultRedisConfig()
	return &Config{
		Compiler: CompilerConfig{
			Delimiters:        []string{opts.Delimiters[0], opts.Delimiters[1]},
			Comments:          opts.Comments,
			Whitespace:        opts.Whitespace,
			PrefixIdentifiers: opts.PrefixIdentifiers,
			HoistStatic:       opts.HoistStatic,
			CacheHandlers:     opts.CacheHandlers,
			Mode:              string(opts.Mode),
			ScopeID:           "",
			CustomElements:    []string{},
		},
		Cache: CacheConfig{
			Backend: cache.BackendMemory,
			TTL:     cache.DefaultConfig().TTL,
			Redis: RedisConfig{
				Addr:   redis.Addr,
				DB:     redis.DB,
				Prefix: redis.Prefix,
			},
			SQLite: SQLiteConfig{Path: cache.DefaultSQLiteConfig().Path},
		},
		Server: ServerConfig{Host: "127.0.0.1", Port: 7878},
		Watch: WatchConfig{
			Patterns: append([]string(nil), cache.DefaultExtensions...),
			Ignored:  []string{"dist", "build"},
		},
		Output: OutputConfig{Dir: "build/templates"},
	}
}

// values flattens c into viper keys
func (c *Config) values() map[string]any {
	return map[string]any{
		"compiler.delimiters":         c.Compiler.Delimiters,
		"compiler.comments":           c.Compiler.Comments,
		"compiler.whitespace":         c.Compiler.Whitespace,
		"compiler.prefix_identifiers": c.Compiler.PrefixIdentifiers,
		"compiler.hoist_static":       c.Compiler.HoistStatic,
		"compiler.cache_handlers":     c.Compiler.CacheHandlers,
		"compiler.mode":               c.Compiler.Mode,
		"compiler.scope_id":           c.Compiler.ScopeID,
		"compiler.custom_elements":    c.Compiler.CustomElements,
		"cache.backend":               c.Cache.Backend,
		"cache.ttl":                   c.Cache.TTL.String(),
		"cache.redis.addr":            c.Cache.Redis.Addr,
		"cache.redis.password":        c.Cache.Redis.Password,
		"cache.redis.db":              c.Cache.Redis.DB,
		"cache.redis.prefix":          c.Cache.Redis.Prefix,
		"cache.sqlite.path":           c.Cache.SQLite.Path,
		"server.host":                 c.Server.Host,
		"server.port":                 c.Server.Port,
		"server.rate_limit":           c.Server.RateLimit,
		"watch.patterns":              c.Watch.Patterns,
		"watch.ignored":               c.Watch.Ignored,
		"output.dir":                  c.Output.Dir,
		"output.compress":             c.Output.Compress,
	}
}

// Load loads the configuration. An empty file searches the working
// directory for stencil.yml or stencil.yaml and falls back to defaults.
func Load(file string) (*Config, error) {
	v := viper.New()

	for key, value := range Default().values() {
		v.SetDefault(key, value)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || file != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.File = v.ConfigFileUsed()

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Write saves c as YAML to file
func (c *Config) Write(file string) error {
	if err := validateConfig(c); err != nil {
		return err
	}

	v := viper.New()
	for key, value := range c.values() {
		v.Set(key, value)
	}
	if err := v.WriteConfigAs(file); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ValidationError reports an invalid config value. Allowed lists the
// accepted values when the key is an enumeration.
type ValidationError struct {
	Key     string
	Value   string
	Allowed []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("%s must be one of %s (got %q)", e.Key, strings.Join(e.Allowed, ", "), e.Value)
	}
	return fmt.Sprintf("%s %s (got %q)", e.Key, e.Reason, e.Value)
}

var (
	whitespaceValues = []string{parser.WhitespaceCondense, parser.WhitespacePreserve}
	modeValues       = []string{string(compiler.ModeFunction), string(compiler.ModeModule)}
	backendValues    = []string{cache.BackendMemory, cache.BackendRedis, cache.BackendSQLite}
)

func oneOf(key, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{Key: key, Value: value, Allowed: allowed}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	d := cfg.Compiler.Delimiters
	if len(d) != 2 || d[0] == "" || d[1] == "" {
		return &ValidationError{
			Key:    "compiler.delimiters",
			Value:  strings.Join(d, " "),
			Reason: "must be two non-empty strings",
		}
	}
	if err := oneOf("compiler.whitespace", cfg.Compiler.Whitespace, whitespaceValues); err != nil {
		return err
	}
	if err := oneOf("compiler.mode", cfg.Compiler.Mode, modeValues); err != nil {
		return err
	}
	for _, pattern := range cfg.Compiler.CustomElements {
		if _, err := path.Match(pattern, ""); err != nil {
			return &ValidationError{Key: "compiler.custom_elements", Value: pattern, Reason: "is not a valid pattern"}
		}
	}
	if err := oneOf("cache.backend", cfg.Cache.Backend, backendValues); err != nil {
		return err
	}
	if cfg.Cache.TTL < 0 {
		return &ValidationError{Key: "cache.ttl", Value: cfg.Cache.TTL.String(), Reason: "must not be negative"}
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return &ValidationError{Key: "server.port", Value: fmt.Sprint(cfg.Server.Port), Reason: "must be between 0 and 65535"}
	}
	if cfg.Server.RateLimit < 0 {
		return &ValidationError{Key: "server.rate_limit", Value: fmt.Sprint(cfg.Server.RateLimit), Reason: "must not be negative"}
	}
	for _, ext := range cfg.Watch.Patterns {
		if !strings.HasPrefix(ext, ".") {
			return &ValidationError{Key: "watch.patterns", Value: ext, Reason: "must be file extensions starting with '.'"}
		}
	}
	return nil
}

// CompilerOptions converts the compiler section to compiler options
func (c *Config) CompilerOptions() compiler.Options {
	opts := compiler.DefaultOptions()
	opts.Delimiters = [2]string{c.Compiler.Delimiters[0], c.Compiler.Delimiters[1]}
	opts.Comments = c.Compiler.Comments
	opts.Whitespace = c.Compiler.Whitespace
	opts.PrefixIdentifiers = c.Compiler.PrefixIdentifiers
	opts.HoistStatic = c.Compiler.HoistStatic
	opts.CacheHandlers = c.Compiler.CacheHandlers
	opts.Mode = compiler.Mode(c.Compiler.Mode)
	opts.ScopeID = c.Compiler.ScopeID

	if patterns := c.Compiler.CustomElements; len(patterns) > 0 {
		opts.IsCustomElement = func(tag string) bool {
			for _, p := range patterns {
				if ok, _ := path.Match(p, tag); ok {
					return true
				}
			}
			return false
		}
	}
	return opts
}

// CacheConfig converts the cache section to a cache backend configuration
func (c *Config) CacheConfig() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Backend = c.Cache.Backend
	cfg.TTL = c.Cache.TTL
	cfg.Redis.Addr = c.Cache.Redis.Addr
	cfg.Redis.Password = c.Cache.Redis.Password
	cfg.Redis.DB = c.Cache.Redis.DB
	cfg.Redis.Prefix = c.Cache.Redis.Prefix
	cfg.SQLite.Path = c.Cache.SQLite.Path
	return cfg
}

// Address returns the compile server listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
