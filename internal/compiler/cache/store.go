package cache

import (
	"context"
	"time"
)

// Entry is one cached compilation.
type Entry struct {
	Key      string `json:"key"`
	Filename string `json:"filename,omitempty"`
	// Payload is the serialized metadata of the compilation.
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a cache backend. Get reports a miss with ok == false and a nil
// error; errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	TTL     time.Duration
	Redis   RedisConfig
	SQLite  SQLiteConfig
}

// DefaultConfig returns an in-memory configuration
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		TTL:     24 * time.Hour,
		Redis:   DefaultRedisConfig(),
		SQLite:  DefaultSQLiteConfig(),
	}
}

// Open creates the backend named by cfg.Backend.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		rc := cfg.Redis
		if rc.TTL == 0 {
			rc.TTL = cfg.TTL
		}
		return NewRedisStore(rc)
	case BackendSQLite:
		return OpenSQLiteStore(cfg.SQLite)
	default:
		return nil, ErrUnknownBackend{Name: cfg.Backend}
	}
}

// ErrUnknownBackend is returned by Open for an unsupported backend name
type ErrUnknownBackend struct {
	Name string
}

func (e ErrUnknownBackend) Error() string {
	return "unknown cache backend: " + e.Name
}
