package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Backend names accepted by Open.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Kind     string
	Dir      string   // file and sqlite backends
	RedisURL string   // redis backend
	Fs       afero.Fs // file backend; defaults to the OS filesystem
}

// Open creates the store named by opts.Kind. An empty kind means file.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Kind {
	case KindMemory:
		return NewMemoryStore(), nil
	case "", KindFile:
		fsys := opts.Fs
		if fsys == nil {
			fsys = afero.NewOsFs()
		}
		return NewFileStore(fsys, opts.Dir)
	case KindSQLite:
		if opts.Dir == "" {
			return nil, fmt.Errorf("sqlite store directory is required")
		}
		return NewSQLiteStore(filepath.Join(opts.Dir, "todochat.db"))
	case KindRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("redis store requires session.redisURL")
		}
		return NewRedisStore(ctx, opts.RedisURL)
	default:
		return nil, fmt.Errorf("unsupported session store: %q (want memory, file, sqlite or redis)", opts.Kind)
	}
}
