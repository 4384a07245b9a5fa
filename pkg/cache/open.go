package cache

import (
	"context"
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Backends lists the backend names in display order.
var Backends = []string{BackendNone, BackendFile, BackendRedis, BackendMongo}

// Options selects and configures a backend.
type Options struct {
	Backend       string
	Dir           string // file
	RedisAddr     string // redis
	MongoURI      string // mongo
	MongoDatabase string // mongo
}

// Open creates the backend named by opts.Backend. An empty name is "file".
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch strings.ToLower(opts.Backend) {
	case BackendNone:
		return NewNullCache(), nil
	case "", BackendFile:
		if opts.Dir == "" {
			return nil, fmt.Errorf("file cache: no directory configured")
		}
		return NewFileCache(opts.Dir)
	case BackendRedis:
		return NewRedisCache(ctx, opts.RedisAddr)
	case BackendMongo:
		return NewMongoCache(ctx, opts.MongoURI, opts.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want one of %s)",
			opts.Backend, strings.Join(Backends, ", "))
	}
}
