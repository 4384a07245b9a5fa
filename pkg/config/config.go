// Package config loads the axiom-profiler configuration file.
//
// The file is TOML and every key is optional:
//
//	[filters]
//	chain = "ignore-theory-solving, max-insts=125"
//
//	[disablers]
//	smart = true
//	enodes = false
//	given_equalities = false
//	all_equalities = false
//
//	[keep]
//	retain_ancestors = false
//
//	[cache]
//	backend = "file"          # none | file | redis | mongo
//	dir = "~/.cache/axiom-profiler"
//	redis_addr = "localhost:6379"
//	mongo_uri = "mongodb://localhost:27017"
//	mongo_database = "axiom_profiler"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
//
// Command-line flags override what the file sets.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/kiranandcode/axiom-profiler-2/pkg/cache"
	"github.com/kiranandcode/axiom-profiler-2/pkg/disabler"
	perrors "github.com/kiranandcode/axiom-profiler-2/pkg/errors"
	"github.com/kiranandcode/axiom-profiler-2/pkg/filter"
)

// AppName names the config and cache directories.
const AppName = "axiom-profiler"

// Config is the decoded configuration file.
type Config struct {
	Filters   Filters   `toml:"filters"`
	Disablers Disablers `toml:"disablers"`
	Keep      Keep      `toml:"keep"`
	Cache     Cache     `toml:"cache"`
	Server    Server    `toml:"server"`
}

// Filters holds the default filter chain in textual syntax.
type Filters struct {
	Chain string `toml:"chain"`
}

// Disablers switches each disabler on or off.
type Disablers struct {
	Smart           bool `toml:"smart"`
	ENodes          bool `toml:"enodes"`
	GivenEqualities bool `toml:"given_equalities"`
	AllEqualities   bool `toml:"all_equalities"`
}

// Keep tunes the max-insts filter.
type Keep struct {
	// RetainAncestors makes max-insts also keep every ancestor of a kept
	// instantiation.
	RetainAncestors bool `toml:"retain_ancestors"`
}

// Cache selects the result cache backend.
type Cache struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
	TTL           Duration `toml:"ttl"`
}

// Server configures `axiom-profiler serve`.
type Server struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a Go duration string ("90m").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Filters:   Filters{Chain: filter.Default().String()},
		Disablers: Disablers{Smart: true},
		Cache: Cache{
			Backend:       cache.BackendFile,
			Dir:           defaultCacheDir(),
			MongoDatabase: "axiom_profiler",
			TTL:           Duration{24 * time.Hour},
		},
		Server: Server{Addr: ":8080"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/axiom-profiler/config.toml, falling
// back to the platform config directory.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(dir, AppName, "config.toml")
}

func defaultCacheDir() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserCacheDir(); err != nil {
			dir = os.TempDir()
		}
	}
	return filepath.Join(dir, AppName)
}

// Load reads the file at path over the defaults. An empty path means
// DefaultPath, and a missing default file is not an error; a missing
// explicit path is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return Config{}, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "load %s", path)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return Config{}, perrors.New(perrors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	return cfg, cfg.Validate()
}

// Validate checks the fields that can be checked without a trace.
func (c Config) Validate() error {
	known := false
	for _, b := range cache.Backends {
		if strings.EqualFold(c.Cache.Backend, b) {
			known = true
		}
	}
	if !known {
		return perrors.New(perrors.ErrCodeInvalidConfig, "cache.backend %q: want one of %s",
			c.Cache.Backend, strings.Join(cache.Backends, ", "))
	}
	if c.Cache.TTL.Duration < 0 {
		return perrors.New(perrors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	return nil
}

// Chain parses the configured filter chain. Node parameters are resolved
// against nodes. With keep.retain_ancestors set, every max-insts filter
// also retains ancestors.
func (c Config) Chain(nodes filter.NodeResolver) (filter.Chain, error) {
	chain, err := filter.ParseChain(c.Filters.Chain, nodes)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidFilter, err, "filters.chain")
	}
	if c.Keep.RetainAncestors {
		for i, f := range chain {
			if f.Kind() == filter.KindMaxInsts {
				chain[i] = filter.MaxInstsWithAncestors(f.N())
			}
		}
	}
	return chain, nil
}

// DisablerList returns the enabled disablers in declaration order.
func (c Config) DisablerList() []disabler.Disabler {
	var ds []disabler.Disabler
	for _, e := range []struct {
		on bool
		d  disabler.Disabler
	}{
		{c.Disablers.Smart, disabler.Smart},
		{c.Disablers.ENodes, disabler.ENodes},
		{c.Disablers.GivenEqualities, disabler.GivenEqualities},
		{c.Disablers.AllEqualities, disabler.AllEqualities},
	} {
		if e.on {
			ds = append(ds, e.d)
		}
	}
	return ds
}

// CacheOptions converts the [cache] section for cache.Open.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:       c.Cache.Backend,
		Dir:           c.Cache.Dir,
		RedisAddr:     c.Cache.RedisAddr,
		MongoURI:      c.Cache.MongoURI,
		MongoDatabase: c.Cache.MongoDatabase,
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
