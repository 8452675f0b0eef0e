package server

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/matzehuels/slocmap/pkg/source"
	"github.com/matzehuels/slocmap/pkg/store"
)

// Config configures the server. Zero values fall back to the defaults
// applied by [Config.SetDefaults].
type Config struct {
	Addr string `toml:"addr"`
	// Source is the tree served by the treemap routes.
	Source      string `toml:"source"`
	InputFormat string `toml:"input_format"`
	// AllowRemote lets clients pick any http(s) source with ?source=.
	AllowRemote bool `toml:"allow_remote"`

	CacheDir     string        `toml:"cache_dir"`
	RedisURL     string        `toml:"redis_url"`
	MongoURI     string        `toml:"mongo_uri"`
	LRUSize      int           `toml:"lru_size"`
	ResponseTTL  time.Duration `toml:"response_ttl"`
	SnapshotTTL  time.Duration `toml:"snapshot_ttl"`
	MaxUpload    int64         `toml:"max_upload"`
	Timeout      time.Duration `toml:"timeout"`
	ShutdownWait time.Duration `toml:"shutdown_wait"`
}

// Defaults.
const (
	DefaultAddr         = ":8080"
	DefaultLRUSize      = 512
	DefaultResponseTTL  = 5 * time.Minute
	DefaultMaxUpload    = 16 << 20
	DefaultTimeout      = 60 * time.Second
	DefaultShutdownWait = 10 * time.Second
)

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Source == "" {
		c.Source = source.DefaultURL
	}
	if c.LRUSize <= 0 {
		c.LRUSize = DefaultLRUSize
	}
	if c.ResponseTTL <= 0 {
		c.ResponseTTL = DefaultResponseTTL
	}
	if c.SnapshotTTL == 0 {
		c.SnapshotTTL = store.DefaultTTL
	}
	if c.MaxUpload <= 0 {
		c.MaxUpload = DefaultMaxUpload
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ShutdownWait <= 0 {
		c.ShutdownWait = DefaultShutdownWait
	}
}

// ApplyEnv loads .env (if present) and overrides fields from SLOCMAP_*
// variables. Unparseable values are ignored.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	if v := env("SLOCMAP_ADDR"); v != "" {
		c.Addr = v
	} else if v := env("PORT"); v != "" {
		if !strings.HasPrefix(v, ":") {
			v = ":" + v
		}
		c.Addr = v
	}
	c.Source = firstNonEmpty(env("SLOCMAP_SOURCE"), c.Source)
	c.InputFormat = firstNonEmpty(env("SLOCMAP_INPUT_FORMAT"), c.InputFormat)
	c.CacheDir = firstNonEmpty(env("SLOCMAP_CACHE_DIR"), c.CacheDir)
	c.RedisURL = firstNonEmpty(env("SLOCMAP_REDIS_URL"), c.RedisURL)
	c.MongoURI = firstNonEmpty(env("SLOCMAP_MONGO_URI"), c.MongoURI)

	if v, err := strconv.ParseBool(env("SLOCMAP_ALLOW_REMOTE")); err == nil {
		c.AllowRemote = v
	}
	if v, err := strconv.Atoi(env("SLOCMAP_LRU_SIZE")); err == nil {
		c.LRUSize = v
	}
	if v, err := strconv.ParseInt(env("SLOCMAP_MAX_UPLOAD"), 10, 64); err == nil {
		c.MaxUpload = v
	}
	durations := map[string]*time.Duration{
		"SLOCMAP_RESPONSE_TTL":  &c.ResponseTTL,
		"SLOCMAP_SNAPSHOT_TTL":  &c.SnapshotTTL,
		"SLOCMAP_TIMEOUT":       &c.Timeout,
		"SLOCMAP_SHUTDOWN_WAIT": &c.ShutdownWait,
	}
	for name, dst := range durations {
		if v, err := time.ParseDuration(env(name)); err == nil {
			*dst = v
		}
	}
}

func env(name string) string { return strings.TrimSpace(os.Getenv(name)) }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
