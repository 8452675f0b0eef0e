package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matzehuels/slocmap/pkg/server"
)

// serveCommand creates the serve command, which runs the HTTP server.
func (c *CLI) serveCommand() *cobra.Command {
	var cfg server.Config

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve interactive treemaps over HTTP",
		Long: `Serve interactive treemaps over HTTP.

Settings are layered: built-in defaults, then the [serve] table of the config
file, then a .env file and SLOCMAP_* environment variables, then flags.

Rendered responses are kept in an in-memory LRU. With --redis or --cache-dir
layouts and artifacts are also cached there. Uploaded snapshots are kept in
memory unless --mongo is given.`,
		Example: `  slocmap serve --source tree.json
  SLOCMAP_REDIS_URL=redis://localhost:6379/0 slocmap serve --addr :9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := c.loadConfig()
			if err != nil {
				return err
			}
			merged := mergeServeConfig(cmd, file.Serve, cfg)
			return c.runServe(cmd.Context(), merged)
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&cfg.Source, "source", "", "tree served by the treemap routes (default: the public sample)")
	cmd.Flags().StringVar(&cfg.InputFormat, "input-format", "", "input format of --source: json, yaml, gocloc")
	cmd.Flags().BoolVar(&cfg.AllowRemote, "allow-remote", false, "let clients choose any http(s) source with ?source=")
	cmd.Flags().StringVar(&cfg.CacheDir, "cache-dir", "", "directory for the layout and artifact cache")
	cmd.Flags().StringVar(&cfg.RedisURL, "redis", "", "redis URL for the layout and artifact cache")
	cmd.Flags().StringVar(&cfg.MongoURI, "mongo", "", "mongodb URI for snapshots")
	cmd.Flags().IntVar(&cfg.LRUSize, "lru-size", server.DefaultLRUSize, "number of responses kept in memory")
	cmd.Flags().Int64Var(&cfg.MaxUpload, "max-upload", server.DefaultMaxUpload, "maximum snapshot upload size in bytes")
	cmd.Flags().DurationVar(&cfg.ResponseTTL, "response-ttl", server.DefaultResponseTTL, "lifetime of cached responses")
	cmd.Flags().DurationVar(&cfg.SnapshotTTL, "snapshot-ttl", 0, "lifetime of snapshots (default 30 days, negative keeps them forever)")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", server.DefaultTimeout, "per-request timeout")

	return cmd
}

// mergeServeConfig layers file, environment and flags.
func mergeServeConfig(cmd *cobra.Command, file, flags server.Config) server.Config {
	cfg := file
	cfg.ApplyEnv()

	changed := cmd.Flags().Changed
	if changed("addr") {
		cfg.Addr = flags.Addr
	}
	if changed("source") {
		cfg.Source = flags.Source
	}
	if changed("input-format") {
		cfg.InputFormat = flags.InputFormat
	}
	if changed("allow-remote") {
		cfg.AllowRemote = flags.AllowRemote
	}
	if changed("cache-dir") {
		cfg.CacheDir = flags.CacheDir
	}
	if changed("redis") {
		cfg.RedisURL = flags.RedisURL
	}
	if changed("mongo") {
		cfg.MongoURI = flags.MongoURI
	}
	if changed("lru-size") {
		cfg.LRUSize = flags.LRUSize
	}
	if changed("max-upload") {
		cfg.MaxUpload = flags.MaxUpload
	}
	if changed("response-ttl") {
		cfg.ResponseTTL = flags.ResponseTTL
	}
	if changed("snapshot-ttl") {
		cfg.SnapshotTTL = flags.SnapshotTTL
	}
	if changed("timeout") {
		cfg.Timeout = flags.Timeout
	}
	cfg.SetDefaults()
	return cfg
}

func (c *CLI) runServe(ctx context.Context, cfg server.Config) error {
	srv, err := server.Open(ctx, cfg, loggerFromContext(ctx))
	if err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	defer srv.Close()

	printInfo("Serving %s", StyleLink.Render(displayAddr(cfg.Addr)))
	printKeyValue("source", cfg.Source)
	printKeyValue("cache", cacheBackend(cfg))
	printKeyValue("snapshots", snapshotBackend(cfg))
	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func cacheBackend(cfg server.Config) string {
	switch {
	case cfg.RedisURL != "":
		return "memory + redis"
	case cfg.CacheDir != "":
		return "memory + " + cfg.CacheDir
	}
	return "memory"
}

func snapshotBackend(cfg server.Config) string {
	if cfg.MongoURI != "" {
		return "mongodb"
	}
	return "memory"
}
