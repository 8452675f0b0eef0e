package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/slocmap/pkg/pipeline"
	"github.com/matzehuels/slocmap/pkg/server"
	"github.com/matzehuels/slocmap/pkg/view"
)

const configFile = "config.toml"

// Config is the optional TOML config file. Values override built-in
// defaults; command-line flags override both.
type Config struct {
	Render RenderConfig  `toml:"render"`
	Serve  server.Config `toml:"serve"`
}

// RenderConfig holds defaults shared by render, layout and browse.
type RenderConfig struct {
	Source      string            `toml:"source,omitempty"`
	InputFormat string            `toml:"input_format,omitempty"`
	Formats     []string          `toml:"formats,omitempty"`
	Width       float64           `toml:"width,omitempty"`
	Height      float64           `toml:"height,omitempty"`
	Padding     float64           `toml:"padding,omitempty"`
	Round       bool              `toml:"round,omitempty"`
	Seed        int64             `toml:"seed,omitempty"`
	Separator   string            `toml:"separator,omitempty"`
	Colors      map[string]string `toml:"colors,omitempty"`
	Bars        bool              `toml:"bars,omitempty"`
	Panels      bool              `toml:"panels,omitempty"`
	Legend      bool              `toml:"legend,omitempty"`
	Duration    time.Duration     `toml:"duration,omitempty"`
	NoCache     bool              `toml:"no_cache,omitempty"`
}

// configFilePath returns the config file location: --config, then
// $XDG_CONFIG_HOME/slocmap/config.toml, then ~/.config/slocmap/config.toml.
func (c *CLI) configFilePath() (string, error) {
	if c.configPath != "" {
		return c.configPath, nil
	}
	return defaultConfigPath()
}

func defaultConfigPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, configFile), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, configFile), nil
}

func displayConfigPath() string {
	if p, err := defaultConfigPath(); err == nil {
		return p
	}
	return filepath.Join("~", ".config", appName, configFile)
}

// loadConfig reads the config file. A missing file yields an empty config;
// an explicit --config that does not exist is an error.
func (c *CLI) loadConfig() (*Config, error) {
	path, err := c.configFilePath()
	if err != nil {
		return &Config{}, nil
	}
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) && c.configPath == "" {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		c.Logger.Warn("unknown config keys", "file", path, "keys", undecoded)
	}
	c.Logger.Debug("loaded config", "file", path)
	return &cfg, nil
}

// apply copies config values into opts for every flag the user did not set.
func (rc RenderConfig) apply(cmd *cobra.Command, opts *pipeline.Options, noCache *bool) {
	unset := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && !f.Changed
	}
	if rc.InputFormat != "" && unset("input-format") {
		opts.InputFormat = rc.InputFormat
	}
	if len(rc.Formats) > 0 && unset("format") {
		opts.Formats = rc.Formats
	}
	if rc.Width > 0 && unset("width") {
		opts.Width = rc.Width
	}
	if rc.Height > 0 && unset("height") {
		opts.Height = rc.Height
	}
	if rc.Padding > 0 && unset("padding") {
		opts.PaddingInner = rc.Padding
	}
	if rc.Round && unset("round") {
		opts.Round = true
	}
	if rc.Seed != 0 && unset("seed") {
		opts.Seed = rc.Seed
	}
	if rc.Separator != "" && unset("separator") {
		opts.Separator = rc.Separator
	}
	if len(rc.Colors) > 0 {
		merged := make(map[string]string, len(rc.Colors)+len(opts.Colors))
		for lang, hex := range rc.Colors {
			merged[lang] = hex
		}
		for lang, hex := range opts.Colors {
			merged[lang] = hex
		}
		opts.Colors = merged
	}
	if rc.Bars && unset("bars") {
		opts.Bars = true
	}
	if rc.Panels && unset("panels") {
		opts.Panels = true
	}
	if rc.Legend && unset("legend") {
		opts.Legend = true
	}
	if rc.Duration > 0 && unset("duration") {
		opts.Duration = rc.Duration
	}
	if rc.NoCache && noCache != nil && unset("no-cache") {
		*noCache = true
	}
}

// sourceArg picks the source: the positional argument, then the config
// file, then the pipeline default.
func (rc RenderConfig) sourceArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return rc.Source
}

// configCommand creates the config inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the config file",
	}
	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configInitCommand())
	return cmd
}

func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.configFilePath()
			if err != nil {
				return fmt.Errorf("get config path: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective config as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
}

func (c *CLI) configInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the built-in defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.configFilePath()
			if err != nil {
				return fmt.Errorf("get config path: %w", err)
			}
			if _, err := os.Stat(path); err == nil && !force {
				printWarning("Config already exists: %s (use --force to overwrite)", path)
				return nil
			}
			if err := writeDefaultConfig(path); err != nil {
				return err
			}
			printSuccess("Config written")
			printFile(path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func defaultConfig() Config {
	cfg := Config{
		Render: RenderConfig{
			Formats:   []string{pipeline.FormatSVG},
			Width:     pipeline.DefaultWidth,
			Height:    pipeline.DefaultHeight,
			Seed:      pipeline.DefaultSeed,
			Duration:  pipeline.DefaultDuration,
			Separator: view.DefaultSeparator,
		},
	}
	cfg.Serve.SetDefaults()
	return cfg
}

func writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(defaultConfig()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return f.Close()
}
