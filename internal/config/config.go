// Package config loads server settings from a TOML or YAML file and the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/game"
)

type Config struct {
	Addr string `toml:"addr" yaml:"addr"`

	// Origins allowed to open a websocket. Requests without an Origin header
	// are always accepted.
	Origins []string `toml:"origins" yaml:"origins"`

	// Disks is the size of newly created puzzles.
	Disks int `toml:"disks" yaml:"disks"`

	AutoSolvePaceMs int    `toml:"auto_solve_pace_ms" yaml:"auto_solve_pace_ms"`
	ScriptDir       string `toml:"script_dir" yaml:"script_dir"`
	LogLevel        string `toml:"log_level" yaml:"log_level"`
}

func Default() Config {
	return Config{
		Addr:            ":8080",
		Origins:         localOrigins(":8080"),
		Disks:           game.DefaultDisks,
		AutoSolvePaceMs: 500,
		LogLevel:        "info",
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file. Unless the file or
// ORIGIN_ALLOWLIST names origins, localhost on the listen port is allowed.
func Load(path string) (Config, error) {
	cfg := Default()
	cfg.Origins = nil
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if len(cfg.Origins) == 0 {
		cfg.Origins = localOrigins(cfg.Addr)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetAddr changes the listen address. Origins still derived from the old
// address follow it.
func (c *Config) SetAddr(addr string) {
	if slices.Equal(c.Origins, localOrigins(c.Addr)) {
		c.Origins = localOrigins(addr)
	}
	c.Addr = addr
}

// localOrigins allows pages served by this process itself.
func localOrigins(addr string) []string {
	port := addr
	if _, p, err := net.SplitHostPort(addr); err == nil {
		port = p
	}
	return []string{"http://localhost:" + port, "http://127.0.0.1:" + port}
}

func decodeFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(b, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, cfg)
	default:
		return fmt.Errorf("config: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		c.Addr = ":" + v
	}
	if v := getenv("ORIGIN_ALLOWLIST"); v != "" {
		c.Origins = strings.Split(v, ",")
	}
	if v := getenv("HANOI_DISKS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: HANOI_DISKS: %w", err)
		}
		c.Disks = n
	}
	if v := getenv("HANOI_SCRIPT_DIR"); v != "" {
		c.ScriptDir = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate rejects out of range disk counts rather than clamping them.
func (c Config) Validate() error {
	if err := game.ValidateDiskCount(c.Disks); err != nil {
		return err
	}
	if c.AutoSolvePaceMs < 0 {
		return fmt.Errorf("config: auto_solve_pace_ms must not be negative, got %d", c.AutoSolvePaceMs)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c Config) AutoSolvePace() time.Duration {
	return time.Duration(c.AutoSolvePaceMs) * time.Millisecond
}

// Logger returns a text logger writing to stdout at the configured level.
func (c Config) Logger() *slog.Logger {
	lvl, _ := parseLevel(c.LogLevel)
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", s)
	}
}
