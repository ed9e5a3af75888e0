package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	History  HistoryConfig  `toml:"history"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Server   ServerConfig   `toml:"server"`
	Keys     KeyConfig      `toml:"keys"`
}

type HistoryConfig struct {
	Capacity  int `toml:"capacity"`
	MaxStacks int `toml:"max_stacks"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"` // debug | info | warn | error
}

type ServerConfig struct {
	Bind        string `toml:"bind"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type KeyConfig struct {
	Undo      string `toml:"undo"`
	Redo      string `toml:"redo"`
	ClearRedo string `toml:"clear_redo"`
}

func Default(dbPath string) Config {
	return Config{
		History: HistoryConfig{
			Capacity:  20,
			MaxStacks: 5,
		},
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:4333",
			MCPEndpoint: "/mcp",
		},
		Keys: KeyConfig{
			Undo:      "u",
			Redo:      "r",
			ClearRedo: "x",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if c.History.Capacity < 1 {
		return fmt.Errorf("history.capacity must be >= 1, got %d", c.History.Capacity)
	}
	if c.History.MaxStacks < 1 {
		return fmt.Errorf("history.max_stacks must be >= 1, got %d", c.History.MaxStacks)
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind is required")
	}
	endpoint := strings.TrimSpace(c.Server.MCPEndpoint)
	if endpoint == "" || !strings.HasPrefix(endpoint, "/") {
		return fmt.Errorf("server.mcp_endpoint must start with /, got %q", c.Server.MCPEndpoint)
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
