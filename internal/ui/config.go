package ui

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is read from a TOML file; environment variables override it.
type Config struct {
	APIURL   string        `toml:"api_url"`
	Token    string        `toml:"token"`
	Timeout  time.Duration `toml:"timeout"`
	LogFile  string        `toml:"log_file"`
	LogLevel string        `toml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		APIURL:   "http://localhost:3000",
		Timeout:  10 * time.Second,
		LogFile:  filepath.Join(os.TempDir(), "todo-tui.log"),
		LogLevel: "info",
	}
}

// DefaultConfigPath is $XDG_CONFIG_HOME/todo/tui.toml or its platform equivalent.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "tui.toml"
	}
	return filepath.Join(dir, "todo", "tui.toml")
}

// LoadConfig reads path (a missing file is not an error) and applies
// TODO_API_URL, TODO_API_TOKEN and TODO_LOG_FILE.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultConfigPath()
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if v := os.Getenv("TODO_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("TODO_API_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("TODO_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	if cfg.APIURL == "" {
		return cfg, errors.New("api_url is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return cfg, nil
}
