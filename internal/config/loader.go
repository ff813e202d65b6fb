package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the file looked up in the user and local config directories.
const ConfigFileName = "snakerooms.yaml"

// Environment variables that override file configuration.
const (
	EnvHTTPAddr       = "SNAKEROOMS_HTTP_ADDR"
	EnvAllowedOrigins = "SNAKEROOMS_ALLOWED_ORIGINS"
	EnvSSHAddr        = "SNAKEROOMS_SSH_ADDR"
	EnvSSHEnabled     = "SNAKEROOMS_SSH_ENABLED"
	EnvDBPath         = "SNAKEROOMS_DB_PATH"
	EnvLogLevel       = "SNAKEROOMS_LOG_LEVEL"
	EnvTickRate       = "SNAKEROOMS_TICK_RATE"
	EnvRoomIdle       = "SNAKEROOMS_ROOM_IDLE_TIMEOUT"
)

// Load loads the server configuration.
// Search order: customPath -> ~/.snakerooms/configs/snakerooms.yaml -> ./configs/snakerooms.yaml -> embedded default.
// A .env file in the working directory and SNAKEROOMS_* variables are applied on top.
func Load(customPath string) (Config, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}

	if err := LoadDotEnv(); err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(customPath string) (Config, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return DefaultConfig(), fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath(ConfigFileName); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if cfg, err := Parse(data); err == nil {
				return cfg, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", ConfigFileName)); err == nil {
		if cfg, err := Parse(data); err == nil {
			return cfg, nil
		}
	}

	// Use embedded default YAML
	cfg, err := Parse(defaultYAML)
	if err != nil {
		return DefaultConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// Parse decodes YAML on top of DefaultConfig, so omitted keys keep their defaults.
// A palette given in the file replaces the default palette instead of merging with it.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	cfg.Game.Palette = nil

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}
	if cfg.Game.Palette == nil {
		cfg.Game.Palette = DefaultConfig().Game.Palette
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// LoadDotEnv loads environment files (default ".env") without overriding variables
// that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides configuration values from SNAKEROOMS_* environment variables.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvHTTPAddr); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := os.Getenv(EnvAllowedOrigins); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.AllowedOrigins = origins
	}
	if v := os.Getenv(EnvSSHAddr); v != "" {
		cfg.SSH.Addr = v
	}
	if v := os.Getenv(EnvSSHEnabled); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", EnvSSHEnabled, err)
		}
		cfg.SSH.Enabled = enabled
	}
	if v, ok := os.LookupEnv(EnvDBPath); ok {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvTickRate); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", EnvTickRate, err)
		}
		cfg.Game.TickRate = rate
	}
	if v := os.Getenv(EnvRoomIdle); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", EnvRoomIdle, err)
		}
		cfg.Rooms.IdleTimeout = d
	}
	return nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".snakerooms", "configs", filename)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
