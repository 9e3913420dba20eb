package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// Reconnect controls the realtime channel's retry schedule.
type Reconnect struct {
	BaseDelay time.Duration `yaml:"base_delay"`
	MaxDelay  time.Duration `yaml:"max_delay"`
	Factor    float64       `yaml:"factor"`
}

// Config holds client settings.
type Config struct {
	BaseURL   string    `yaml:"base_url"`
	SocketURL string    `yaml:"socket_url"`
	StateDir  string    `yaml:"state_dir"`
	Debug     bool      `yaml:"debug"`
	Reconnect Reconnect `yaml:"reconnect"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BaseURL:   "https://api.publimatch.app",
		SocketURL: "wss://api.publimatch.app/ws",
		Reconnect: Reconnect{
			BaseDelay: time.Second,
			MaxDelay:  30 * time.Second,
			Factor:    2,
		},
	}
}

// DefaultStateDir returns the directory holding the config file, session
// files, logs and the offline cache.
func DefaultStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".publimatch"), nil
}

// Load reads settings from stateDir/config.yaml (if present), then applies
// PUBLIMATCH_* environment overrides. A .env file in the working directory
// is honored the same way the environment is.
func Load(stateDir string) (Config, error) {
	cfg := Default()
	cfg.StateDir = stateDir

	path := filepath.Join(stateDir, configFileName)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}
	if cfg.StateDir == "" {
		cfg.StateDir = stateDir
	}

	_ = godotenv.Load()
	applyEnv(&cfg)

	if cfg.Reconnect.BaseDelay <= 0 {
		cfg.Reconnect.BaseDelay = time.Second
	}
	if cfg.Reconnect.MaxDelay < cfg.Reconnect.BaseDelay {
		cfg.Reconnect.MaxDelay = 30 * time.Second
	}
	if cfg.Reconnect.Factor < 1 {
		cfg.Reconnect.Factor = 2
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PUBLIMATCH_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("PUBLIMATCH_SOCKET_URL"); v != "" {
		cfg.SocketURL = v
	}
	if v := os.Getenv("PUBLIMATCH_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("PUBLIMATCH_DEBUG"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = parsed
		}
	}
}

// Save writes settings to stateDir/config.yaml.
func Save(cfg Config) error {
	if cfg.StateDir == "" {
		return fmt.Errorf("state dir not set")
	}
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	path := filepath.Join(cfg.StateDir, configFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
