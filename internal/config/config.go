package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	appDirName     = "incident-demo"
	configFileName = "config.toml"

	DefaultSource   = "demo/ui_mock_data.json"
	DefaultLogLevel = "info"
)

// Environment overrides. They sit between the config file and flags.
const (
	EnvConfig    = "INCIDENT_DEMO_CONFIG"
	EnvSource    = "INCIDENT_DEMO_SOURCE"
	EnvAltScreen = "INCIDENT_DEMO_ALT_SCREEN"
	EnvMouse     = "INCIDENT_DEMO_MOUSE"
	EnvLogLevel  = "INCIDENT_DEMO_LOG_LEVEL"
	EnvLogFile   = "INCIDENT_DEMO_LOG_FILE"
)

type Config struct {
	Scenarios ScenariosConfig `toml:"scenarios"`
	UI        UIConfig        `toml:"ui"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ScenariosConfig struct {
	Source string `toml:"source"`
}

type UIConfig struct {
	AltScreen bool `toml:"alt_screen"`
	Mouse     bool `toml:"mouse"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
	// File is the log destination. "-" means stderr and "off" disables logging.
	File string `toml:"file"`
}

func Default() Config {
	return Config{
		Scenarios: ScenariosConfig{Source: DefaultSource},
		UI:        UIConfig{AltScreen: true},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
			File:  filepath.Join(os.TempDir(), appDirName+".log"),
		},
	}
}

// Path returns the config file location: INCIDENT_DEMO_CONFIG, then
// $XDG_CONFIG_HOME/incident-demo/config.toml, then ~/.config/incident-demo/config.toml.
func Path() (string, error) {
	if explicit := envOr(EnvConfig, ""); explicit != "" {
		return explicit, nil
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, appDirName, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appDirName, configFileName), nil
}

// Load reads the config file at path (or the default location when path is
// empty) and applies environment overrides.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		resolved, err := Path()
		if err != nil {
			return Config{}, err
		}
		path = resolved
	}
	cfg, err := loadFromPath(path)
	if err != nil {
		return Config{}, err
	}
	return cfg.withEnv(), nil
}

func loadFromPath(path string) (Config, error) {
	cfg := Default()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c Config) withEnv() Config {
	c.Scenarios.Source = envOr(EnvSource, c.Scenarios.Source)
	c.UI.AltScreen = envOrBool(EnvAltScreen, c.UI.AltScreen)
	c.UI.Mouse = envOrBool(EnvMouse, c.UI.Mouse)
	c.Logging.Level = envOr(EnvLogLevel, c.Logging.Level)
	c.Logging.File = envOr(EnvLogFile, c.Logging.File)
	return c
}

func (c Config) Source() string {
	source := strings.TrimSpace(c.Scenarios.Source)
	if source == "" {
		return DefaultSource
	}
	return source
}

func (c Config) LogLevel() string {
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		return DefaultLogLevel
	}
	return level
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return fallback
	}
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
