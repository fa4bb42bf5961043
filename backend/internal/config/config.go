package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	appName    = "padbind"
	configFile = "config.yaml"
	envPrefix  = "PADBIND"
)

// Configuration keys.
const (
	KeyServerAddr      = "server.addr"
	KeyLogLevel        = "log.level"
	KeyFrontendMinify  = "frontend.minify"
	KeyBindingsEnabled = "bindings.enabled"
	KeyBindingsMap     = "bindings.map"
	KeyKeepRemembered  = "bindings.keep_remembered"
)

// Flag names bound to configuration keys when present on the flag set.
var flagKeys = map[string]string{
	"addr":      KeyServerAddr,
	"log-level": KeyLogLevel,
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Frontend FrontendConfig `mapstructure:"frontend"`
	Bindings BindingsConfig `mapstructure:"bindings"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type FrontendConfig struct {
	Minify bool `mapstructure:"minify"`
}

// BindingsConfig is the persisted player binding state.
type BindingsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Map is the serialized player map, comma-terminated "player:device" pairs.
	Map            string `mapstructure:"map"`
	KeepRemembered bool   `mapstructure:"keep_remembered"`
}

// Store reads the configuration file and writes binding changes back to it.
type Store struct {
	v    *viper.Viper
	path string
	mu   sync.Mutex
}

// DefaultDir returns the platform configuration directory:
//   - Linux: $XDG_CONFIG_HOME/padbind or $HOME/.config/padbind
//   - macOS: $HOME/.config/padbind
//   - Windows: %LOCALAPPDATA%\padbind
func DefaultDir() (string, error) {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, appName), nil
		}
		profile := os.Getenv("USERPROFILE")
		if profile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(profile, "AppData", "Local", appName), nil
	}

	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" && runtime.GOOS != "darwin" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the full path of the default configuration file.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Open loads the configuration at path, or at DefaultPath when path is empty.
// A missing file is not an error. Environment variables prefixed with PADBIND_
// and the flags in flags override file values.
func Open(path string, flags *pflag.FlagSet) (*Store, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	return &Store{v: v, path: path}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyServerAddr, ":8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyFrontendMinify, true)
	v.SetDefault(KeyBindingsEnabled, false)
	v.SetDefault(KeyBindingsMap, "")
	v.SetDefault(KeyKeepRemembered, false)
}

// Path returns the configuration file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the effective configuration.
func (s *Store) Load() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg Config
	if err := s.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// SaveBindings writes the binding keys to the configuration file, leaving the
// rest of the file as it is. Flag and environment overrides are not written.
func (s *Store) SaveBindings(serialized string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	// Serialize writers across processes, e.g. "bindings enable" while serving.
	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock config %s: %w", s.path, err)
	}
	defer func() { _ = lock.Unlock() }()

	file := viper.New()
	file.SetConfigFile(s.path)
	file.SetConfigType("yaml")
	if _, err := os.Stat(s.path); err == nil {
		if err := file.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", s.path, err)
		}
	}
	file.Set(KeyBindingsMap, serialized)
	file.Set(KeyBindingsEnabled, enabled)

	if err := file.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write config %s: %w", s.path, err)
	}

	s.v.Set(KeyBindingsMap, serialized)
	s.v.Set(KeyBindingsEnabled, enabled)
	return nil
}
