// Package config loads settle's installation configuration: what to
// install, where, and under which desktop identity. Precedence is
// defaults, then the first config file found, then SETTLE_* environment
// variables.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/settle-sh/settle/pkg/errors"
	"github.com/settle-sh/settle/pkg/logging"
)

// EnvPrefix is the prefix for environment overrides (SETTLE_APP_NAME,
// SETTLE_BUNDLE_PATH, ...).
const EnvPrefix = "SETTLE_"

// Config describes one installation.
type Config struct {
	// AppName identifies the application; it names the install root, the
	// desktop entry, and the environment snippet.
	AppName string `koanf:"app_name" toml:"app_name"`

	// BundlePath is the prepared bundle directory copied during install.
	BundlePath string `koanf:"bundle_path" toml:"bundle_path"`

	// Launcher is the launcher's path relative to the bundle root.
	Launcher string `koanf:"launcher" toml:"launcher"`

	// Privileged installs under /opt instead of the user's data dir.
	Privileged bool `koanf:"privileged" toml:"privileged"`

	// DisplayName is the human-readable name for the menu entry.
	DisplayName string `koanf:"display_name" toml:"display_name"`

	// Comment is the menu entry's description line.
	Comment string `koanf:"comment" toml:"comment"`

	// Categories are the freedesktop menu categories.
	Categories []string `koanf:"categories" toml:"categories"`

	// Environment holds the Wayland environment snippet's KEY=VALUE pairs.
	Environment map[string]string `koanf:"environment" toml:"environment"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"privileged": false,
		"categories": []string{"Utility"},
	}
}

// Load reads configuration from the first existing candidate file, with
// defaults underneath and environment overrides on top. Candidates ending
// in .yaml or .yml parse as YAML, everything else as TOML.
func Load(candidates []string) (Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigLoad, "cannot load defaults")
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		parser := pickParser(path)
		if err := k.Load(file.Provider(path), parser); err != nil {
			return Config{}, errors.Wrapf(err, errors.ErrConfigLoad, "cannot load config from %s", path)
		}
		logger.Debug().Str("path", path).Msg("Config file loaded")
		break
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigLoad, "cannot load environment overrides")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigLoad, "cannot unmarshal config")
	}

	if cfg.DisplayName == "" {
		cfg.DisplayName = cfg.AppName
	}
	if cfg.Launcher == "" {
		cfg.Launcher = cfg.AppName
	}

	return cfg, nil
}

// Validate checks that a forward installation can run with this config.
func (c Config) Validate() error {
	if c.AppName == "" {
		return errors.New(errors.ErrConfigValid, "app_name is required")
	}
	if c.BundlePath == "" {
		return errors.New(errors.ErrConfigValid, "bundle_path is required")
	}
	if !filepath.IsAbs(c.BundlePath) {
		return errors.Newf(errors.ErrConfigValid, "bundle_path must be absolute: %q", c.BundlePath)
	}
	return nil
}

func pickParser(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}
