// File: internal/config/config.go
// Brief: Per-user configuration file loading and the config directory layout.

// Package config loads dbox's optional per-user configuration: environment
// overrides for composed snapshots, the container engine binary and its extra
// arguments, and the image name prefix for a private registry.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvConfigFile overrides the configuration file location when set.
const EnvConfigFile = "DBOX_CONFIG"

// Config is the parsed configuration file. All fields are optional.
type Config struct {
	// Env overlays the process environment during composition. A key whose
	// name is a recognized path variable replaces the seeded process value;
	// an empty value drops the seed. Any other key is carried into every
	// snapshot verbatim.
	Env map[string]string `mapstructure:"env"`

	// Podman is the container engine binary, default "podman".
	Podman string `mapstructure:"podman"`

	// PodmanArgs holds extra arguments inserted into every engine
	// invocation, in shell quoting.
	PodmanArgs string `mapstructure:"podman_args"`

	// HostPrefix is prepended to generated image names, e.g.
	// "registry.example.com/build".
	HostPrefix string `mapstructure:"host_prefix"`
}

// ExtraPodmanArgs parses the podman_args value shell-style.
func (c *Config) ExtraPodmanArgs() ([]string, error) {
	if strings.TrimSpace(c.PodmanArgs) == "" {
		return nil, nil
	}
	args, err := shellwords.Parse(c.PodmanArgs)
	if err != nil {
		return nil, fmt.Errorf("parse podman_args %q: %w", c.PodmanArgs, err)
	}
	return args, nil
}

// Dir returns the directory new configuration and stack records are written
// to: $XDG_CONFIG_HOME/dbox, falling back to ~/.config/dbox.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dbox")
	}
	home, err := homedir.Dir()
	if err != nil || home == "" {
		return ".dbox"
	}
	return filepath.Join(home, ".config", "dbox")
}

// SearchDirs lists the directories probed for an existing config file, most
// specific first.
func SearchDirs() []string {
	added := make(map[string]struct{})
	var dirs []string
	add := func(path string) {
		if path == "" {
			return
		}
		if _, ok := added[path]; ok {
			return
		}
		added[path] = struct{}{}
		dirs = append(dirs, path)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		add(filepath.Join(xdg, "dbox"))
	}
	if home, err := homedir.Dir(); err == nil && home != "" {
		add(filepath.Join(home, ".config", "dbox"))
		add(filepath.Join(home, ".dbox"))
	}
	return dirs
}

// Load reads the configuration file. A missing file is not an error unless
// DBOX_CONFIG names one explicitly.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("podman", "podman")

	explicit := os.Getenv(EnvConfigFile)
	if explicit != "" {
		if expanded, err := homedir.Expand(explicit); err == nil {
			explicit = expanded
		}
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range SearchDirs() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || explicit != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := reloadEnvBlock(cfg, v.ConfigFileUsed()); err != nil {
		return nil, err
	}
	if cfg.Env == nil {
		cfg.Env = map[string]string{}
	}
	return cfg, nil
}

// reloadEnvBlock re-reads the env section straight from the file. Viper folds
// every map key to lower case, and environment variable names are
// case-significant.
func reloadEnvBlock(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var doc struct {
		Env map[string]string `yaml:"env"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Env = doc.Env
	return nil
}
