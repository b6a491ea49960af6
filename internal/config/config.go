package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/benaskins/lockbox/internal/keychain"
	"github.com/spf13/viper"
)

// Config holds store settings loaded from ~/.lockbox/config.yaml, with
// LOCKBOX_* environment overrides.
type Config struct {
	Namespace     string `mapstructure:"namespace"`
	AccessGroup   string `mapstructure:"access_group"`
	Backend       string `mapstructure:"backend"`
	Codec         string `mapstructure:"codec"`
	Accessibility string `mapstructure:"accessibility"`
	StrictReads   bool   `mapstructure:"strict_reads"`
}

const (
	BackendKeychain = "keychain"
	BackendKeyring  = "keyring"

	CodecJSON = "json"
	CodecYAML = "yaml"
)

// DefaultPath returns the default config file path: ~/.lockbox/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lockbox", "config.yaml")
}

// Load reads a YAML config file from path. A missing file, an empty file,
// or an empty path all yield the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("namespace", "com.lockbox")
	v.SetDefault("access_group", "")
	v.SetDefault("backend", BackendKeychain)
	v.SetDefault("codec", CodecJSON)
	v.SetDefault("accessibility", keychain.DefaultAccessibility.String())
	v.SetDefault("strict_reads", false)

	v.SetEnvPrefix("LOCKBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("validating config: %w", errors.Join(errs...))
	}
	return &cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() []error {
	var errs []error

	if c.Namespace == "" {
		errs = append(errs, errors.New("config: namespace must not be empty"))
	}
	switch c.Backend {
	case BackendKeychain, BackendKeyring:
	default:
		errs = append(errs, fmt.Errorf("config: backend must be one of [%s, %s], got %q",
			BackendKeychain, BackendKeyring, c.Backend))
	}
	switch c.Codec {
	case CodecJSON, CodecYAML:
	default:
		errs = append(errs, fmt.Errorf("config: codec must be one of [%s, %s], got %q",
			CodecJSON, CodecYAML, c.Codec))
	}
	if _, err := keychain.ParseAccessibility(c.Accessibility); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}

	return errs
}

// AccessibilityClass returns the parsed accessibility setting.
func (c *Config) AccessibilityClass() keychain.Accessibility {
	a, err := keychain.ParseAccessibility(c.Accessibility)
	if err != nil {
		return keychain.DefaultAccessibility
	}
	return a
}

// NewBackend returns the configured backend.
func (c *Config) NewBackend() keychain.Backend {
	if c.Backend == BackendKeyring {
		return keychain.NewKeyringBackend()
	}
	return keychain.NewSystemBackend()
}

// StoreOptions translates the codec and read settings into store options.
func (c *Config) StoreOptions() []keychain.Option {
	var opts []keychain.Option
	if c.Codec == CodecYAML {
		opts = append(opts, keychain.WithCodec(keychain.YAMLCodec{}))
	}
	if c.StrictReads {
		opts = append(opts, keychain.WithStrictReads())
	}
	return opts
}

// Open builds a Store from the configuration.
func (c *Config) Open() *keychain.Store {
	return keychain.New(c.Namespace, c.AccessGroup, c.NewBackend(), c.StoreOptions()...)
}
