package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	httpAdapter "github.com/aretw0/wphook/pkg/adapters/http"
	"github.com/aretw0/wphook/pkg/domain"
	"gopkg.in/yaml.v3"
)

// DefaultListen is the listen address used when the file sets none.
const DefaultListen = ":3000"

// Config is the server configuration file.
type Config struct {
	Listen       string               `yaml:"listen" json:"listen"`
	Path         string               `yaml:"path" json:"path"`
	AdminPrefix  *string              `yaml:"admin_prefix" json:"admin_prefix"`
	MaxBodySize  int64                `yaml:"max_body_size" json:"max_body_size"`
	Relay        RelayConfig          `yaml:"relay" json:"relay"`
	Auth         *Component           `yaml:"auth" json:"auth"`
	Default      *Component           `yaml:"default" json:"default"`
	Categories   map[string]Component `yaml:"categories" json:"categories"`
	CategoryAuth *Component           `yaml:"category_auth" json:"category_auth"`
}

// RelayConfig controls the outbound relay.
type RelayConfig struct {
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	Disabled bool          `yaml:"disabled" json:"disabled"`
}

// Component names a handler or authenticator kind and its options.
type Component struct {
	Type    string         `yaml:"type" json:"type"`
	Options map[string]any `yaml:"options" json:"options"`
}

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Default returns the configuration used when no file exists:
// every post is relayed unchanged and nobody is authenticated.
func Default() *Config {
	return &Config{
		Listen: DefaultListen,
		Path:   httpAdapter.DefaultPath,
	}
}

// Load reads a configuration file (YAML or JSON). A missing file yields Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.Path == "" {
		cfg.Path = httpAdapter.DefaultPath
	}
	return cfg, cfg.Validate()
}

// Validate checks the structure of the file. Option values are checked when
// the registration is built.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("%w: path %q must start with /", ErrInvalid, c.Path)
	}
	if c.Relay.Timeout < 0 {
		return fmt.Errorf("%w: relay.timeout must not be negative", ErrInvalid)
	}
	if c.MaxBodySize < 0 {
		return fmt.Errorf("%w: max_body_size must not be negative", ErrInvalid)
	}
	for _, name := range c.CategoryNames() {
		if name == domain.AuthCategory {
			return fmt.Errorf("%w: category %q is reserved, use category_auth", ErrInvalid, name)
		}
		if c.Categories[name].Type == "" {
			return fmt.Errorf("%w: category %q has no type", ErrInvalid, name)
		}
	}
	if len(c.Categories) == 0 && c.CategoryAuth != nil {
		return fmt.Errorf("%w: category_auth requires categories", ErrInvalid)
	}
	for field, comp := range map[string]*Component{"auth": c.Auth, "default": c.Default, "category_auth": c.CategoryAuth} {
		if comp != nil && comp.Type == "" {
			return fmt.Errorf("%w: %s has no type", ErrInvalid, field)
		}
	}
	return nil
}

// CategoryNames returns the configured category names, sorted.
func (c *Config) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for name := range c.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AdminPrefixOr returns the configured admin prefix or fallback when unset.
// An explicit empty string disables the prefix.
func (c *Config) AdminPrefixOr(fallback string) string {
	if c.AdminPrefix == nil {
		return fallback
	}
	return *c.AdminPrefix
}
