package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	FileName           = "docsync.yaml"
	EnvPrefix          = "DOCSYNC"
	DefaultConcurrency = 4
	DefaultOutputDir   = "docs"
)

type Config struct {
	APIURL          string       `yaml:"api_url" mapstructure:"api_url"`
	APIKey          string       `yaml:"api_key,omitempty" mapstructure:"api_key"`
	OutputDir       string       `yaml:"output_dir,omitempty" mapstructure:"output_dir"`
	Concurrency     int          `yaml:"concurrency,omitempty" mapstructure:"concurrency"`
	IncludeImages   bool         `yaml:"include_images" mapstructure:"include_images"`
	EmitFrontmatter bool         `yaml:"emit_frontmatter" mapstructure:"emit_frontmatter"`
	Collections     []Collection `yaml:"collections,omitempty" mapstructure:"collections"`

	// base is the directory relative output paths are resolved against.
	base string
}

type Collection struct {
	ID              string     `yaml:"id" mapstructure:"id"`
	URLID           string     `yaml:"url_id,omitempty" mapstructure:"url_id"`
	Name            string     `yaml:"name,omitempty" mapstructure:"name"`
	Description     string     `yaml:"description,omitempty" mapstructure:"description"`
	OutputDirectory string     `yaml:"output_directory,omitempty" mapstructure:"output_directory"`
	Sync            SyncPolicy `yaml:"sync,omitempty" mapstructure:"sync"`
}

type SyncPolicy struct {
	// Enabled defaults to true when unset.
	Enabled  *bool `yaml:"enabled,omitempty" mapstructure:"enabled"`
	ReadOnly bool  `yaml:"read_only,omitempty" mapstructure:"read_only"`
}

func (c Collection) Enabled() bool {
	return c.Sync.Enabled == nil || *c.Sync.Enabled
}

// Label is the collection's display name, falling back to its id.
func (c Collection) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Dir is the directory the collection syncs to under root.
func (c Collection) Dir(root string) string {
	if c.OutputDirectory != "" {
		if filepath.IsAbs(c.OutputDirectory) {
			return c.OutputDirectory
		}
		return filepath.Join(root, c.OutputDirectory)
	}
	name := slug.Make(c.Label())
	if name == "" {
		name = c.ID
	}
	return filepath.Join(root, name)
}

func Default() *Config {
	return &Config{
		OutputDir:       DefaultOutputDir,
		Concurrency:     DefaultConcurrency,
		IncludeImages:   true,
		EmitFrontmatter: true,
	}
}

// Load reads the config file at path, with DOCSYNC_* environment variables
// taking precedence. An empty path or a missing file yields the defaults
// plus the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("api_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("output_dir", def.OutputDir)
	v.SetDefault("concurrency", def.Concurrency)
	v.SetDefault("include_images", def.IncludeImages)
	v.SetDefault("emit_frontmatter", def.EmitFrontmatter)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConcurrency
	}
	if path != "" {
		cfg.base = filepath.Dir(path)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Root is the output root. A relative output_dir is resolved against the
// config file's directory.
func (c *Config) Root() string {
	dir := c.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}
	if filepath.IsAbs(dir) || c.base == "" {
		return dir
	}
	return filepath.Join(c.base, dir)
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	seen := make(map[string]bool, len(c.Collections))
	for i, col := range c.Collections {
		if col.ID == "" {
			return fmt.Errorf("collections[%d]: id is required", i)
		}
		if seen[col.ID] {
			return fmt.Errorf("collections[%d]: duplicate id %s", i, col.ID)
		}
		seen[col.ID] = true
	}
	return nil
}

// Select returns the enabled collections matching filter by id, url id or
// name. An empty filter selects every enabled collection.
func (c *Config) Select(filter []string) ([]Collection, error) {
	var out []Collection
	if len(filter) == 0 {
		for _, col := range c.Collections {
			if col.Enabled() {
				out = append(out, col)
			}
		}
		return out, nil
	}
	for _, f := range filter {
		col, ok := c.find(f)
		if !ok {
			return nil, fmt.Errorf("collection %q not found in config", f)
		}
		if !col.Enabled() {
			continue
		}
		out = append(out, col)
	}
	return out, nil
}

func (c *Config) find(key string) (Collection, bool) {
	for _, col := range c.Collections {
		if col.ID == key || (col.URLID != "" && col.URLID == key) || strings.EqualFold(col.Name, key) {
			return col, true
		}
	}
	return Collection{}, false
}
