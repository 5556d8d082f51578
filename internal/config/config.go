// Package config loads and saves the TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/ramonehamilton/mtg-binder/internal/collection"
)

const dirName = ".mtg-binder"

// Config represents the application configuration.
type Config struct {
	// Collection file and view settings
	Collection CollectionConfig `toml:"collection"`

	// Image cache configuration
	Cache CacheConfig `toml:"cache"`

	// Remote card database configuration
	Remote RemoteConfig `toml:"remote"`

	// Set catalog storage
	Storage StorageConfig `toml:"storage"`

	// Application configuration
	App AppConfig `toml:"app"`

	path string
}

// CollectionConfig contains collection settings.
type CollectionConfig struct {
	Path     string `toml:"path"`     // Collection file
	Language string `toml:"language"` // BCP-47 tag; empty or "en" for printed English
	SortKey  string `toml:"sort_key"` // name, mana_cost, type or rarity
}

// CacheConfig contains image cache settings.
type CacheConfig struct {
	ArchivePath string `toml:"archive_path"` // Zip archive of downloaded artwork
	RAMEntries  int    `toml:"ram_entries"`  // Decoded images kept in memory
}

// RemoteConfig contains card database client settings.
type RemoteConfig struct {
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Timeout           string  `toml:"timeout"` // e.g. "30s"
}

// StorageConfig contains set catalog settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration rooted at the user's
// home directory.
func DefaultConfig() *Config {
	dir := defaultDir()
	return &Config{
		Collection: CollectionConfig{
			Path:    filepath.Join(dir, "collection.mtgb"),
			SortKey: "name",
		},
		Cache: CacheConfig{
			ArchivePath: filepath.Join(dir, "images.zip"),
			RAMEntries:  50,
		},
		Remote: RemoteConfig{
			BaseURL:           "https://api.magicthegathering.io/v1",
			RequestsPerSecond: 5,
			Timeout:           "30s",
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(dir, "catalog.db"),
		},
	}
}

func defaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	return filepath.Join(homeDir, dirName)
}

// DefaultPath returns the path of the configuration file.
func DefaultPath() string {
	return filepath.Join(defaultDir(), "config.toml")
}

// Load loads the configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom loads the configuration from path. Returns the default config if
// the file doesn't exist. Keys missing from the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	config := DefaultConfig()
	config.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultPath()
	}
	return c.path
}

// Save saves the configuration to the file it was loaded from.
func (c *Config) Save() error {
	path := c.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Collection.Path == "" {
		return fmt.Errorf("collection path is required")
	}

	if _, err := c.LanguageName(); err != nil {
		return err
	}

	if _, err := collection.ParseSortKey(c.Collection.SortKey); err != nil {
		return err
	}

	if c.Cache.ArchivePath == "" {
		return fmt.Errorf("cache archive path is required")
	}

	if c.Cache.RAMEntries < 1 {
		return fmt.Errorf("cache ram entries must be positive: %d", c.Cache.RAMEntries)
	}

	if c.Remote.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive: %v", c.Remote.RequestsPerSecond)
	}

	if _, err := c.RemoteTimeout(); err != nil {
		return err
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage db path is required")
	}

	return nil
}

// RemoteTimeout returns the remote request timeout as a duration.
func (c *Config) RemoteTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid remote timeout %q: %w", c.Remote.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("remote timeout must be positive: %s", d)
	}
	return d, nil
}

// The card database names some languages differently than CLDR does.
var remoteLanguageNames = map[string]string{
	"zh-Hans": "Chinese Simplified",
	"zh-Hant": "Chinese Traditional",
	"pt":      "Portuguese (Brazil)",
	"pt-BR":   "Portuguese (Brazil)",
}

// LanguageName returns the English name the card database uses for the
// configured language, or "" for printed English.
func (c *Config) LanguageName() (string, error) {
	if c.Collection.Language == "" {
		return "", nil
	}

	tag, err := language.Parse(c.Collection.Language)
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", c.Collection.Language, err)
	}

	base, _ := tag.Base()
	if base.String() == "en" {
		return "", nil
	}

	if name, ok := remoteLanguageNames[tag.String()]; ok {
		return name, nil
	}

	// Scripts and regions are dropped: the card database only knows the
	// base language for everything not listed above.
	name := display.English.Languages().Name(language.Make(base.String()))
	if name == "" {
		return "", fmt.Errorf("no English name for language %q", c.Collection.Language)
	}
	return name, nil
}
