package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// Config represents the application configuration, backed by a filesystem for
// persistence.
type Config struct {
	Database Database

	fs   vfs.FileSystem
	path string
}

// NewConfig creates a new Config instance with the specified filesystem
// and configuration file path.
func NewConfig(fs vfs.FileSystem, path string) *Config {
	return &Config{fs: fs, path: path}
}

// Load reads and parses the configuration file from the filesystem.
// If the file doesn't exist, it initializes with an empty configuration.
func (c *Config) Load() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}

	configJSON, err := vfs.ReadFile(c.fs, c.path)
	if err != nil && !vfs.IsErrNotExist(err) {
		return fmt.Errorf("failed reading configuration file: %w", err)
	}

	// Ensure that unmarshalling JSON doesn't fail if the file doesn't exist or is empty.
	if len(configJSON) == 0 {
		configJSON = []byte("{}")
	}

	if err = json.Unmarshal(configJSON, c); err != nil {
		return fmt.Errorf("failed parsing configuration file: %w", err)
	}

	return nil
}

// Path returns the filesystem path where the configuration is stored.
func (c *Config) Path() string {
	return c.path
}

// Save writes the current configuration to the filesystem as JSON.
func (c *Config) Save() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}
	configJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed serializing configuration data: %w", err)
	}
	if err = vfs.WriteFile(c.fs, c.path, configJSON, 0o644); err != nil {
		return fmt.Errorf("failed writing configuration file: %w", err)
	}

	return nil
}

// Database defines configuration options for the schema store.
type Database struct {
	// URL is the connection string of the schema store: either a SQLite path/DSN
	// or a postgres:// URL. Credentials are supplied here or via the process
	// environment; the tool itself defines no authentication mechanics.
	URL sql.Null[string] `json:"url"`
}

type cfgWrapper struct {
	Database dbCfgWrapper `json:"database"`
}

type dbCfgWrapper struct {
	URL string `json:"url,omitempty"`
}

// MarshalJSON implements custom JSON marshaling to convert sql.Null values
// to their underlying types, omitting invalid/null fields from the output.
func (c Config) MarshalJSON() ([]byte, error) {
	w := cfgWrapper{}

	if c.Database.URL.Valid {
		w.Database.URL = c.Database.URL.V
	}

	//nolint:wrapcheck // The caller wraps this error.
	return json.Marshal(w)
}

// UnmarshalJSON implements custom JSON unmarshaling, treating missing or empty
// fields as unset values.
func (c *Config) UnmarshalJSON(data []byte) error {
	w := cfgWrapper{}
	if err := json.Unmarshal(data, &w); err != nil {
		//nolint:wrapcheck // The caller wraps this error.
		return err
	}

	if w.Database.URL != "" {
		c.Database.URL = sql.Null[string]{V: w.Database.URL, Valid: true}
	}

	return nil
}
