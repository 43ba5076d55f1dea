package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/emrgen/bookshelf/internal/model"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
)

const (
	// EnvConfigPath overrides the location of the config file.
	EnvConfigPath = "BOOKSHELF_CONFIG"
	// EnvRootDirectory overrides the configured root directory.
	EnvRootDirectory = "BOOKSHELF_ROOT"

	settingsKey = "settings"
)

// Config is the resolved configuration of a bookshelf.
type Config struct {
	RootDirectory  string `koanf:"root_directory"`
	DBFilename     string `koanf:"db_filename"`
	TableName      string `koanf:"table_name"`
	InboxDirectory string `koanf:"inbox_directory"`
	FilesDirectory string `koanf:"files_directory"`
	Viewer         string `koanf:"viewer"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	viewer := "xdg-open"
	if runtime.GOOS == "darwin" {
		viewer = "open"
	}

	return &Config{
		RootDirectory:  "~/bookshelf",
		DBFilename:     "_database.db",
		TableName:      "docs",
		InboxDirectory: "inbox",
		FilesDirectory: "files",
		Viewer:         viewer,
	}
}

// DefaultPath returns ~/.config/bookshelf/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "bookshelf", "config.yaml")
	}

	return filepath.Join(home, ".config", "bookshelf", "config.yaml")
}

// LoadConfig loads the config file named by BOOKSHELF_CONFIG, falling back to DefaultPath.
func LoadConfig() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = DefaultPath()
	}

	return LoadFile(path)
}

// LoadFile loads the settings section of a yaml or json file on top of the defaults.
// A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		logrus.Debugf("loaded config from %s", path)
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	return resolve(k)
}

// LoadBytes loads a yaml document, mostly useful in tests.
func LoadBytes(data []byte) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, err
	}

	return resolve(k)
}

func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Parser()
	}

	return yaml.Parser()
}

func resolve(k *koanf.Koanf) (*Config, error) {
	cfg := Default()
	if err := k.Unmarshal(settingsKey, cfg); err != nil {
		return nil, err
	}

	if root := os.Getenv(EnvRootDirectory); root != "" {
		cfg.RootDirectory = root
	}
	cfg.RootDirectory = ExpandHome(cfg.RootDirectory)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the fields that are interpolated into paths or SQL.
func (c *Config) Validate() error {
	if !model.ValidTableName(c.TableName) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, c.TableName)
	}
	if c.RootDirectory == "" {
		return fmt.Errorf("root directory is empty")
	}
	if c.DBFilename == "" || c.InboxDirectory == "" || c.FilesDirectory == "" {
		return fmt.Errorf("db_filename, inbox_directory and files_directory must be set")
	}

	return nil
}

// DBPath is the database file inside the root directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.RootDirectory, c.DBFilename)
}

// InboxPath is the holding area for removed and exported files.
func (c *Config) InboxPath() string {
	return filepath.Join(c.RootDirectory, c.InboxDirectory)
}

// FilesPath is the root of the sharded blob tree.
func (c *Config) FilesPath() string {
	return filepath.Join(c.RootDirectory, c.FilesDirectory)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
