// Package config handles loading and managing configuration for gleis.
// It supports loading from YAML files, environment variables, and
// hardcoded defaults.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for gleis.
type Config struct {
	// Notion holds credentials and schema settings for the hosted
	// task database.
	Notion NotionConfig `yaml:"notion"`

	// Listen is the HTTP listen address for the serve command.
	Listen string `yaml:"listen"`

	// Auth holds the basic-auth secrets. When either value is empty
	// the server runs open (development mode).
	Auth AuthConfig `yaml:"auth"`

	// RedisURL is the snapshot-cache connection URL. Empty disables
	// the cache; the server still works without it.
	RedisURL string `yaml:"redis_url"`

	// PollInterval is how often the board view re-fetches from the
	// upstream database.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`
}

// NotionConfig holds Notion credentials, the property-name map, and
// the defaults applied when creating tasks.
type NotionConfig struct {
	// APIKey is the integration token.
	APIKey string `yaml:"api_key"`

	// DatabaseID is the task database to query and mutate.
	DatabaseID string `yaml:"database_id"`

	// Properties maps logical fields onto the database's property names.
	Properties PropertyNames `yaml:"properties"`

	// StateIsSelect marks the state property as a plain select rather
	// than a status property; it changes how filters and mutations
	// address the field. Reads always accept either shape.
	StateIsSelect bool `yaml:"state_is_select"`

	// Defaults are the values stamped onto newly created tasks.
	Defaults TaskDefaults `yaml:"defaults"`
}

// PropertyNames maps each logical field to its configured property
// name in the database schema.
type PropertyNames struct {
	Name    string `yaml:"name"`
	State   string `yaml:"state"`
	Cat     string `yaml:"cat"`
	SubCat  string `yaml:"sub_cat"`
	Date    string `yaml:"date"`
	CatTag  string `yaml:"cat_tag"`
	Summary string `yaml:"summary"`
}

// TaskDefaults are applied when a task is created without explicit values.
type TaskDefaults struct {
	// Name is the placeholder title for tasks created with no name.
	Name string `yaml:"name"`

	// State is the workflow state stamped on new tasks.
	State string `yaml:"state"`

	// Cat and SubCat are the category tags stamped on new tasks.
	Cat    string `yaml:"cat"`
	SubCat string `yaml:"sub_cat"`

	// Done is the terminal state set by the completion operation.
	Done string `yaml:"done"`
}

// AuthConfig holds the basic-auth credentials.
type AuthConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	FilePath   string `yaml:"file_path"`
	JSON       bool   `yaml:"json"`
	Console    bool   `yaml:"console"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Default configuration values
const (
	DefaultListen       = ":3000"
	DefaultPollInterval = 60 * time.Second
	DefaultTaskName     = "新規タスク"
	DefaultTaskState    = "INBOX"
	DefaultTaskCat      = "Work"
	DefaultTaskSubCat   = "Task"
	DefaultDoneState    = "Done"
)

var (
	globalConfig *Config
	configOnce   sync.Once
	configErr    error
)

// Get returns the global configuration, loading it if necessary.
// This function is safe for concurrent use.
func Get() (*Config, error) {
	configOnce.Do(func() {
		globalConfig, configErr = Load()
	})
	return globalConfig, configErr
}

// MustGet returns the global configuration, panicking if loading fails.
func MustGet() *Config {
	cfg, err := Get()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	return cfg
}

// Load reads configuration from files and environment variables.
// Priority (highest to lowest):
// 1. Environment variables
// 2. ~/.config/gleis/config.yaml
// 3. ~/.gleis.yaml
// 4. Hardcoded defaults
func Load() (*Config, error) {
	cfg := &Config{
		Listen:       DefaultListen,
		PollInterval: DefaultPollInterval,
		Notion: NotionConfig{
			Properties: PropertyNames{
				Name:    "Name",
				State:   "State",
				Cat:     "Cat",
				SubCat:  "SubCat",
				Date:    "Date",
				CatTag:  "CatTag",
				Summary: "概要",
			},
			Defaults: TaskDefaults{
				Name:   DefaultTaskName,
				State:  DefaultTaskState,
				Cat:    DefaultTaskCat,
				SubCat: DefaultTaskSubCat,
				Done:   DefaultDoneState,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  true,
		},
	}

	// Try to load from config files (lowest priority file first)
	homeDir, err := os.UserHomeDir()
	if err == nil {
		// Try ~/.gleis.yaml first (will be overwritten by XDG config if present)
		legacyPath := filepath.Join(homeDir, ".gleis.yaml")
		if data, err := os.ReadFile(legacyPath); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}

		// Then try ~/.config/gleis/config.yaml (higher priority)
		xdgPath := filepath.Join(homeDir, ".config", "gleis", "config.yaml")
		if data, err := os.ReadFile(xdgPath); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}

		// Also try config.yml extension
		xdgPathYml := filepath.Join(homeDir, ".config", "gleis", "config.yml")
		if data, err := os.ReadFile(xdgPathYml); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	// Override with environment variables (highest priority)
	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvOverrides() {
	// Notion credentials (support GLEIS_ and the conventional names)
	if val := os.Getenv("GLEIS_NOTION_API_KEY"); val != "" {
		c.Notion.APIKey = val
	} else if val := os.Getenv("NOTION_API_KEY"); val != "" {
		c.Notion.APIKey = val
	}
	if val := os.Getenv("GLEIS_NOTION_DATABASE_ID"); val != "" {
		c.Notion.DatabaseID = val
	} else if val := os.Getenv("NOTION_DATABASE_ID"); val != "" {
		c.Notion.DatabaseID = val
	}

	// Listen address
	if val := os.Getenv("GLEIS_LISTEN"); val != "" {
		c.Listen = val
	}

	// Basic auth
	if val := os.Getenv("GLEIS_AUTH_USER"); val != "" {
		c.Auth.User = val
	} else if val := os.Getenv("BASIC_AUTH_USER"); val != "" {
		c.Auth.User = val
	}
	if val := os.Getenv("GLEIS_AUTH_PASSWORD"); val != "" {
		c.Auth.Password = val
	} else if val := os.Getenv("BASIC_AUTH_PASSWORD"); val != "" {
		c.Auth.Password = val
	}

	// Redis URL (support both REDIS_URL and GLEIS_REDIS_URL)
	if val := os.Getenv("GLEIS_REDIS_URL"); val != "" {
		c.RedisURL = val
	} else if val := os.Getenv("REDIS_URL"); val != "" {
		c.RedisURL = val
	}

	// Poll interval
	if val := os.Getenv("GLEIS_POLL_INTERVAL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.PollInterval = duration
		} else if secs, err := strconv.Atoi(val); err == nil {
			// Support plain seconds for convenience
			c.PollInterval = time.Duration(secs) * time.Second
		}
	}

	// Log level
	if val := os.Getenv("GLEIS_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
}

// Reload forces a reload of the configuration.
// This resets the global singleton and returns the newly loaded config.
func Reload() (*Config, error) {
	configOnce = sync.Once{}
	return Get()
}

// ConfigPaths returns the paths where config files are searched.
func ConfigPaths() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(homeDir, ".config", "gleis", "config.yaml"),
		filepath.Join(homeDir, ".config", "gleis", "config.yml"),
		filepath.Join(homeDir, ".gleis.yaml"),
	}
}

// WriteExample writes an example configuration file to the specified path.
func WriteExample(path string) error {
	example := `# gleis configuration file
# Place this file at ~/.config/gleis/config.yaml or ~/.gleis.yaml

# Notion integration
notion:
  api_key: ""
  database_id: ""
  # Property names as configured in the task database
  properties:
    name: Name
    state: State
    cat: Cat
    sub_cat: SubCat
    date: Date
    cat_tag: CatTag
    summary: 概要
  # Set true when State is a plain select rather than a status property
  state_is_select: false
  # Values stamped on newly created tasks
  defaults:
    name: 新規タスク
    state: INBOX
    cat: Work
    sub_cat: Task
    done: Done

# HTTP listen address
listen: ":3000"

# Basic-auth secrets (leave empty to run open, development only)
auth:
  user: ""
  password: ""

# Redis snapshot cache (optional)
redis_url: ""

# Board re-fetch interval (Go duration format, e.g., "60s", "1m")
poll_interval: 60s

# Logging
logging:
  level: info
  json: true
  file_path: ""
`
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(example), 0644)
}
